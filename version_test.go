package corpus

import (
	"testing"
	"time"
)

// fixedClock steps through a scripted sequence of instants, repeating the
// last one once the script runs out.
func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[min(i, len(times)-1)]
		i++
		return t
	}
}

func TestVersionSameMillisecondSuffixes(t *testing.T) {
	base := time.UnixMilli(1700000000000)
	g := newVersionGeneratorAt(fixedClock(base, base, base, base))

	v0 := g.Next()
	v1 := g.Next()
	v2 := g.Next()

	if v1 != v0+".1" {
		t.Errorf("second call in same millisecond: got %q, want %q", v1, v0+".1")
	}
	if v2 != v0+".2" {
		t.Errorf("third call in same millisecond: got %q, want %q", v2, v0+".2")
	}
	if !(v0 < v1 && v1 < v2) {
		t.Errorf("suffixed versions must sort after the bare token: %q %q %q", v0, v1, v2)
	}
}

func TestVersionMonotonicAcrossMilliseconds(t *testing.T) {
	// Consecutive low-bit increments keep the final base64url character in
	// the same alphabet band, so the encoded tokens sort.
	base := time.UnixMilli(1700000000000)
	g := newVersionGeneratorAt(fixedClock(
		base, base.Add(time.Millisecond), base.Add(2*time.Millisecond), base.Add(64*time.Millisecond),
	))

	var prev string
	for i := 0; i < 4; i++ {
		v := g.Next()
		if prev != "" && !(prev < v) {
			t.Fatalf("version %d not greater than predecessor: %q then %q", i, prev, v)
		}
		prev = v
	}
}

func TestVersionTokenShape(t *testing.T) {
	g := newVersionGeneratorAt(fixedClock(time.UnixMilli(1700000000000)))
	v := g.Next()
	// 1700000000000 needs 6 bytes big-endian, which base64url-encodes to 8
	// characters with no padding.
	if len(v) != 8 {
		t.Errorf("token length: got %d (%q), want 8", len(v), v)
	}
	for _, c := range v {
		if c == '=' || c == '+' || c == '/' {
			t.Errorf("token %q contains non-url-safe character %q", v, c)
		}
	}
}

func TestNextVersionUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v := NextVersion()
		if seen[v] {
			t.Fatalf("duplicate version %q", v)
		}
		seen[v] = true
	}
}
