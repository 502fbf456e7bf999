package corpus

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"sync"
	"time"
)

// VersionGenerator produces unique, lexicographically sortable version
// strings. The token is the current wall-clock millisecond, big-endian with
// leading zero bytes stripped, base64url-encoded without padding. Calls that
// land in the same millisecond get a ".1", ".2", … suffix; the bare token is
// a prefix of each suffixed version, so suffixed versions sort after it.
//
// Uniqueness holds within a single process only. The generator is safe for
// concurrent use.
type VersionGenerator struct {
	mu         sync.Mutex
	now        func() time.Time
	lastMillis int64
	seq        int
}

// NewVersionGenerator returns a generator on the wall clock.
func NewVersionGenerator() *VersionGenerator {
	return &VersionGenerator{now: time.Now}
}

// newVersionGeneratorAt pins the clock; tests use it to force collisions.
func newVersionGeneratorAt(now func() time.Time) *VersionGenerator {
	return &VersionGenerator{now: now}
}

// Next returns the next version string.
func (g *VersionGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now().UnixMilli()
	if t == g.lastMillis {
		g.seq++
	} else {
		g.lastMillis = t
		g.seq = 0
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t))
	b := buf[:]
	for len(b) > 1 && b[0] == 0 {
		b = b[1:]
	}
	v := base64.RawURLEncoding.EncodeToString(b)
	if g.seq > 0 {
		v += "." + strconv.Itoa(g.seq)
	}
	return v
}

var defaultVersions = NewVersionGenerator()

// NextVersion returns the next version from the process-wide generator.
func NextVersion() string { return defaultVersions.Next() }
