package pipe_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/f0rbit/corpus/pipe"
)

func TestMapThenChain(t *testing.T) {
	got, err := pipe.Then(
		pipe.Map(pipe.Of(21), func(n int) int { return n * 2 }),
		func(n int) (string, error) { return strconv.Itoa(n), nil },
	).Result()
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if got != "42" {
		t.Errorf("got %q, want 42", got)
	}
}

func TestErrorShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	p := pipe.Then(pipe.Fail[int](boom), func(int) (int, error) {
		ran = true
		return 0, nil
	})
	if ran {
		t.Error("step ran after failure")
	}
	if !errors.Is(p.Err(), boom) {
		t.Errorf("err = %v", p.Err())
	}
}

func TestUnwrapOr(t *testing.T) {
	if got := pipe.Fail[int](errors.New("x")).UnwrapOr(7); got != 7 {
		t.Errorf("UnwrapOr on failure = %d", got)
	}
	if got := pipe.Of(3).UnwrapOr(7); got != 3 {
		t.Errorf("UnwrapOr on success = %d", got)
	}
}

func TestRecoverIf(t *testing.T) {
	sentinel := errors.New("miss")
	got, err := pipe.Fail[string](sentinel).
		RecoverIf(func(e error) bool { return errors.Is(e, sentinel) },
			func() (string, error) { return "fallback", nil }).
		Result()
	if err != nil || got != "fallback" {
		t.Errorf("recover: %q, %v", got, err)
	}

	other := errors.New("fatal")
	_, err = pipe.Fail[string](other).
		RecoverIf(func(e error) bool { return errors.Is(e, sentinel) },
			func() (string, error) { return "fallback", nil }).
		Result()
	if !errors.Is(err, other) {
		t.Errorf("non-matching error rewritten: %v", err)
	}
}

func TestTaps(t *testing.T) {
	var sawVal int
	var sawErr error
	pipe.Of(5).Tap(func(n int) { sawVal = n }).TapErr(func(e error) { sawErr = e })
	if sawVal != 5 || sawErr != nil {
		t.Errorf("taps on success: %d, %v", sawVal, sawErr)
	}

	boom := errors.New("boom")
	sawVal = 0
	pipe.Fail[int](boom).Tap(func(n int) { sawVal = n }).TapErr(func(e error) { sawErr = e })
	if sawVal != 0 || !errors.Is(sawErr, boom) {
		t.Errorf("taps on failure: %d, %v", sawVal, sawErr)
	}
}

func TestMapErr(t *testing.T) {
	wrapped := pipe.Fail[int](errors.New("inner")).
		MapErr(func(e error) error { return errors.New("outer: " + e.Error()) })
	if wrapped.Err().Error() != "outer: inner" {
		t.Errorf("MapErr: %v", wrapped.Err())
	}
}
