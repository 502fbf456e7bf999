// Package pipe is a thin wrapper over (value, error) pairs that lets callers
// chain maps and recoveries without per-operation branching. It carries no
// runtime machinery: a Pipe is just the pair, and every combinator is a
// plain function over it.
package pipe

// Pipe holds a value or an error, never meaningfully both.
type Pipe[T any] struct {
	val T
	err error
}

// Of lifts a plain value.
func Of[T any](v T) Pipe[T] {
	return Pipe[T]{val: v}
}

// Fail lifts an error.
func Fail[T any](err error) Pipe[T] {
	return Pipe[T]{err: err}
}

// From lifts a conventional (value, error) return.
func From[T any](v T, err error) Pipe[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Of(v)
}

// Result unwraps back to the conventional pair.
func (p Pipe[T]) Result() (T, error) { return p.val, p.err }

// Err returns the carried error, if any.
func (p Pipe[T]) Err() error { return p.err }

// UnwrapOr returns the value, or def when the pipe carries an error.
func (p Pipe[T]) UnwrapOr(def T) T {
	if p.err != nil {
		return def
	}
	return p.val
}

// Tap runs f on the value when present and passes the pipe through.
func (p Pipe[T]) Tap(f func(T)) Pipe[T] {
	if p.err == nil {
		f(p.val)
	}
	return p
}

// TapErr runs f on the error when present and passes the pipe through.
func (p Pipe[T]) TapErr(f func(error)) Pipe[T] {
	if p.err != nil {
		f(p.err)
	}
	return p
}

// MapErr rewrites the error when present.
func (p Pipe[T]) MapErr(f func(error) error) Pipe[T] {
	if p.err != nil {
		return Fail[T](f(p.err))
	}
	return p
}

// RecoverIf replaces a matching error with the result of f. Non-matching
// errors pass through untouched.
func (p Pipe[T]) RecoverIf(match func(error) bool, f func() (T, error)) Pipe[T] {
	if p.err != nil && match(p.err) {
		return From(f())
	}
	return p
}

// Map transforms the value with an infallible f. Free function because Go
// methods cannot introduce type parameters.
func Map[T, U any](p Pipe[T], f func(T) U) Pipe[U] {
	if p.err != nil {
		return Fail[U](p.err)
	}
	return Of(f(p.val))
}

// Then chains a fallible step, the flat-map of this pipeline.
func Then[T, U any](p Pipe[T], f func(T) (U, error)) Pipe[U] {
	if p.err != nil {
		return Fail[U](p.err)
	}
	return From(f(p.val))
}
