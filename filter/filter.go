// Package filter provides the declarative filter+sort+limit combinator the
// in-memory metadata listing and the fallback observation query share.
// Predicates are registered together with the option that activates them; an
// absent option leaves its predicate out of the pipeline entirely.
package filter

import "sort"

// Pipeline filters, orders, and bounds a row set. Build one with New, chain
// Where/WhereOpt clauses, set the order, and Apply.
type Pipeline[T any] struct {
	preds []func(T) bool
	less  func(a, b T) bool
	limit *int
}

// New starts an empty pipeline over rows of type T.
func New[T any]() *Pipeline[T] {
	return &Pipeline[T]{}
}

// Where adds an unconditional predicate.
func (p *Pipeline[T]) Where(pred func(T) bool) *Pipeline[T] {
	p.preds = append(p.preds, pred)
	return p
}

// WhereOpt adds pred only when active is true, mirroring "apply each
// predicate only if its keyed option is present".
func (p *Pipeline[T]) WhereOpt(active bool, pred func(T) bool) *Pipeline[T] {
	if active {
		p.preds = append(p.preds, pred)
	}
	return p
}

// SortBy sets the total order applied after filtering.
func (p *Pipeline[T]) SortBy(less func(a, b T) bool) *Pipeline[T] {
	p.less = less
	return p
}

// Limit caps the result after sorting. A nil limit is unbounded; an explicit
// zero yields nothing.
func (p *Pipeline[T]) Limit(n *int) *Pipeline[T] {
	p.limit = n
	return p
}

// Apply runs the pipeline over rows and returns a fresh slice.
func (p *Pipeline[T]) Apply(rows []T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, pred := range p.preds {
			if !pred(row) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	if p.less != nil {
		sort.SliceStable(out, func(i, j int) bool { return p.less(out[i], out[j]) })
	}
	if p.limit != nil && len(out) > *p.limit {
		out = out[:*p.limit]
	}
	return out
}
