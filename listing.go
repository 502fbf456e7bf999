package corpus

import "github.com/f0rbit/corpus/filter"

// MetaLess is the canonical listing order: created_at descending, ties
// broken by version descending.
func MetaLess(a, b SnapshotMeta) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Version > b.Version
}

// ApplyListOptions runs the declarative filter pipeline for a metadata
// listing: strict time bounds, AND-matched tags, canonical order, limit.
// Scan-and-filter backends (memory, local files) and the layered merge all
// share it.
func ApplyListOptions(metas []SnapshotMeta, opts ListOptions) []SnapshotMeta {
	return filter.New[SnapshotMeta]().
		WhereOpt(opts.Before != nil, func(m SnapshotMeta) bool { return m.CreatedAt.Before(*opts.Before) }).
		WhereOpt(opts.After != nil, func(m SnapshotMeta) bool { return m.CreatedAt.After(*opts.After) }).
		WhereOpt(len(opts.Tags) > 0, func(m SnapshotMeta) bool { return m.HasTags(opts.Tags) }).
		SortBy(MetaLess).
		Limit(opts.Limit).
		Apply(metas)
}
