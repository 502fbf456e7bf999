package obs

import (
	"context"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/filter"
)

// Storage wraps a backend's observations adapter into the uniform shape the
// client works against. When the adapter implements the optimized query or
// bulk-delete interfaces those are used directly; otherwise Storage falls
// back to whole-table scans filtered through the declarative pipeline.
type Storage struct {
	adapter corpus.ObservationsAdapter
}

// NewStorage wraps adapter.
func NewStorage(adapter corpus.ObservationsAdapter) *Storage {
	return &Storage{adapter: adapter}
}

// PutRow appends one row.
func (s *Storage) PutRow(ctx context.Context, row corpus.ObservationRow) error {
	return s.adapter.AddOne(ctx, row)
}

// GetRow fetches one row by id.
func (s *Storage) GetRow(ctx context.Context, id string) (corpus.ObservationRow, error) {
	return s.adapter.GetOne(ctx, id)
}

// DeleteRow removes one row, reporting whether it existed.
func (s *Storage) DeleteRow(ctx context.Context, id string) (bool, error) {
	return s.adapter.RemoveOne(ctx, id)
}

// QueryRows runs the adapter-level query, natively when possible.
func (s *Storage) QueryRows(ctx context.Context, q corpus.ObservationQuery) ([]corpus.ObservationRow, error) {
	if querier, ok := s.adapter.(corpus.ObservationQuerier); ok {
		return querier.QueryRows(ctx, q)
	}
	rows, err := s.adapter.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterRows(rows, q), nil
}

// filterRows is the scan-and-filter path: each predicate applies only when
// its option is present, then the canonical order and limit.
func filterRows(rows []corpus.ObservationRow, q corpus.ObservationQuery) []corpus.ObservationRow {
	typed := q.Type != "" || len(q.Types) > 0
	return filter.New[corpus.ObservationRow]().
		WhereOpt(typed, func(r corpus.ObservationRow) bool { return q.MatchesType(r.Type) }).
		WhereOpt(q.SourceStore != "", func(r corpus.ObservationRow) bool { return r.SourceStoreID == q.SourceStore }).
		WhereOpt(q.SourceVersion != "", func(r corpus.ObservationRow) bool { return r.SourceVersion == q.SourceVersion }).
		WhereOpt(q.SourcePrefix != "", func(r corpus.ObservationRow) bool {
			return len(r.SourceVersion) >= len(q.SourcePrefix) && r.SourceVersion[:len(q.SourcePrefix)] == q.SourcePrefix
		}).
		WhereOpt(q.CreatedAfter != nil, func(r corpus.ObservationRow) bool { return r.CreatedAt.After(*q.CreatedAfter) }).
		WhereOpt(q.CreatedBefore != nil, func(r corpus.ObservationRow) bool { return r.CreatedAt.Before(*q.CreatedBefore) }).
		WhereOpt(q.ObservedAfter != nil, func(r corpus.ObservationRow) bool {
			return r.ObservedAt != nil && r.ObservedAt.After(*q.ObservedAfter)
		}).
		WhereOpt(q.ObservedBefore != nil, func(r corpus.ObservationRow) bool {
			return r.ObservedAt != nil && r.ObservedAt.Before(*q.ObservedBefore)
		}).
		SortBy(func(a, b corpus.ObservationRow) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}).
		Limit(q.Limit).
		Apply(rows)
}

// DeleteBySource removes rows matching (storeID, version) and, when path is
// non-nil, the exact source path. Uses the adapter's native bulk delete when
// present, otherwise load-partition-store.
func (s *Storage) DeleteBySource(ctx context.Context, storeID, version string, path *string) (int, error) {
	if del, ok := s.adapter.(corpus.ObservationSourceDeleter); ok {
		return del.DeleteBySource(ctx, storeID, version, path)
	}
	rows, err := s.adapter.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	kept := make([]corpus.ObservationRow, 0, len(rows))
	removed := 0
	for _, row := range rows {
		match := row.SourceStoreID == storeID && row.SourceVersion == version &&
			(path == nil || row.SourcePath == *path)
		if match {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.adapter.SetAll(ctx, kept)
}
