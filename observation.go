package corpus

import (
	"context"
	"encoding/json"
	"time"
)

// ObservationRow is the storage-level representation of an observation.
// Content is kept as raw JSON at this level; the obs package decodes it
// against the observation type's schema.
type ObservationRow struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	SourceStoreID  string            `json:"source_store_id"`
	SourceVersion  string            `json:"source_version"`
	SourcePath     string            `json:"source_path,omitempty"`
	SourceSpan     *Span             `json:"source_span,omitempty"`
	Content        json.RawMessage   `json:"content"`
	Confidence     *float64          `json:"confidence,omitempty"`
	ObservedAt     *time.Time        `json:"observed_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	DerivedFrom    []SnapshotPointer `json:"derived_from,omitempty"`
}

// Source reassembles the pointer this row is about.
func (r ObservationRow) Source() SnapshotPointer {
	return SnapshotPointer{
		StoreID: r.SourceStoreID,
		Version: r.SourceVersion,
		Path:    r.SourcePath,
		Span:    r.SourceSpan,
	}
}

// ObservationQuery is the adapter-level filter set. Staleness filtering is
// not part of it; that happens in the observations client, above storage.
type ObservationQuery struct {
	Type           string     // row type equals
	Types          []string   // row type is one of (ignored when Type is set)
	SourceStore    string     // source_store_id equals
	SourceVersion  string     // source_version equals
	SourcePrefix   string     // source_version starts with
	CreatedAfter   *time.Time // strict
	CreatedBefore  *time.Time // strict
	ObservedAfter  *time.Time // strict; rows without observed_at excluded
	ObservedBefore *time.Time // strict; rows without observed_at excluded
	Limit          *int
}

// MatchesType reports whether typ passes the query's type filter.
func (q ObservationQuery) MatchesType(typ string) bool {
	if q.Type != "" {
		return typ == q.Type
	}
	if len(q.Types) == 0 {
		return true
	}
	for _, t := range q.Types {
		if typ == t {
			return true
		}
	}
	return false
}

// ObservationsAdapter is the base shape every observation-capable backend
// implements: whole-table access plus single-row operations. The obs package
// wraps it into a uniform storage, filtering in memory unless the adapter
// also implements ObservationQuerier / ObservationSourceDeleter.
type ObservationsAdapter interface {
	GetAll(ctx context.Context) ([]ObservationRow, error)
	SetAll(ctx context.Context, rows []ObservationRow) error
	GetOne(ctx context.Context, id string) (ObservationRow, error)
	AddOne(ctx context.Context, row ObservationRow) error
	RemoveOne(ctx context.Context, id string) (bool, error)
}

// ObservationQuerier is the optimized query shape. Backends with a native
// query engine (SQL) implement it to avoid whole-table scans.
type ObservationQuerier interface {
	QueryRows(ctx context.Context, q ObservationQuery) ([]ObservationRow, error)
}

// ObservationSourceDeleter is the optimized bulk delete by source pointer.
// A nil path removes every row for (storeID, version) regardless of path;
// a non-nil path removes only rows whose source path equals it exactly.
type ObservationSourceDeleter interface {
	DeleteBySource(ctx context.Context, storeID, version string, path *string) (int, error)
}
