package obs

import (
	"context"
	"time"

	"github.com/f0rbit/corpus"
)

// VersionResolver names the canonical versions of a store for staleness
// filtering. Returning a non-empty slice means "these versions are current";
// returning nil falls back to the store's latest version by created_at.
type VersionResolver func(ctx context.Context, storeID string) ([]string, error)

// StaticVersions builds a resolver over a fixed version set, ignoring the
// store id.
func StaticVersions(versions ...string) VersionResolver {
	return func(context.Context, string) ([]string, error) {
		return versions, nil
	}
}

// QueryOptions filters an observation query. The filter fields mirror the
// adapter-level query; IncludeStale and VersionResolver control the
// staleness pass that runs above storage.
type QueryOptions struct {
	Type           string
	Types          []string
	SourceStore    string
	SourceVersion  string
	SourcePrefix   string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	ObservedAfter  *time.Time
	ObservedBefore *time.Time
	Limit          *int

	// IncludeStale keeps rows whose source version is no longer canonical.
	// Off by default: a query yields only current observations.
	IncludeStale    bool
	VersionResolver VersionResolver
}

func (o QueryOptions) storageQuery() corpus.ObservationQuery {
	q := corpus.ObservationQuery{
		Type:           o.Type,
		Types:          o.Types,
		SourceStore:    o.SourceStore,
		SourceVersion:  o.SourceVersion,
		SourcePrefix:   o.SourcePrefix,
		CreatedAfter:   o.CreatedAfter,
		CreatedBefore:  o.CreatedBefore,
		ObservedAfter:  o.ObservedAfter,
		ObservedBefore: o.ObservedBefore,
	}
	// The staleness pass drops rows after storage; push the limit down only
	// when no such pass runs, otherwise the final result could come up short.
	if o.IncludeStale {
		q.Limit = o.Limit
	}
	return q
}

// queryRows fetches matching rows and applies the staleness filter.
func (c *Client) queryRows(ctx context.Context, opts QueryOptions) ([]corpus.ObservationRow, error) {
	rows, err := c.storage.QueryRows(ctx, opts.storageQuery())
	if err != nil {
		return nil, err
	}
	if !opts.IncludeStale {
		rows, err = c.dropStale(ctx, rows, opts.VersionResolver)
		if err != nil {
			return nil, err
		}
		if opts.Limit != nil && len(rows) > *opts.Limit {
			rows = rows[:*opts.Limit]
		}
	}
	return rows, nil
}

// dropStale keeps rows whose source version is canonical for its store.
// Canonical versions are resolved once per distinct store per query.
func (c *Client) dropStale(ctx context.Context, rows []corpus.ObservationRow, resolver VersionResolver) ([]corpus.ObservationRow, error) {
	canonical := make(map[string][]string)
	kept := make([]corpus.ObservationRow, 0, len(rows))
	for _, row := range rows {
		versions, ok := canonical[row.SourceStoreID]
		if !ok {
			var err error
			versions, err = c.canonicalVersions(ctx, row.SourceStoreID, resolver)
			if err != nil {
				return nil, err
			}
			canonical[row.SourceStoreID] = versions
		}
		// A store with no canonical version cannot make anything stale.
		if versions == nil || contains(versions, row.SourceVersion) {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (c *Client) canonicalVersions(ctx context.Context, storeID string, resolver VersionResolver) ([]string, error) {
	if resolver != nil {
		versions, err := resolver(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if len(versions) > 0 {
			return versions, nil
		}
	}
	latest, err := c.metadata.GetLatest(ctx, storeID)
	if err != nil {
		if corpus.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return []string{latest.Version}, nil
}

func contains(versions []string, v string) bool {
	for _, candidate := range versions {
		if candidate == v {
			return true
		}
	}
	return false
}

// Query fetches matching observations and decodes each against def. When
// opts.Type and opts.Types are empty the def's name is used as the filter.
func Query[T any](ctx context.Context, c *Client, def TypeDef[T], opts QueryOptions) ([]Observation[T], error) {
	if opts.Type == "" && len(opts.Types) == 0 {
		opts.Type = def.Name
	}
	rows, err := c.queryRows(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Observation[T], 0, len(rows))
	for _, row := range rows {
		o, err := decodeRow(def, row)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// QueryMeta fetches matching observations without decoding their content.
func (c *Client) QueryMeta(ctx context.Context, opts QueryOptions) ([]Meta, error) {
	rows, err := c.queryRows(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Meta, 0, len(rows))
	for _, row := range rows {
		out = append(out, Meta{
			ID:          row.ID,
			Type:        row.Type,
			Source:      row.Source(),
			Confidence:  row.Confidence,
			ObservedAt:  row.ObservedAt,
			CreatedAt:   row.CreatedAt,
			DerivedFrom: row.DerivedFrom,
		})
	}
	return out, nil
}
