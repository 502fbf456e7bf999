// Package obs implements the observations layer: typed facts that point
// into specific locations of stored snapshots, with staleness tracking as
// the stores advance.
//
//	obs.go     — observation types, the client, put/get/delete
//	storage.go — the uniform storage over a backend's adapter
//	query.go   — query options and the staleness filter
//	resolve.go — pointer resolution against registered stores
package obs

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/codec"
)

// TypeDef names an observation type and carries its content schema. A nil
// schema decodes content structurally into T without validation.
type TypeDef[T any] struct {
	Name   string
	Schema codec.Validator[T]
}

// Observation is one typed fact about a snapshot location.
type Observation[T any] struct {
	ID          string
	Type        string
	Source      corpus.SnapshotPointer
	Content     T
	Confidence  *float64
	ObservedAt  *time.Time
	CreatedAt   time.Time
	DerivedFrom []corpus.SnapshotPointer
}

// Meta is an observation without its content, as returned by QueryMeta.
type Meta struct {
	ID          string
	Type        string
	Source      corpus.SnapshotPointer
	Confidence  *float64
	ObservedAt  *time.Time
	CreatedAt   time.Time
	DerivedFrom []corpus.SnapshotPointer
}

// PutInput is the caller-supplied part of a new observation.
type PutInput[T any] struct {
	Source      corpus.SnapshotPointer
	Content     T
	Confidence  *float64 // policy range [0,1], not enforced
	ObservedAt  *time.Time
	DerivedFrom []corpus.SnapshotPointer
}

// ClientConfig tunes a Client; the zero value selects the wall clock and a
// time-seeded random source.
type ClientConfig struct {
	Clock func() time.Time
	Rand  func() int64 // non-negative; used for id suffixes
}

// Client is the observations client over one backend's storage adapter.
// Staleness checks consult the metadata client of the same backend.
type Client struct {
	storage  *Storage
	metadata corpus.MetadataClient
	now      func() time.Time
	rand     func() int64
}

// NewClient builds a client over adapter. metadata is consulted for
// staleness; it must come from the same backend the adapter belongs to.
func NewClient(adapter corpus.ObservationsAdapter, metadata corpus.MetadataClient, cfg *ClientConfig) *Client {
	c := &Client{
		storage:  NewStorage(adapter),
		metadata: metadata,
		now:      time.Now,
	}
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	c.rand = func() int64 { return src.Int63() }
	if cfg != nil {
		if cfg.Clock != nil {
			c.now = cfg.Clock
		}
		if cfg.Rand != nil {
			c.rand = cfg.Rand
		}
	}
	return c
}

// Storage exposes the uniform storage, mainly for composition and tests.
func (c *Client) Storage() *Storage { return c.storage }

// newID allocates an observation id: obs_<timestamp36>_<random36>.
// Opaque to consumers; the embedded timestamp is an implementation detail.
func (c *Client) newID() string {
	ts := strconv.FormatInt(c.now().UnixMilli(), 36)
	rnd := strconv.FormatInt(c.rand(), 36)
	return "obs_" + ts + "_" + rnd
}

// Put validates content against the type's schema, stamps id and
// created_at, and persists the row.
func Put[T any](ctx context.Context, c *Client, def TypeDef[T], in PutInput[T]) (Observation[T], error) {
	content := in.Content
	if def.Schema != nil {
		// Schemas parse decoded JSON, the same shape decodeRow hands them.
		encoded, err := json.Marshal(in.Content)
		if err != nil {
			return Observation[T]{}, corpus.WrapErr(corpus.KindValidation, "observations.put", err)
		}
		var plain any
		if err := json.Unmarshal(encoded, &plain); err != nil {
			return Observation[T]{}, corpus.WrapErr(corpus.KindValidation, "observations.put", err)
		}
		validated, err := def.Schema.Parse(plain)
		if err != nil {
			return Observation[T]{}, corpus.WrapErr(corpus.KindValidation, "observations.put", err)
		}
		content = validated
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return Observation[T]{}, corpus.WrapErr(corpus.KindValidation, "observations.put", err)
	}

	o := Observation[T]{
		ID:          c.newID(),
		Type:        def.Name,
		Source:      in.Source,
		Content:     content,
		Confidence:  in.Confidence,
		ObservedAt:  in.ObservedAt,
		CreatedAt:   c.now(),
		DerivedFrom: in.DerivedFrom,
	}
	row := corpus.ObservationRow{
		ID:            o.ID,
		Type:          o.Type,
		SourceStoreID: in.Source.StoreID,
		SourceVersion: in.Source.Version,
		SourcePath:    in.Source.Path,
		SourceSpan:    in.Source.Span,
		Content:       raw,
		Confidence:    in.Confidence,
		ObservedAt:    in.ObservedAt,
		CreatedAt:     o.CreatedAt,
		DerivedFrom:   in.DerivedFrom,
	}
	if err := c.storage.PutRow(ctx, row); err != nil {
		return Observation[T]{}, err
	}
	return o, nil
}

// Get fetches one observation by id and decodes its content against def.
func Get[T any](ctx context.Context, c *Client, def TypeDef[T], id string) (Observation[T], error) {
	row, err := c.storage.GetRow(ctx, id)
	if err != nil {
		return Observation[T]{}, err
	}
	return decodeRow(def, row)
}

func decodeRow[T any](def TypeDef[T], row corpus.ObservationRow) (Observation[T], error) {
	var content T
	if def.Schema != nil {
		var raw any
		if err := json.Unmarshal(row.Content, &raw); err != nil {
			return Observation[T]{}, corpus.WrapErr(corpus.KindDecode, "observations.decode", err)
		}
		parsed, err := def.Schema.Parse(raw)
		if err != nil {
			return Observation[T]{}, corpus.WrapErr(corpus.KindValidation, "observations.decode", err)
		}
		content = parsed
	} else if err := json.Unmarshal(row.Content, &content); err != nil {
		return Observation[T]{}, corpus.WrapErr(corpus.KindDecode, "observations.decode", err)
	}
	return Observation[T]{
		ID:          row.ID,
		Type:        row.Type,
		Source:      row.Source(),
		Content:     content,
		Confidence:  row.Confidence,
		ObservedAt:  row.ObservedAt,
		CreatedAt:   row.CreatedAt,
		DerivedFrom: row.DerivedFrom,
	}, nil
}

// Delete removes one observation; deleting a missing id is an
// observation_not_found error.
func (c *Client) Delete(ctx context.Context, id string) error {
	removed, err := c.storage.DeleteRow(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return corpus.Errorf(corpus.KindObservationNotFound, "observations.delete", "%s", id)
	}
	return nil
}

// DeleteBySource removes every observation whose source matches the
// pointer and reports how many went. A pointer without a path matches all
// rows for its (store, version) regardless of path; with a path, only rows
// whose path equals it exactly.
func (c *Client) DeleteBySource(ctx context.Context, p corpus.SnapshotPointer) (int, error) {
	var path *string
	if p.Path != "" {
		path = &p.Path
	}
	return c.storage.DeleteBySource(ctx, p.StoreID, p.Version, path)
}

// IsStale reports whether the pointer no longer addresses the latest
// version of its store. A store with no snapshots has no later version,
// so its pointers are not stale.
func (c *Client) IsStale(ctx context.Context, p corpus.SnapshotPointer) (bool, error) {
	latest, err := c.metadata.GetLatest(ctx, p.StoreID)
	if err != nil {
		if corpus.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return latest.Version != p.Version, nil
}
