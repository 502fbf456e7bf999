// Package corpus implements a versioned, content-addressed snapshot store
// with pluggable backends and a typed observations layer.
//
// The root package defines the canonical data types, the backend contracts,
// and the snapshot engine:
//
//	meta.go        — SnapshotMeta, ParentRef, options
//	observation.go — observation rows and the adapter-level query
//	pointer.go     — snapshot pointers, path and span resolution
//	version.go     — time-sortable version generation
//	hash.go        — content hashing
//	backend.go     — MetadataClient, DataClient, Backend contracts
//	codec.go       — the Codec contract (implementations live in codec/)
//	store.go       — the snapshot engine
//	corpus.go      — Builder and the Corpus handle
//	events.go      — observability events
//	errors.go      — error taxonomy
//
// Backends live under backend/; the observations client lives in obs/.
package corpus

import "time"

// ParentRef records one lineage edge of a snapshot. Role is a freeform label
// ("input", "template", ...) and is ignored when matching children.
type ParentRef struct {
	StoreID string `json:"store_id"`
	Version string `json:"version"`
	Role    string `json:"role,omitempty"`
}

// SnapshotMeta is the unit of versioning. Immutable once written, except
// that a put of the same (store_id, version) pair overwrites the metadata
// row; the data blob it references is immutable by content hash.
type SnapshotMeta struct {
	StoreID     string      `json:"store_id"`
	Version     string      `json:"version"`
	ContentHash string      `json:"content_hash"` // lowercase hex SHA-256
	ContentType string      `json:"content_type"`
	SizeBytes   int64       `json:"size_bytes"`
	DataKey     string      `json:"data_key"`
	CreatedAt   time.Time   `json:"created_at"`
	InvokedAt   *time.Time  `json:"invoked_at,omitempty"` // caller-supplied logical event time
	Parents     []ParentRef `json:"parents,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// HasParent reports whether m lists (storeID, version) among its parents.
// Role is not part of the match.
func (m SnapshotMeta) HasParent(storeID, version string) bool {
	for _, p := range m.Parents {
		if p.StoreID == storeID && p.Version == version {
			return true
		}
	}
	return false
}

// HasTags reports whether every tag in want is present in m.Tags.
// An empty want matches everything; a meta without tags matches nothing else.
func (m SnapshotMeta) HasTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, t := range m.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Snapshot pairs a metadata row with its decoded payload. Data is a
// transient view; only the meta is persisted.
type Snapshot[T any] struct {
	Meta SnapshotMeta
	Data T
}

// PutOptions carries the caller-supplied parts of a snapshot put.
type PutOptions struct {
	Parents   []ParentRef
	InvokedAt *time.Time
	Tags      []string
}

// ListOptions filters and bounds a metadata listing. Nil pointer fields are
// inactive. Limit distinguishes "absent" (nil, unbounded) from an explicit
// zero, which yields nothing.
type ListOptions struct {
	Before *time.Time // strict created_at < Before
	After  *time.Time // strict created_at > After
	Tags   []string   // every tag must be present (AND)
	Limit  *int
}

// Limit is a convenience for building ListOptions and query limits inline.
func Limit(n int) *int { return &n }

// DataKeyInput is what a data-key policy sees for one put.
type DataKeyInput struct {
	StoreID     string
	Version     string
	ContentHash string
	Tags        []string
}

// DataKeyFunc derives the physical blob key for a snapshot.
type DataKeyFunc func(DataKeyInput) string

// DefaultDataKey is the default policy: identical content in the same store
// maps to the same blob, which is what makes deduplication work.
func DefaultDataKey(in DataKeyInput) string {
	return in.StoreID + "/" + in.ContentHash
}
