package corpus

import (
	"bytes"
	"context"
	"io"
)

// MetadataClient persists SnapshotMeta keyed by (store_id, version).
//
// Get and GetLatest return a not_found error on miss. Put is an upsert.
// Delete is idempotent: deleting a missing key succeeds. Listings are
// finite slices ordered by created_at descending, ties broken by version
// descending.
type MetadataClient interface {
	Get(ctx context.Context, storeID, version string) (SnapshotMeta, error)
	Put(ctx context.Context, meta SnapshotMeta) error
	Delete(ctx context.Context, storeID, version string) error
	List(ctx context.Context, storeID string, opts ListOptions) ([]SnapshotMeta, error)
	GetLatest(ctx context.Context, storeID string) (SnapshotMeta, error)
	GetChildren(ctx context.Context, parentStoreID, parentVersion string) ([]SnapshotMeta, error)
	FindByHash(ctx context.Context, storeID, contentHash string) (SnapshotMeta, bool, error)
}

// DataHandle is a read handle over one blob. Either accessor may be used;
// a backend must not require both to be called, and neither performs a
// redundant read of the other.
type DataHandle interface {
	// Bytes returns the full blob.
	Bytes() ([]byte, error)
	// Reader streams the blob. The caller closes it.
	Reader() (io.ReadCloser, error)
}

// BytesHandle wraps an in-memory blob as a DataHandle.
type BytesHandle []byte

func (h BytesHandle) Bytes() ([]byte, error) { return h, nil }

func (h BytesHandle) Reader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(h)), nil
}

// DataClient persists raw blobs keyed by data_key.
//
// Put is idempotent by key: rewriting a key with the same bytes is
// observably a no-op. PutStream consumes the reader exactly once; callers
// must not reuse it. Delete is idempotent.
type DataClient interface {
	Get(ctx context.Context, dataKey string) (DataHandle, error)
	Put(ctx context.Context, dataKey string, data []byte) error
	PutStream(ctx context.Context, dataKey string, r io.Reader) error
	Delete(ctx context.Context, dataKey string) error
	Exists(ctx context.Context, dataKey string) (bool, error)
}

// Backend bundles the clients a snapshot engine or composite consumes.
// Observations returns nil when the backend has no observations support.
type Backend interface {
	Metadata() MetadataClient
	Data() DataClient
	Observations() ObservationsAdapter
}
