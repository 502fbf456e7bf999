// Package memory implements the in-memory backend: two associative
// containers for metadata and blobs plus an observations table. It is the
// reference backend for tests and for layering experiments.
package memory

import (
	"context"
	"io"
	"sync"

	"github.com/f0rbit/corpus"
)

// Backend holds everything in process memory. Safe for concurrent use.
type Backend struct {
	mu    sync.RWMutex
	metas map[string]map[string]corpus.SnapshotMeta // store_id → version → meta
	blobs map[string][]byte                         // data_key → bytes
	obs   []corpus.ObservationRow                   // insertion order
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		metas: make(map[string]map[string]corpus.SnapshotMeta),
		blobs: make(map[string][]byte),
	}
}

func (b *Backend) Metadata() corpus.MetadataClient          { return (*metadataClient)(b) }
func (b *Backend) Data() corpus.DataClient                  { return (*dataClient)(b) }
func (b *Backend) Observations() corpus.ObservationsAdapter { return (*obsAdapter)(b) }

// ─── Metadata ─────────────────────────────────────────────────────────────────

type metadataClient Backend

func (m *metadataClient) Get(ctx context.Context, storeID, version string) (corpus.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return corpus.SnapshotMeta{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.metas[storeID][version]
	if !ok {
		return corpus.SnapshotMeta{}, corpus.Errorf(corpus.KindNotFound, "metadata.get", "%s@%s", storeID, version)
	}
	return meta, nil
}

func (m *metadataClient) Put(ctx context.Context, meta corpus.SnapshotMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byVersion, ok := m.metas[meta.StoreID]
	if !ok {
		byVersion = make(map[string]corpus.SnapshotMeta)
		m.metas[meta.StoreID] = byVersion
	}
	byVersion[meta.Version] = meta
	return nil
}

func (m *metadataClient) Delete(ctx context.Context, storeID, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metas[storeID], version)
	return nil
}

func (m *metadataClient) List(ctx context.Context, storeID string, opts corpus.ListOptions) ([]corpus.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	all := make([]corpus.SnapshotMeta, 0, len(m.metas[storeID]))
	for _, meta := range m.metas[storeID] {
		all = append(all, meta)
	}
	m.mu.RUnlock()
	return corpus.ApplyListOptions(all, opts), nil
}

func (m *metadataClient) GetLatest(ctx context.Context, storeID string) (corpus.SnapshotMeta, error) {
	metas, err := m.List(ctx, storeID, corpus.ListOptions{Limit: corpus.Limit(1)})
	if err != nil {
		return corpus.SnapshotMeta{}, err
	}
	if len(metas) == 0 {
		return corpus.SnapshotMeta{}, corpus.Errorf(corpus.KindNotFound, "metadata.get_latest", "%s is empty", storeID)
	}
	return metas[0], nil
}

func (m *metadataClient) GetChildren(ctx context.Context, parentStoreID, parentVersion string) ([]corpus.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var children []corpus.SnapshotMeta
	for _, byVersion := range m.metas {
		for _, meta := range byVersion {
			if meta.HasParent(parentStoreID, parentVersion) {
				children = append(children, meta)
			}
		}
	}
	m.mu.RUnlock()
	return corpus.ApplyListOptions(children, corpus.ListOptions{}), nil
}

func (m *metadataClient) FindByHash(ctx context.Context, storeID, contentHash string) (corpus.SnapshotMeta, bool, error) {
	if err := ctx.Err(); err != nil {
		return corpus.SnapshotMeta{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, meta := range m.metas[storeID] {
		if meta.ContentHash == contentHash {
			return meta, true, nil
		}
	}
	return corpus.SnapshotMeta{}, false, nil
}

// ─── Data ─────────────────────────────────────────────────────────────────────

type dataClient Backend

func (d *dataClient) Get(ctx context.Context, dataKey string) (corpus.DataHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	blob, ok := d.blobs[dataKey]
	if !ok {
		return nil, corpus.Errorf(corpus.KindNotFound, "data.get", "blob %q", dataKey)
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return corpus.BytesHandle(out), nil
}

func (d *dataClient) Put(ctx context.Context, dataKey string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	blob := make([]byte, len(data))
	copy(blob, data)
	d.blobs[dataKey] = blob
	return nil
}

func (d *dataClient) PutStream(ctx context.Context, dataKey string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return corpus.WrapErr(corpus.KindStorage, "data.put", err)
	}
	return d.Put(ctx, dataKey, data)
}

func (d *dataClient) Delete(ctx context.Context, dataKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.blobs, dataKey)
	return nil
}

func (d *dataClient) Exists(ctx context.Context, dataKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.blobs[dataKey]
	return ok, nil
}

// BlobCount reports how many physical blobs the backend holds. Dedup tests
// use it to assert a single blob behind many versions.
func (b *Backend) BlobCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}

// ─── Observations ─────────────────────────────────────────────────────────────

// obsAdapter implements only the base adapter shape; queries go through the
// observations client's scan-and-filter path.
type obsAdapter Backend

func (o *obsAdapter) GetAll(ctx context.Context) ([]corpus.ObservationRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]corpus.ObservationRow, len(o.obs))
	copy(out, o.obs)
	return out, nil
}

func (o *obsAdapter) SetAll(ctx context.Context, rows []corpus.ObservationRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = make([]corpus.ObservationRow, len(rows))
	copy(o.obs, rows)
	return nil
}

func (o *obsAdapter) GetOne(ctx context.Context, id string) (corpus.ObservationRow, error) {
	if err := ctx.Err(); err != nil {
		return corpus.ObservationRow{}, err
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, row := range o.obs {
		if row.ID == id {
			return row, nil
		}
	}
	return corpus.ObservationRow{}, corpus.Errorf(corpus.KindObservationNotFound, "observations.get", "%s", id)
}

func (o *obsAdapter) AddOne(ctx context.Context, row corpus.ObservationRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, existing := range o.obs {
		if existing.ID == row.ID {
			return corpus.Errorf(corpus.KindAlreadyExists, "observations.add", "%s", row.ID)
		}
	}
	o.obs = append(o.obs, row)
	return nil
}

func (o *obsAdapter) RemoveOne(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, row := range o.obs {
		if row.ID == id {
			o.obs = append(o.obs[:i], o.obs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
