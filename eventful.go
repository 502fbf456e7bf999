package corpus

import (
	"context"
	"io"
)

// WithEvents wraps a backend so every metadata and data operation except
// data Exists emits its event through hook; observations pass through
// without events. The snapshot engine emits its own events and is built
// over the raw backend; this wrapper serves callers driving the clients
// directly, and composites that want per-layer visibility.
func WithEvents(b Backend, hook EventHook) Backend {
	if hook == nil {
		return b
	}
	return &eventBackend{inner: b, hook: hook}
}

type eventBackend struct {
	inner Backend
	hook  EventHook
}

func (b *eventBackend) Metadata() MetadataClient {
	return &eventMetadata{inner: b.inner.Metadata(), hook: b.hook}
}

func (b *eventBackend) Data() DataClient {
	return &eventData{inner: b.inner.Data(), hook: b.hook}
}

func (b *eventBackend) Observations() ObservationsAdapter {
	return b.inner.Observations()
}

type eventMetadata struct {
	inner MetadataClient
	hook  EventHook
}

func (m *eventMetadata) done(ev Event, err error) {
	if err != nil && !IsNotFound(err) {
		m.hook.emit(Event{Type: EventError, StoreID: ev.StoreID, Version: ev.Version, Err: err})
		return
	}
	m.hook.emit(ev)
}

func (m *eventMetadata) Get(ctx context.Context, storeID, version string) (SnapshotMeta, error) {
	meta, err := m.inner.Get(ctx, storeID, version)
	m.done(Event{Type: EventMetaGet, StoreID: storeID, Version: version}, err)
	return meta, err
}

func (m *eventMetadata) Put(ctx context.Context, meta SnapshotMeta) error {
	err := m.inner.Put(ctx, meta)
	m.done(Event{Type: EventMetaPut, StoreID: meta.StoreID, Version: meta.Version}, err)
	return err
}

func (m *eventMetadata) Delete(ctx context.Context, storeID, version string) error {
	err := m.inner.Delete(ctx, storeID, version)
	m.done(Event{Type: EventMetaDelete, StoreID: storeID, Version: version}, err)
	return err
}

func (m *eventMetadata) List(ctx context.Context, storeID string, opts ListOptions) ([]SnapshotMeta, error) {
	metas, err := m.inner.List(ctx, storeID, opts)
	m.done(Event{Type: EventMetaList, StoreID: storeID}, err)
	return metas, err
}

func (m *eventMetadata) GetLatest(ctx context.Context, storeID string) (SnapshotMeta, error) {
	meta, err := m.inner.GetLatest(ctx, storeID)
	m.done(Event{Type: EventMetaGet, StoreID: storeID, Version: meta.Version}, err)
	return meta, err
}

func (m *eventMetadata) GetChildren(ctx context.Context, parentStoreID, parentVersion string) ([]SnapshotMeta, error) {
	metas, err := m.inner.GetChildren(ctx, parentStoreID, parentVersion)
	m.done(Event{Type: EventMetaList, StoreID: parentStoreID, Version: parentVersion}, err)
	return metas, err
}

func (m *eventMetadata) FindByHash(ctx context.Context, storeID, contentHash string) (SnapshotMeta, bool, error) {
	meta, ok, err := m.inner.FindByHash(ctx, storeID, contentHash)
	m.done(Event{Type: EventMetaGet, StoreID: storeID, ContentHash: contentHash}, err)
	return meta, ok, err
}

type eventData struct {
	inner DataClient
	hook  EventHook
}

func (d *eventData) done(ev Event, err error) {
	if err != nil && !IsNotFound(err) {
		d.hook.emit(Event{Type: EventError, DataKey: ev.DataKey, Err: err})
		return
	}
	d.hook.emit(ev)
}

func (d *eventData) Get(ctx context.Context, dataKey string) (DataHandle, error) {
	h, err := d.inner.Get(ctx, dataKey)
	d.done(Event{Type: EventDataGet, DataKey: dataKey}, err)
	return h, err
}

func (d *eventData) Put(ctx context.Context, dataKey string, data []byte) error {
	err := d.inner.Put(ctx, dataKey, data)
	d.done(Event{Type: EventDataPut, DataKey: dataKey}, err)
	return err
}

func (d *eventData) PutStream(ctx context.Context, dataKey string, r io.Reader) error {
	err := d.inner.PutStream(ctx, dataKey, r)
	d.done(Event{Type: EventDataPut, DataKey: dataKey}, err)
	return err
}

func (d *eventData) Delete(ctx context.Context, dataKey string) error {
	err := d.inner.Delete(ctx, dataKey)
	d.done(Event{Type: EventDataDelete, DataKey: dataKey}, err)
	return err
}

func (d *eventData) Exists(ctx context.Context, dataKey string) (bool, error) {
	return d.inner.Exists(ctx, dataKey)
}
