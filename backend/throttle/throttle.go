// Package throttle decorates a backend with a shared rate limiter. Every
// metadata and data operation waits on the limiter before touching the
// underlying backend, which keeps a hot caller from saturating a shared or
// remote store. Observation traffic passes through untouched.
package throttle

import (
	"context"
	"io"

	"golang.org/x/time/rate"

	"github.com/f0rbit/corpus"
)

// Wrap returns backend with every metadata and data operation gated by
// limiter.Wait.
func Wrap(backend corpus.Backend, limiter *rate.Limiter) corpus.Backend {
	return &throttled{inner: backend, limiter: limiter}
}

// New wraps backend with a fresh limiter of opsPerSec, burst 1 minimum.
func New(backend corpus.Backend, opsPerSec float64) corpus.Backend {
	burst := int(opsPerSec)
	if burst < 1 {
		burst = 1
	}
	return Wrap(backend, rate.NewLimiter(rate.Limit(opsPerSec), burst))
}

type throttled struct {
	inner   corpus.Backend
	limiter *rate.Limiter
}

func (t *throttled) Metadata() corpus.MetadataClient {
	return &metadataClient{inner: t.inner.Metadata(), limiter: t.limiter}
}

func (t *throttled) Data() corpus.DataClient {
	return &dataClient{inner: t.inner.Data(), limiter: t.limiter}
}

func (t *throttled) Observations() corpus.ObservationsAdapter {
	return t.inner.Observations()
}

type metadataClient struct {
	inner   corpus.MetadataClient
	limiter *rate.Limiter
}

func (m *metadataClient) Get(ctx context.Context, storeID, version string) (corpus.SnapshotMeta, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return corpus.SnapshotMeta{}, err
	}
	return m.inner.Get(ctx, storeID, version)
}

func (m *metadataClient) Put(ctx context.Context, meta corpus.SnapshotMeta) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	return m.inner.Put(ctx, meta)
}

func (m *metadataClient) Delete(ctx context.Context, storeID, version string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	return m.inner.Delete(ctx, storeID, version)
}

func (m *metadataClient) List(ctx context.Context, storeID string, opts corpus.ListOptions) ([]corpus.SnapshotMeta, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return m.inner.List(ctx, storeID, opts)
}

func (m *metadataClient) GetLatest(ctx context.Context, storeID string) (corpus.SnapshotMeta, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return corpus.SnapshotMeta{}, err
	}
	return m.inner.GetLatest(ctx, storeID)
}

func (m *metadataClient) GetChildren(ctx context.Context, parentStoreID, parentVersion string) ([]corpus.SnapshotMeta, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return m.inner.GetChildren(ctx, parentStoreID, parentVersion)
}

func (m *metadataClient) FindByHash(ctx context.Context, storeID, contentHash string) (corpus.SnapshotMeta, bool, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return corpus.SnapshotMeta{}, false, err
	}
	return m.inner.FindByHash(ctx, storeID, contentHash)
}

type dataClient struct {
	inner   corpus.DataClient
	limiter *rate.Limiter
}

func (d *dataClient) Get(ctx context.Context, dataKey string) (corpus.DataHandle, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.inner.Get(ctx, dataKey)
}

func (d *dataClient) Put(ctx context.Context, dataKey string, data []byte) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.Put(ctx, dataKey, data)
}

func (d *dataClient) PutStream(ctx context.Context, dataKey string, r io.Reader) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.PutStream(ctx, dataKey, r)
}

func (d *dataClient) Delete(ctx context.Context, dataKey string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.inner.Delete(ctx, dataKey)
}

func (d *dataClient) Exists(ctx context.Context, dataKey string) (bool, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return d.inner.Exists(ctx, dataKey)
}
