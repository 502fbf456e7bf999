package layered

import (
	"context"

	"github.com/f0rbit/corpus"
)

type metadataClient struct {
	b *Backend
}

func (m *metadataClient) Get(ctx context.Context, storeID, version string) (corpus.SnapshotMeta, error) {
	for _, be := range m.b.read {
		meta, err := be.Metadata().Get(ctx, storeID, version)
		if err == nil {
			return meta, nil
		}
		if !corpus.IsNotFound(err) {
			return corpus.SnapshotMeta{}, err
		}
	}
	return corpus.SnapshotMeta{}, notFound("metadata.get", "%s@%s", storeID, version)
}

func (m *metadataClient) Put(ctx context.Context, meta corpus.SnapshotMeta) error {
	for _, be := range m.b.write {
		if err := be.Metadata().Put(ctx, meta); err != nil {
			return err
		}
	}
	return nil
}

func (m *metadataClient) Delete(ctx context.Context, storeID, version string) error {
	for _, be := range m.b.write {
		if err := be.Metadata().Delete(ctx, storeID, version); err != nil && !corpus.IsNotFound(err) {
			return err
		}
	}
	return nil
}

func (m *metadataClient) List(ctx context.Context, storeID string, opts corpus.ListOptions) ([]corpus.SnapshotMeta, error) {
	if m.b.strategy == ListFirst {
		if len(m.b.read) == 0 {
			return nil, nil
		}
		return m.b.read[0].Metadata().List(ctx, storeID, opts)
	}

	// Merge: gather everything, dedup by version with the earliest read
	// layer winning, then re-filter so ordering and limit hold globally.
	gatherOpts := opts
	gatherOpts.Limit = nil
	seen := make(map[string]bool)
	var merged []corpus.SnapshotMeta
	for _, be := range m.b.read {
		metas, err := be.Metadata().List(ctx, storeID, gatherOpts)
		if err != nil {
			if corpus.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		for _, meta := range metas {
			if seen[meta.Version] {
				continue
			}
			seen[meta.Version] = true
			merged = append(merged, meta)
		}
	}
	return corpus.ApplyListOptions(merged, corpus.ListOptions{Limit: opts.Limit}), nil
}

func (m *metadataClient) GetLatest(ctx context.Context, storeID string) (corpus.SnapshotMeta, error) {
	var best corpus.SnapshotMeta
	found := false
	for _, be := range m.b.read {
		meta, err := be.Metadata().GetLatest(ctx, storeID)
		if err != nil {
			if corpus.IsNotFound(err) {
				continue
			}
			return corpus.SnapshotMeta{}, err
		}
		if !found || corpus.MetaLess(meta, best) {
			best = meta
			found = true
		}
	}
	if !found {
		return corpus.SnapshotMeta{}, notFound("metadata.get_latest", "%s is empty", storeID)
	}
	return best, nil
}

func (m *metadataClient) GetChildren(ctx context.Context, parentStoreID, parentVersion string) ([]corpus.SnapshotMeta, error) {
	type key struct{ store, version string }
	seen := make(map[key]bool)
	var merged []corpus.SnapshotMeta
	for _, be := range m.b.read {
		metas, err := be.Metadata().GetChildren(ctx, parentStoreID, parentVersion)
		if err != nil {
			if corpus.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		for _, meta := range metas {
			k := key{meta.StoreID, meta.Version}
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, meta)
		}
	}
	return corpus.ApplyListOptions(merged, corpus.ListOptions{}), nil
}

func (m *metadataClient) FindByHash(ctx context.Context, storeID, contentHash string) (corpus.SnapshotMeta, bool, error) {
	for _, be := range m.b.read {
		meta, ok, err := be.Metadata().FindByHash(ctx, storeID, contentHash)
		if err != nil {
			if corpus.IsNotFound(err) {
				continue
			}
			return corpus.SnapshotMeta{}, false, err
		}
		if ok {
			return meta, true, nil
		}
	}
	return corpus.SnapshotMeta{}, false, nil
}
