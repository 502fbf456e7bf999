package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/f0rbit/corpus"
)

type metadataClient Backend

func (m *metadataClient) storeDir(storeID string) string {
	return filepath.Join(m.base, storeID)
}

// readStore loads a store's metadata file. A missing file is an empty store.
func (m *metadataClient) readStore(storeID string) ([]metaPair, error) {
	raw, err := os.ReadFile(filepath.Join(m.storeDir(storeID), metaFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "metadata.read", err)
	}
	var pairs []metaPair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "metadata.read", err)
	}
	return pairs, nil
}

func (m *metadataClient) writeStore(storeID string, pairs []metaPair) error {
	dir := m.storeDir(storeID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return corpus.WrapErr(corpus.KindStorage, "metadata.write", err)
	}
	if pairs == nil {
		pairs = []metaPair{}
	}
	raw, err := json.Marshal(pairs)
	if err != nil {
		return corpus.WrapErr(corpus.KindStorage, "metadata.write", err)
	}
	return corpus.WrapErr(corpus.KindStorage, "metadata.write", writeFileAtomic(filepath.Join(dir, metaFile), raw))
}

func (m *metadataClient) Get(ctx context.Context, storeID, version string) (corpus.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return corpus.SnapshotMeta{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pairs, err := m.readStore(storeID)
	if err != nil {
		return corpus.SnapshotMeta{}, err
	}
	for _, p := range pairs {
		if p.Version == version {
			return p.Meta, nil
		}
	}
	return corpus.SnapshotMeta{}, corpus.Errorf(corpus.KindNotFound, "metadata.get", "%s@%s", storeID, version)
}

func (m *metadataClient) Put(ctx context.Context, meta corpus.SnapshotMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pairs, err := m.readStore(meta.StoreID)
	if err != nil {
		return err
	}
	replaced := false
	for i, p := range pairs {
		if p.Version == meta.Version {
			pairs[i].Meta = meta
			replaced = true
			break
		}
	}
	if !replaced {
		pairs = append(pairs, metaPair{Version: meta.Version, Meta: meta})
	}
	return m.writeStore(meta.StoreID, pairs)
}

func (m *metadataClient) Delete(ctx context.Context, storeID, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pairs, err := m.readStore(storeID)
	if err != nil {
		return err
	}
	kept := pairs[:0]
	removed := false
	for _, p := range pairs {
		if p.Version == version {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		return nil
	}
	return m.writeStore(storeID, kept)
}

func (m *metadataClient) List(ctx context.Context, storeID string, opts corpus.ListOptions) ([]corpus.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	pairs, err := m.readStore(storeID)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	metas := make([]corpus.SnapshotMeta, len(pairs))
	for i, p := range pairs {
		metas[i] = p.Meta
	}
	return corpus.ApplyListOptions(metas, opts), nil
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

// storeIDs lists every store directory under base.
func (m *metadataClient) storeIDs() ([]string, error) {
	entries, err := os.ReadDir(m.base)
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "metadata.list", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != dataDir {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

func (m *metadataClient) GetChildren(ctx context.Context, parentStoreID, parentVersion string) ([]corpus.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, err := m.storeIDs()
	if err != nil {
		return nil, err
	}
	var children []corpus.SnapshotMeta
	for _, id := range ids {
		pairs, err := m.readStore(id)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			if p.Meta.HasParent(parentStoreID, parentVersion) {
				children = append(children, p.Meta)
			}
		}
	}
	return corpus.ApplyListOptions(children, corpus.ListOptions{}), nil
}

func (m *metadataClient) FindByHash(ctx context.Context, storeID, contentHash string) (corpus.SnapshotMeta, bool, error) {
	if err := ctx.Err(); err != nil {
		return corpus.SnapshotMeta{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pairs, err := m.readStore(storeID)
	if err != nil {
		return corpus.SnapshotMeta{}, false, err
	}
	for _, p := range pairs {
		if p.Meta.ContentHash == contentHash {
			return p.Meta, true, nil
		}
	}
	return corpus.SnapshotMeta{}, false, nil
}
