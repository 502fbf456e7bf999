package corpus

import (
	"context"
	"time"
)

// StoreConfig tunes one Store. The zero value (or nil) selects the defaults:
// process-wide version generator, wall clock, DefaultDataKey, no events.
type StoreConfig struct {
	OnEvent  EventHook
	DataKey  DataKeyFunc
	Versions *VersionGenerator
	Clock    func() time.Time
}

// Store is the snapshot engine for one logical store: it orchestrates
// encode → hash → dedup check → data put → metadata put on the way in, and
// metadata get → data get → decode on the way out.
type Store[T any] struct {
	id       string
	codec    Codec[T]
	backend  Backend
	hook     EventHook
	dataKey  DataKeyFunc
	versions *VersionGenerator
	now      func() time.Time
}

// NewStore builds the engine for storeID over backend with the given codec.
func NewStore[T any](backend Backend, storeID string, c Codec[T], cfg *StoreConfig) *Store[T] {
	s := &Store[T]{
		id:       storeID,
		codec:    c,
		backend:  backend,
		dataKey:  DefaultDataKey,
		versions: defaultVersions,
		now:      time.Now,
	}
	if cfg != nil {
		if cfg.OnEvent != nil {
			s.hook = cfg.OnEvent
		}
		if cfg.DataKey != nil {
			s.dataKey = cfg.DataKey
		}
		if cfg.Versions != nil {
			s.versions = cfg.Versions
		}
		if cfg.Clock != nil {
			s.now = cfg.Clock
		}
	}
	return s
}

// ID returns the store identifier.
func (s *Store[T]) ID() string { return s.id }

func (s *Store[T]) fail(err error) error {
	s.hook.emit(Event{Type: EventError, StoreID: s.id, Err: err})
	return err
}

// Put encodes data, deduplicates it against existing content in the store,
// writes the blob if it is new, and records a fresh metadata row. The data
// write strictly precedes the metadata write: a metadata row always has a
// dereferenceable data_key, while a crash in between may leave an orphaned
// blob, which is accepted.
func (s *Store[T]) Put(ctx context.Context, data T, opts *PutOptions) (SnapshotMeta, error) {
	version := s.versions.Next()

	encoded, err := s.codec.Encode(data)
	if err != nil {
		return SnapshotMeta{}, s.fail(WrapErr(KindEncode, "snapshot.put", err))
	}
	contentHash := HashBytes(encoded)

	existing, found, err := s.backend.Metadata().FindByHash(ctx, s.id, contentHash)
	if err != nil {
		return SnapshotMeta{}, s.fail(err)
	}

	deduplicated := found
	var dataKey string
	if deduplicated {
		dataKey = existing.DataKey
	} else {
		in := DataKeyInput{StoreID: s.id, Version: version, ContentHash: contentHash}
		if opts != nil {
			in.Tags = opts.Tags
		}
		dataKey = s.dataKey(in)
		if err := s.backend.Data().Put(ctx, dataKey, encoded); err != nil {
			return SnapshotMeta{}, s.fail(err)
		}
	}
	s.hook.emit(Event{Type: EventDataPut, StoreID: s.id, DataKey: dataKey, Deduplicated: deduplicated})

	meta := SnapshotMeta{
		StoreID:     s.id,
		Version:     version,
		ContentHash: contentHash,
		ContentType: s.codec.ContentType(),
		SizeBytes:   int64(len(encoded)),
		DataKey:     dataKey,
		CreatedAt:   s.now(),
	}
	if opts != nil {
		meta.Parents = opts.Parents
		meta.InvokedAt = opts.InvokedAt
		meta.Tags = opts.Tags
	}

	if err := s.backend.Metadata().Put(ctx, meta); err != nil {
		return SnapshotMeta{}, s.fail(err)
	}
	s.hook.emit(Event{
		Type: EventSnapshotPut, StoreID: s.id, Version: version,
		ContentHash: contentHash, Deduplicated: deduplicated,
	})
	return meta, nil
}

// Get fetches one snapshot by version and decodes it.
func (s *Store[T]) Get(ctx context.Context, version string) (Snapshot[T], error) {
	meta, err := s.backend.Metadata().Get(ctx, s.id, version)
	if err != nil {
		if IsNotFound(err) {
			s.hook.emit(Event{Type: EventSnapshotGet, StoreID: s.id, Version: version, Found: false})
			return Snapshot[T]{}, err
		}
		return Snapshot[T]{}, s.fail(err)
	}
	return s.load(ctx, meta)
}

// GetLatest fetches and decodes the newest snapshot of the store.
func (s *Store[T]) GetLatest(ctx context.Context) (Snapshot[T], error) {
	meta, err := s.backend.Metadata().GetLatest(ctx, s.id)
	if err != nil {
		if IsNotFound(err) {
			s.hook.emit(Event{Type: EventSnapshotGet, StoreID: s.id, Found: false})
			return Snapshot[T]{}, err
		}
		return Snapshot[T]{}, s.fail(err)
	}
	return s.load(ctx, meta)
}

func (s *Store[T]) load(ctx context.Context, meta SnapshotMeta) (Snapshot[T], error) {
	handle, err := s.backend.Data().Get(ctx, meta.DataKey)
	if err != nil {
		return Snapshot[T]{}, s.fail(err)
	}
	raw, err := handle.Bytes()
	if err != nil {
		return Snapshot[T]{}, s.fail(WrapErr(KindStorage, "snapshot.get", err))
	}
	data, err := s.codec.Decode(raw)
	if err != nil {
		return Snapshot[T]{}, s.fail(WrapErr(KindDecode, "snapshot.get", err))
	}
	s.hook.emit(Event{
		Type: EventSnapshotGet, StoreID: s.id, Version: meta.Version,
		DataKey: meta.DataKey, Found: true,
	})
	return Snapshot[T]{Meta: meta, Data: data}, nil
}

// GetMeta fetches the metadata row alone, without touching the data store.
func (s *Store[T]) GetMeta(ctx context.Context, version string) (SnapshotMeta, error) {
	meta, err := s.backend.Metadata().Get(ctx, s.id, version)
	if err != nil && !IsNotFound(err) {
		return SnapshotMeta{}, s.fail(err)
	}
	return meta, err
}

// GetValue fetches and decodes a snapshot, returning the payload untyped.
// Pointer resolution uses this shape across stores of different types.
func (s *Store[T]) GetValue(ctx context.Context, version string) (any, error) {
	snap, err := s.Get(ctx, version)
	if err != nil {
		return nil, err
	}
	return any(snap.Data), nil
}

// List returns the store's metadata rows, filtered and bounded by opts.
func (s *Store[T]) List(ctx context.Context, opts ListOptions) ([]SnapshotMeta, error) {
	metas, err := s.backend.Metadata().List(ctx, s.id, opts)
	if err != nil {
		return nil, s.fail(err)
	}
	s.hook.emit(Event{Type: EventMetaList, StoreID: s.id})
	return metas, nil
}

// Children returns every meta (across the backend) whose parents include
// (this store, version).
func (s *Store[T]) Children(ctx context.Context, version string) ([]SnapshotMeta, error) {
	metas, err := s.backend.Metadata().GetChildren(ctx, s.id, version)
	if err != nil {
		return nil, s.fail(err)
	}
	return metas, nil
}

// Delete removes the metadata row for version. The data blob stays: it may
// be shared by other versions, and orphan collection is out of scope.
func (s *Store[T]) Delete(ctx context.Context, version string) error {
	if err := s.backend.Metadata().Delete(ctx, s.id, version); err != nil {
		return s.fail(err)
	}
	s.hook.emit(Event{Type: EventMetaDelete, StoreID: s.id, Version: version})
	return nil
}
