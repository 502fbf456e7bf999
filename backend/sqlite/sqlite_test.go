package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/backend/sqlite"
	"github.com/f0rbit/corpus/objstore"
)

// testBackend opens an in-memory database paired with a memory object store.
func testBackend(t *testing.T) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.Open(":memory:", objstore.NewMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func meta(storeID, version string, created time.Time) corpus.SnapshotMeta {
	return corpus.SnapshotMeta{
		StoreID:     storeID,
		Version:     version,
		ContentHash: corpus.HashBytes([]byte(version)),
		ContentType: "application/json",
		SizeBytes:   10,
		DataKey:     storeID + "/" + version,
		CreatedAt:   created,
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	md := testBackend(t).Metadata()

	invoked := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	m := meta("S", "v1", time.Date(2025, 5, 1, 10, 0, 0, 123456789, time.UTC))
	m.InvokedAt = &invoked
	m.Parents = []corpus.ParentRef{{StoreID: "drafts", Version: "d1", Role: "input"}}
	m.Tags = []string{"a", "b"}

	require.NoError(t, md.Put(ctx, m))

	got, err := md.Get(ctx, "S", "v1")
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(m.CreatedAt), "created_at: %v vs %v", got.CreatedAt, m.CreatedAt)
	require.NotNil(t, got.InvokedAt)
	require.True(t, got.InvokedAt.Equal(invoked))
	require.Equal(t, m.Parents, got.Parents)
	require.Equal(t, m.Tags, got.Tags)

	_, err = md.Get(ctx, "S", "missing")
	require.True(t, corpus.IsNotFound(err), "got %v", err)
}

func TestMetadataUpsert(t *testing.T) {
	ctx := context.Background()
	md := testBackend(t).Metadata()

	m := meta("S", "v1", time.Now().UTC())
	require.NoError(t, md.Put(ctx, m))
	m.Tags = []string{"revised"}
	require.NoError(t, md.Put(ctx, m))

	got, err := md.Get(ctx, "S", "v1")
	require.NoError(t, err)
	require.Equal(t, []string{"revised"}, got.Tags)
}

func TestMetadataListFilters(t *testing.T) {
	ctx := context.Background()
	md := testBackend(t).Metadata()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	m1 := meta("S", "v1", base)
	m1.Tags = []string{"a"}
	m2 := meta("S", "v2", base.Add(time.Hour))
	m2.Tags = []string{"b"}
	m3 := meta("S", "v3", base.Add(2*time.Hour))
	m3.Tags = []string{"a", "b"}
	for _, m := range []corpus.SnapshotMeta{m1, m2, m3} {
		require.NoError(t, md.Put(ctx, m))
	}

	metas, err := md.List(ctx, "S", corpus.ListOptions{})
	require.NoError(t, err)
	require.Len(t, metas, 3)
	require.Equal(t, "v3", metas[0].Version)

	// Tags AND-match.
	metas, err = md.List(ctx, "S", corpus.ListOptions{Tags: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	require.Equal(t, "v3", metas[0].Version)

	// Tag filter combined with limit.
	metas, err = md.List(ctx, "S", corpus.ListOptions{Tags: []string{"a"}, Limit: corpus.Limit(1)})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	require.Equal(t, "v3", metas[0].Version)

	cut := base.Add(time.Hour)
	metas, err = md.List(ctx, "S", corpus.ListOptions{Before: &cut})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	require.Equal(t, "v1", metas[0].Version)

	metas, err = md.List(ctx, "S", corpus.ListOptions{Limit: corpus.Limit(0)})
	require.NoError(t, err)
	require.Empty(t, metas)
}

func TestMetadataChildrenJSONPredicate(t *testing.T) {
	ctx := context.Background()
	md := testBackend(t).Metadata()
	now := time.Now().UTC()

	require.NoError(t, md.Put(ctx, meta("S", "v1", now)))

	child := meta("T", "w1", now.Add(time.Second))
	child.Parents = []corpus.ParentRef{
		{StoreID: "S", Version: "v1", Role: "input"},
		{StoreID: "S", Version: "v0"},
	}
	require.NoError(t, md.Put(ctx, child))

	decoy := meta("T", "w2", now.Add(2*time.Second))
	decoy.Parents = []corpus.ParentRef{{StoreID: "other", Version: "v1"}}
	require.NoError(t, md.Put(ctx, decoy))

	children, err := md.GetChildren(ctx, "S", "v1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "w1", children[0].Version)

	children, err = md.GetChildren(ctx, "S", "v0")
	require.NoError(t, err)
	require.Len(t, children, 1)
}

func TestMetadataFindByHashAndLatest(t *testing.T) {
	ctx := context.Background()
	md := testBackend(t).Metadata()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	m1 := meta("S", "v1", base)
	m2 := meta("S", "v2", base.Add(time.Minute))
	require.NoError(t, md.Put(ctx, m1))
	require.NoError(t, md.Put(ctx, m2))

	got, ok, err := md.FindByHash(ctx, "S", m1.ContentHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", got.Version)

	_, ok, err = md.FindByHash(ctx, "S", "nope")
	require.NoError(t, err)
	require.False(t, ok)

	latest, err := md.GetLatest(ctx, "S")
	require.NoError(t, err)
	require.Equal(t, "v2", latest.Version)

	_, err = md.GetLatest(ctx, "empty")
	require.True(t, corpus.IsNotFound(err))
}

func TestDataThroughObjectStore(t *testing.T) {
	ctx := context.Background()
	objects := objstore.NewMemory()
	b, err := sqlite.Open(":memory:", objects)
	require.NoError(t, err)
	defer b.Close()

	data := b.Data()
	require.NoError(t, data.Put(ctx, "S/abc", []byte("payload")))

	// The blob physically lives in the object store.
	raw, err := objects.Get(ctx, "S/abc")
	require.NoError(t, err)
	require.Equal(t, "payload", string(raw))

	h, err := data.Get(ctx, "S/abc")
	require.NoError(t, err)
	got, err := h.Bytes()
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))

	ok, err := data.Exists(ctx, "S/abc")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = data.Get(ctx, "missing")
	require.True(t, corpus.IsNotFound(err))
}

func obsRow(id, typ, store, version string, created time.Time) corpus.ObservationRow {
	return corpus.ObservationRow{
		ID:            id,
		Type:          typ,
		SourceStoreID: store,
		SourceVersion: version,
		Content:       json.RawMessage(`{"v": 1}`),
		CreatedAt:     created,
	}
}

func TestObservationsNativeQuery(t *testing.T) {
	ctx := context.Background()
	adapter := testBackend(t).Observations()
	querier, ok := adapter.(corpus.ObservationQuerier)
	require.True(t, ok, "sqlite adapter must expose the optimized query")

	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	observed := base.Add(30 * time.Minute)

	r1 := obsRow("obs_1", "sentiment", "S", "v1", base)
	r2 := obsRow("obs_2", "sentiment", "S", "v2", base.Add(time.Hour))
	r2.ObservedAt = &observed
	r3 := obsRow("obs_3", "entity", "T", "v1", base.Add(2*time.Hour))
	for _, r := range []corpus.ObservationRow{r1, r2, r3} {
		require.NoError(t, adapter.AddOne(ctx, r))
	}

	rows, err := querier.QueryRows(ctx, corpus.ObservationQuery{Type: "sentiment"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "obs_2", rows[0].ID, "created_at descending")

	rows, err = querier.QueryRows(ctx, corpus.ObservationQuery{SourceStore: "S", SourceVersion: "v2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "obs_2", rows[0].ID)

	rows, err = querier.QueryRows(ctx, corpus.ObservationQuery{SourcePrefix: "v"})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// observed_at bounds exclude rows without observed_at.
	rows, err = querier.QueryRows(ctx, corpus.ObservationQuery{ObservedAfter: &base})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "obs_2", rows[0].ID)

	cut := base.Add(90 * time.Minute)
	rows, err = querier.QueryRows(ctx, corpus.ObservationQuery{CreatedBefore: &cut})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = querier.QueryRows(ctx, corpus.ObservationQuery{Types: []string{"sentiment", "entity"}, Limit: corpus.Limit(2)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestObservationsRoundTripFields(t *testing.T) {
	ctx := context.Background()
	adapter := testBackend(t).Observations()

	conf := 0.87
	observed := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	row := corpus.ObservationRow{
		ID:            "obs_full",
		Type:          "sentiment",
		SourceStoreID: "S",
		SourceVersion: "v1",
		SourcePath:    "$.speeches[0].text",
		SourceSpan:    &corpus.Span{Start: 0, End: 5},
		Content:       json.RawMessage(`{"score": 0.9}`),
		Confidence:    &conf,
		ObservedAt:    &observed,
		CreatedAt:     time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		DerivedFrom:   []corpus.SnapshotPointer{{StoreID: "T", Version: "w1"}},
	}
	require.NoError(t, adapter.AddOne(ctx, row))

	got, err := adapter.GetOne(ctx, "obs_full")
	require.NoError(t, err)
	require.Equal(t, row.SourcePath, got.SourcePath)
	require.Equal(t, row.SourceSpan, got.SourceSpan)
	require.Equal(t, *row.Confidence, *got.Confidence)
	require.True(t, got.ObservedAt.Equal(observed))
	require.JSONEq(t, string(row.Content), string(got.Content))
	require.Equal(t, row.DerivedFrom, got.DerivedFrom)

	require.NoError(t, adapter.AddOne(ctx, obsRow("obs_other", "x", "S", "v1", time.Now().UTC())))
	err = adapter.AddOne(ctx, obsRow("obs_full", "x", "S", "v1", time.Now().UTC()))
	require.Equal(t, corpus.KindAlreadyExists, corpus.KindOf(err))
}

func TestObservationsDeleteBySource(t *testing.T) {
	ctx := context.Background()
	adapter := testBackend(t).Observations()
	deleter, ok := adapter.(corpus.ObservationSourceDeleter)
	require.True(t, ok, "sqlite adapter must expose the optimized delete")

	now := time.Now().UTC()
	r1 := obsRow("obs_1", "t", "S", "v1", now)
	r2 := obsRow("obs_2", "t", "S", "v1", now)
	r2.SourcePath = "$.text"
	r3 := obsRow("obs_3", "t", "S", "v2", now)
	for _, r := range []corpus.ObservationRow{r1, r2, r3} {
		require.NoError(t, adapter.AddOne(ctx, r))
	}

	// With a path: only the exact path match goes.
	path := "$.text"
	n, err := deleter.DeleteBySource(ctx, "S", "v1", &path)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Without a path: everything left on (S, v1) goes.
	n, err = deleter.DeleteBySource(ctx, "S", "v1", nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := adapter.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "obs_3", rows[0].ID)
}

func TestFileBackedDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.db")

	b, err := sqlite.Open(path, objstore.NewMemory())
	require.NoError(t, err)
	require.NoError(t, b.Metadata().Put(ctx, meta("S", "v1", time.Now().UTC())))
	require.NoError(t, b.Close())

	b2, err := sqlite.Open(path, objstore.NewMemory())
	require.NoError(t, err)
	defer b2.Close()
	got, err := b2.Metadata().Get(ctx, "S", "v1")
	require.NoError(t, err)
	require.Equal(t, "v1", got.Version)
}
