package memory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/backend/memory"
)

func makeMeta(storeID, version string, created time.Time, tags ...string) corpus.SnapshotMeta {
	return corpus.SnapshotMeta{
		StoreID:     storeID,
		Version:     version,
		ContentHash: corpus.HashBytes([]byte(version)),
		ContentType: "application/json",
		SizeBytes:   int64(len(version)),
		DataKey:     storeID + "/" + version,
		CreatedAt:   created,
		Tags:        tags,
	}
}

func TestMetadataGetPutDelete(t *testing.T) {
	ctx := context.Background()
	md := memory.New().Metadata()
	now := time.Now()

	if _, err := md.Get(ctx, "S", "v1"); !corpus.IsNotFound(err) {
		t.Fatalf("get missing: %v", err)
	}

	meta := makeMeta("S", "v1", now)
	if err := md.Put(ctx, meta); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := md.Get(ctx, "S", "v1")
	if err != nil || got.Version != "v1" {
		t.Fatalf("get: %+v, %v", got, err)
	}

	// Upsert replaces the row.
	meta.Tags = []string{"revised"}
	if err := md.Put(ctx, meta); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	got, _ = md.Get(ctx, "S", "v1")
	if len(got.Tags) != 1 || got.Tags[0] != "revised" {
		t.Errorf("upsert did not replace: %+v", got)
	}

	if err := md.Delete(ctx, "S", "v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := md.Get(ctx, "S", "v1"); !corpus.IsNotFound(err) {
		t.Fatalf("get after delete: %v", err)
	}
	// Idempotent delete.
	if err := md.Delete(ctx, "S", "v1"); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}

func TestMetadataListOrderingAndBounds(t *testing.T) {
	ctx := context.Background()
	md := memory.New().Metadata()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, v := range []string{"v1", "v2", "v3"} {
		if err := md.Put(ctx, makeMeta("S", v, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("put %s: %v", v, err)
		}
	}

	metas, err := md.List(ctx, "S", corpus.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 3 || metas[0].Version != "v3" || metas[2].Version != "v1" {
		t.Fatalf("ordering: %+v", metas)
	}

	cut := base.Add(time.Hour)
	metas, _ = md.List(ctx, "S", corpus.ListOptions{Before: &cut})
	if len(metas) != 1 || metas[0].Version != "v1" {
		t.Errorf("strict before: %+v", metas)
	}
	metas, _ = md.List(ctx, "S", corpus.ListOptions{After: &cut})
	if len(metas) != 1 || metas[0].Version != "v3" {
		t.Errorf("strict after: %+v", metas)
	}
	metas, _ = md.List(ctx, "S", corpus.ListOptions{Limit: corpus.Limit(2)})
	if len(metas) != 2 {
		t.Errorf("limit: %+v", metas)
	}
}

func TestMetadataListTieBreakByVersion(t *testing.T) {
	ctx := context.Background()
	md := memory.New().Metadata()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, v := range []string{"a", "c", "b"} {
		if err := md.Put(ctx, makeMeta("S", v, now)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	metas, err := md.List(ctx, "S", corpus.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if metas[0].Version != "c" || metas[1].Version != "b" || metas[2].Version != "a" {
		t.Errorf("tie break: %+v", metas)
	}
}

func TestMetadataGetLatest(t *testing.T) {
	ctx := context.Background()
	md := memory.New().Metadata()
	if _, err := md.GetLatest(ctx, "S"); !corpus.IsNotFound(err) {
		t.Fatalf("empty: %v", err)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	md.Put(ctx, makeMeta("S", "v1", base))
	md.Put(ctx, makeMeta("S", "v2", base.Add(time.Minute)))

	latest, err := md.GetLatest(ctx, "S")
	if err != nil || latest.Version != "v2" {
		t.Fatalf("latest: %+v, %v", latest, err)
	}
}

func TestMetadataChildrenAcrossStores(t *testing.T) {
	ctx := context.Background()
	md := memory.New().Metadata()
	now := time.Now()

	parent := makeMeta("S", "v1", now)
	md.Put(ctx, parent)

	child := makeMeta("T", "w1", now.Add(time.Second))
	child.Parents = []corpus.ParentRef{{StoreID: "S", Version: "v1", Role: "input"}}
	md.Put(ctx, child)

	unrelated := makeMeta("T", "w2", now.Add(2*time.Second))
	unrelated.Parents = []corpus.ParentRef{{StoreID: "S", Version: "other"}}
	md.Put(ctx, unrelated)

	children, err := md.GetChildren(ctx, "S", "v1")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 1 || children[0].Version != "w1" {
		t.Fatalf("children: %+v", children)
	}
}

func TestMetadataFindByHash(t *testing.T) {
	ctx := context.Background()
	md := memory.New().Metadata()
	meta := makeMeta("S", "v1", time.Now())
	md.Put(ctx, meta)

	got, ok, err := md.FindByHash(ctx, "S", meta.ContentHash)
	if err != nil || !ok || got.Version != "v1" {
		t.Fatalf("find: %+v, %v, %v", got, ok, err)
	}
	_, ok, err = md.FindByHash(ctx, "S", "deadbeef")
	if err != nil || ok {
		t.Fatalf("find miss: %v, %v", ok, err)
	}
	// Same hash, different store: no match.
	_, ok, _ = md.FindByHash(ctx, "other", meta.ContentHash)
	if ok {
		t.Error("hash matched across stores")
	}
}

func TestDataPutGetStream(t *testing.T) {
	ctx := context.Background()
	data := memory.New().Data()

	if err := data.Put(ctx, "k", []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}
	h, err := data.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, err := h.Bytes()
	if err != nil || string(b) != "hello" {
		t.Fatalf("bytes: %q, %v", b, err)
	}
	r, err := h.Reader()
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil || buf.String() != "hello" {
		t.Fatalf("stream read: %q, %v", buf.String(), err)
	}

	if err := data.PutStream(ctx, "k2", bytes.NewReader([]byte("streamed"))); err != nil {
		t.Fatalf("put stream: %v", err)
	}
	h2, _ := data.Get(ctx, "k2")
	b2, _ := h2.Bytes()
	if string(b2) != "streamed" {
		t.Errorf("streamed bytes: %q", b2)
	}

	ok, _ := data.Exists(ctx, "k")
	if !ok {
		t.Error("exists = false")
	}
	if err := data.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := data.Get(ctx, "k"); !corpus.IsNotFound(err) {
		t.Fatalf("get after delete: %v", err)
	}
}

func TestObservationsAdapter(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New().Observations()

	row := corpus.ObservationRow{
		ID:            "obs_1",
		Type:          "sentiment",
		SourceStoreID: "S",
		SourceVersion: "v1",
		Content:       json.RawMessage(`{"score": 0.5}`),
		CreatedAt:     time.Now(),
	}
	if err := adapter.AddOne(ctx, row); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := adapter.AddOne(ctx, row); corpus.KindOf(err) != corpus.KindAlreadyExists {
		t.Fatalf("duplicate add: %v", err)
	}

	got, err := adapter.GetOne(ctx, "obs_1")
	if err != nil || got.Type != "sentiment" {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if _, err := adapter.GetOne(ctx, "nope"); !corpus.IsObservationNotFound(err) {
		t.Fatalf("get missing: %v", err)
	}

	all, err := adapter.GetAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("get all: %v, %v", all, err)
	}

	removed, err := adapter.RemoveOne(ctx, "obs_1")
	if err != nil || !removed {
		t.Fatalf("remove: %v, %v", removed, err)
	}
	removed, err = adapter.RemoveOne(ctx, "obs_1")
	if err != nil || removed {
		t.Fatalf("remove missing: %v, %v", removed, err)
	}

	if err := adapter.SetAll(ctx, []corpus.ObservationRow{row}); err != nil {
		t.Fatalf("set all: %v", err)
	}
	all, _ = adapter.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("after set all: %v", all)
	}
}
