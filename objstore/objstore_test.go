package objstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/objstore"
)

// exerciseStore runs the contract every object store must satisfy.
func exerciseStore(t *testing.T, s objstore.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !corpus.IsNotFound(err) {
		t.Fatalf("get missing: got %v, want not_found", err)
	}
	if ok, err := s.Exists(ctx, "missing"); err != nil || ok {
		t.Fatalf("exists missing: %v, %v", ok, err)
	}

	if err := s.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Idempotent re-put of the same key.
	if err := s.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("get: %q, %v", got, err)
	}
	if ok, _ := s.Exists(ctx, "k"); !ok {
		t.Fatal("exists after put = false")
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Idempotent delete.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !corpus.IsNotFound(err) {
		t.Fatalf("get after delete: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, objstore.NewMemory())
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	s := objstore.NewMemory()
	src := []byte("abc")
	if err := s.Put(ctx, "k", src); err != nil {
		t.Fatalf("put: %v", err)
	}
	src[0] = 'X'
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("stored bytes aliased caller slice: %q", got)
	}
}

// testBolt opens a fresh bbolt store in t.TempDir(), closed on cleanup.
func testBolt(t *testing.T) *objstore.Bolt {
	t.Helper()
	s, err := objstore.OpenBolt(filepath.Join(t.TempDir(), "objects.db"))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBoltStore(t *testing.T) {
	exerciseStore(t, testBolt(t))
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "objects.db")

	s, err := objstore.OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	if err := s.Put(ctx, "k", []byte("persisted")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := objstore.OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, "k")
	if err != nil || string(got) != "persisted" {
		t.Fatalf("get after reopen: %q, %v", got, err)
	}
}
