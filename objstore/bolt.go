package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/f0rbit/corpus"
)

var bucketObjects = []byte("objects")

// Bolt is a bbolt-backed Store keeping every blob in a single bucket.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bbolt database at path. Parent
// directories are created automatically.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketObjects)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating objects bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the database.
func (s *Bolt) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Bolt) Path() string {
	return s.db.Path()
}

func (s *Bolt) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketObjects).Get([]byte(key))
		if v == nil {
			return nil
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "objstore.get", err)
	}
	if out == nil {
		return nil, corpus.Errorf(corpus.KindNotFound, "objstore.get", "object %q", key)
	}
	return out, nil
}

func (s *Bolt) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketObjects).Put([]byte(key), data)
	})
	return corpus.WrapErr(corpus.KindStorage, "objstore.put", err)
}

func (s *Bolt) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketObjects).Delete([]byte(key))
	})
	return corpus.WrapErr(corpus.KindStorage, "objstore.delete", err)
}

func (s *Bolt) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketObjects).Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		return false, corpus.WrapErr(corpus.KindStorage, "objstore.exists", err)
	}
	return found, nil
}
