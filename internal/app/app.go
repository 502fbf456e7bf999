// Package app wires configuration into a constructed backend and corpus
// handle that commands receive at runtime.
package app

import (
	"fmt"
	"path/filepath"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/backend/local"
	"github.com/f0rbit/corpus/backend/memory"
	"github.com/f0rbit/corpus/backend/sqlite"
	"github.com/f0rbit/corpus/backend/throttle"
	"github.com/f0rbit/corpus/internal/config"
	"github.com/f0rbit/corpus/objstore"
)

// Deps holds all runtime dependencies injected into command Run functions.
type Deps struct {
	Config *config.Config
	Corpus *corpus.Corpus

	closers []func() error
}

// New builds a Deps from resolved config: construct the configured backend,
// optionally rate-limit it, and build the corpus handle.
func New(cfg *config.Config) (*Deps, error) {
	d := &Deps{Config: cfg}

	var backend corpus.Backend
	switch cfg.Backend {
	case config.BackendMemory:
		backend = memory.New()
	case config.BackendLocal:
		b, err := local.New(cfg.Base)
		if err != nil {
			return nil, fmt.Errorf("opening local backend at %s: %w", cfg.Base, err)
		}
		backend = b
	case config.BackendSQLite:
		objects, err := objstore.OpenBolt(filepath.Join(filepath.Dir(cfg.DBPath), "objects.db"))
		if err != nil {
			return nil, fmt.Errorf("opening object store: %w", err)
		}
		d.closers = append(d.closers, objects.Close)
		b, err := sqlite.Open(cfg.DBPath, objects)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("opening sqlite backend at %s: %w", cfg.DBPath, err)
		}
		d.closers = append(d.closers, b.Close)
		backend = b
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.Rate > 0 {
		backend = throttle.New(backend, cfg.Rate)
	}

	c, err := corpus.New().WithBackend(backend).Build()
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Corpus = c
	return d, nil
}

// Close releases backend resources in reverse open order.
func (d *Deps) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
