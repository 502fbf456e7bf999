// Package layered implements the composite backend: an ordered read list
// with fallback semantics and an ordered write list with fanout semantics.
//
// Reads try each backend in order; not_found moves on to the next, any
// other error short-circuits. Writes hit every backend in order and stop at
// the first failure. Deletes tolerate per-backend not_found. Fan-out writes
// run sequentially so the first-error short-circuit stays well defined.
package layered

import (
	"github.com/f0rbit/corpus"
)

// ListStrategy selects how List combines results across read backends.
type ListStrategy string

const (
	// ListMerge gathers from every read backend, deduplicates by version
	// (first occurrence wins), re-sorts, and applies the limit.
	ListMerge ListStrategy = "merge"
	// ListFirst yields only from the first read backend, deferring the
	// limit to that backend's own listing.
	ListFirst ListStrategy = "first"
)

// Config orders the underlying backends. The same backend may appear in
// both lists. An empty read list makes every read a not_found; an empty
// write list makes every write a no-op success.
type Config struct {
	Read  []corpus.Backend
	Write []corpus.Backend
	List  ListStrategy // defaults to ListMerge
}

// Backend is the composite.
type Backend struct {
	read     []corpus.Backend
	write    []corpus.Backend
	strategy ListStrategy
}

// New builds the composite from cfg.
func New(cfg Config) *Backend {
	strategy := cfg.List
	if strategy == "" {
		strategy = ListMerge
	}
	return &Backend{read: cfg.Read, write: cfg.Write, strategy: strategy}
}

func (b *Backend) Metadata() corpus.MetadataClient { return &metadataClient{b} }

func (b *Backend) Data() corpus.DataClient { return &dataClient{b} }

// Observations returns the routing adapter, or nil when no underlying
// layer exposes observations.
func (b *Backend) Observations() corpus.ObservationsAdapter {
	supported := false
	for _, be := range append(append([]corpus.Backend{}, b.read...), b.write...) {
		if be.Observations() != nil {
			supported = true
			break
		}
	}
	if !supported {
		return nil
	}
	return &obsAdapter{b}
}

// notFound is the terminal miss after every read layer came up empty.
func notFound(op, format string, args ...any) error {
	return corpus.Errorf(corpus.KindNotFound, op, format, args...)
}
