// Package local implements the filesystem backend. Layout under the base
// directory:
//
//	<base>/<store_id>/_meta.json       — JSON array of [version, meta] pairs
//	<base>/_data/<escaped_data_key>.bin — raw bytes; "/" in keys becomes "_"
//	<base>/_observations.json          — JSON array of observation rows
//
// Files are rewritten whole through a temp file and rename. Writes and the
// metadata and observation reads are serialized behind one mutex; blob reads
// (data Get and Exists) take no lock. This backend favors obviousness over
// throughput.
package local

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/f0rbit/corpus"
)

const (
	metaFile = "_meta.json"
	dataDir  = "_data"
	obsFile  = "_observations.json"
)

// Backend stores everything under a base directory.
type Backend struct {
	mu   sync.Mutex
	base string
}

// New creates the backend rooted at base, creating the directory if needed.
func New(base string) (*Backend, error) {
	if err := os.MkdirAll(base, 0700); err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "local.new", err)
	}
	return &Backend{base: base}, nil
}

func (b *Backend) Metadata() corpus.MetadataClient          { return (*metadataClient)(b) }
func (b *Backend) Data() corpus.DataClient                  { return (*dataClient)(b) }
func (b *Backend) Observations() corpus.ObservationsAdapter { return (*obsAdapter)(b) }

// escapeDataKey flattens a data key into a filename.
func escapeDataKey(key string) string {
	return strings.ReplaceAll(key, "/", "_") + ".bin"
}

// writeFileAtomic writes data via a temp file and rename so readers never
// observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// metaPair serializes as the two-element array [version, meta].
type metaPair struct {
	Version string
	Meta    corpus.SnapshotMeta
}

func (p metaPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Version, p.Meta})
}

func (p *metaPair) UnmarshalJSON(b []byte) error {
	var arr [2]json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	if err := json.Unmarshal(arr[0], &p.Version); err != nil {
		return err
	}
	return json.Unmarshal(arr[1], &p.Meta)
}
