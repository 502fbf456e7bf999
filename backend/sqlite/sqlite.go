// Package sqlite implements the embedded-SQL backend: snapshot metadata and
// observation rows live in SQLite tables, data blobs live in an opaque
// object store. Uses ncruces/go-sqlite3, which provides a database/sql
// driver over an embedded (wasm) SQLite build — no cgo.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/objstore"
)

// timeLayout is a fixed-width RFC 3339 form so that string comparison in SQL
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

const schema = `
CREATE TABLE IF NOT EXISTS corpus_snapshots (
    store_id     TEXT NOT NULL,
    version      TEXT NOT NULL,
    parents      TEXT,
    created_at   TEXT NOT NULL,
    invoked_at   TEXT,
    content_hash TEXT NOT NULL,
    content_type TEXT NOT NULL,
    size_bytes   INTEGER NOT NULL,
    data_key     TEXT NOT NULL,
    tags         TEXT,
    PRIMARY KEY (store_id, version)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_store_created ON corpus_snapshots(store_id, created_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_store_hash    ON corpus_snapshots(store_id, content_hash);
CREATE INDEX IF NOT EXISTS idx_snapshots_data_key      ON corpus_snapshots(data_key);

CREATE TABLE IF NOT EXISTS corpus_observations (
    id                TEXT PRIMARY KEY,
    type              TEXT NOT NULL,
    source_store_id   TEXT NOT NULL,
    source_version    TEXT NOT NULL,
    source_path       TEXT,
    source_span_start INTEGER,
    source_span_end   INTEGER,
    content           TEXT NOT NULL,
    confidence        REAL,
    observed_at       TEXT,
    created_at        TEXT NOT NULL,
    derived_from      TEXT
);

CREATE INDEX IF NOT EXISTS idx_observations_type         ON corpus_observations(type);
CREATE INDEX IF NOT EXISTS idx_observations_source       ON corpus_observations(source_store_id, source_version);
CREATE INDEX IF NOT EXISTS idx_observations_type_obs     ON corpus_observations(type, observed_at);
CREATE INDEX IF NOT EXISTS idx_observations_type_store   ON corpus_observations(type, source_store_id);
`

// Backend is the embedded-SQL backend.
type Backend struct {
	db      *sql.DB
	objects objstore.Store
}

// Open opens (or creates) the SQLite database at path and pairs it with the
// given object store for blob data. Pass ":memory:" for an in-memory
// database.
func Open(path string, objects objstore.Store) (*Backend, error) {
	dsn := "file:" + path
	if path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}
	// The embedded driver serializes access per connection; a single
	// connection keeps in-memory databases coherent too.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Backend{db: db, objects: objects}, nil
}

// Close closes the database. The object store is owned by the caller.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) Metadata() corpus.MetadataClient { return &metadataClient{db: b.db} }

func (b *Backend) Data() corpus.DataClient { return &dataClient{objects: b.objects} }

func (b *Backend) Observations() corpus.ObservationsAdapter { return &obsAdapter{db: b.db} }
