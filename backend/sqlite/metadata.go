package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/f0rbit/corpus"
)

type metadataClient struct {
	db *sql.DB
}

const metaColumns = "store_id, version, parents, created_at, invoked_at, content_hash, content_type, size_bytes, data_key, tags"

func scanMeta(row interface{ Scan(...any) error }) (corpus.SnapshotMeta, error) {
	var (
		m         corpus.SnapshotMeta
		parents   sql.NullString
		createdAt string
		invokedAt sql.NullString
		tags      sql.NullString
	)
	err := row.Scan(&m.StoreID, &m.Version, &parents, &createdAt, &invokedAt,
		&m.ContentHash, &m.ContentType, &m.SizeBytes, &m.DataKey, &tags)
	if err != nil {
		return corpus.SnapshotMeta{}, err
	}
	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return corpus.SnapshotMeta{}, err
	}
	if invokedAt.Valid {
		t, err := parseTime(invokedAt.String)
		if err != nil {
			return corpus.SnapshotMeta{}, err
		}
		m.InvokedAt = &t
	}
	if parents.Valid && parents.String != "" {
		if err := json.Unmarshal([]byte(parents.String), &m.Parents); err != nil {
			return corpus.SnapshotMeta{}, err
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &m.Tags); err != nil {
			return corpus.SnapshotMeta{}, err
		}
	}
	return m, nil
}

func (c *metadataClient) Get(ctx context.Context, storeID, version string) (corpus.SnapshotMeta, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+metaColumns+" FROM corpus_snapshots WHERE store_id = ? AND version = ?",
		storeID, version)
	m, err := scanMeta(row)
	if err == sql.ErrNoRows {
		return corpus.SnapshotMeta{}, corpus.Errorf(corpus.KindNotFound, "metadata.get", "%s@%s", storeID, version)
	}
	if err != nil {
		return corpus.SnapshotMeta{}, corpus.WrapErr(corpus.KindStorage, "metadata.get", err)
	}
	return m, nil
}

func (c *metadataClient) Put(ctx context.Context, meta corpus.SnapshotMeta) error {
	var parents, tags any
	if len(meta.Parents) > 0 {
		b, err := json.Marshal(meta.Parents)
		if err != nil {
			return corpus.WrapErr(corpus.KindStorage, "metadata.put", err)
		}
		parents = string(b)
	}
	if len(meta.Tags) > 0 {
		b, err := json.Marshal(meta.Tags)
		if err != nil {
			return corpus.WrapErr(corpus.KindStorage, "metadata.put", err)
		}
		tags = string(b)
	}
	var invokedAt any
	if meta.InvokedAt != nil {
		invokedAt = formatTime(*meta.InvokedAt)
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO corpus_snapshots (`+metaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (store_id, version) DO UPDATE SET
			parents = excluded.parents,
			created_at = excluded.created_at,
			invoked_at = excluded.invoked_at,
			content_hash = excluded.content_hash,
			content_type = excluded.content_type,
			size_bytes = excluded.size_bytes,
			data_key = excluded.data_key,
			tags = excluded.tags`,
		meta.StoreID, meta.Version, parents, formatTime(meta.CreatedAt), invokedAt,
		meta.ContentHash, meta.ContentType, meta.SizeBytes, meta.DataKey, tags)
	return corpus.WrapErr(corpus.KindStorage, "metadata.put", err)
}

func (c *metadataClient) Delete(ctx context.Context, storeID, version string) error {
	_, err := c.db.ExecContext(ctx,
		"DELETE FROM corpus_snapshots WHERE store_id = ? AND version = ?",
		storeID, version)
	return corpus.WrapErr(corpus.KindStorage, "metadata.delete", err)
}

func (c *metadataClient) List(ctx context.Context, storeID string, opts corpus.ListOptions) ([]corpus.SnapshotMeta, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + metaColumns + " FROM corpus_snapshots WHERE store_id = ?")
	args := []any{storeID}
	if opts.Before != nil {
		sb.WriteString(" AND created_at < ?")
		args = append(args, formatTime(*opts.Before))
	}
	if opts.After != nil {
		sb.WriteString(" AND created_at > ?")
		args = append(args, formatTime(*opts.After))
	}
	sb.WriteString(" ORDER BY created_at DESC, version DESC")
	// The tags predicate is AND-matched in Go; push the limit into SQL only
	// when it cannot cut rows the tag filter would still need to see.
	if opts.Limit != nil && len(opts.Tags) == 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, *opts.Limit)
	}

	rows, err := c.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "metadata.list", err)
	}
	defer rows.Close()

	var metas []corpus.SnapshotMeta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, corpus.WrapErr(corpus.KindStorage, "metadata.list", err)
		}
		if len(opts.Tags) > 0 && !m.HasTags(opts.Tags) {
			continue
		}
		metas = append(metas, m)
		if opts.Limit != nil && len(opts.Tags) > 0 && len(metas) == *opts.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "metadata.list", err)
	}
	if opts.Limit != nil && len(metas) > *opts.Limit {
		metas = metas[:*opts.Limit]
	}
	return metas, nil
}

func (c *metadataClient) GetLatest(ctx context.Context, storeID string) (corpus.SnapshotMeta, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+metaColumns+" FROM corpus_snapshots WHERE store_id = ? ORDER BY created_at DESC, version DESC LIMIT 1",
		storeID)
	m, err := scanMeta(row)
	if err == sql.ErrNoRows {
		return corpus.SnapshotMeta{}, corpus.Errorf(corpus.KindNotFound, "metadata.get_latest", "%s is empty", storeID)
	}
	if err != nil {
		return corpus.SnapshotMeta{}, corpus.WrapErr(corpus.KindStorage, "metadata.get_latest", err)
	}
	return m, nil
}

func (c *metadataClient) GetChildren(ctx context.Context, parentStoreID, parentVersion string) ([]corpus.SnapshotMeta, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+metaColumns+` FROM corpus_snapshots
		WHERE parents IS NOT NULL AND EXISTS (
			SELECT 1 FROM json_each(corpus_snapshots.parents) AS parent
			WHERE json_extract(parent.value, '$.store_id') = ?
			  AND json_extract(parent.value, '$.version') = ?
		)
		ORDER BY created_at DESC, version DESC`,
		parentStoreID, parentVersion)
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "metadata.get_children", err)
	}
	defer rows.Close()

	var metas []corpus.SnapshotMeta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, corpus.WrapErr(corpus.KindStorage, "metadata.get_children", err)
		}
		metas = append(metas, m)
	}
	return metas, corpus.WrapErr(corpus.KindStorage, "metadata.get_children", rows.Err())
}

func (c *metadataClient) FindByHash(ctx context.Context, storeID, contentHash string) (corpus.SnapshotMeta, bool, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+metaColumns+" FROM corpus_snapshots WHERE store_id = ? AND content_hash = ? LIMIT 1",
		storeID, contentHash)
	m, err := scanMeta(row)
	if err == sql.ErrNoRows {
		return corpus.SnapshotMeta{}, false, nil
	}
	if err != nil {
		return corpus.SnapshotMeta{}, false, corpus.WrapErr(corpus.KindStorage, "metadata.find_by_hash", err)
	}
	return m, true, nil
}
