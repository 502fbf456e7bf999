package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/f0rbit/corpus"
)

// obsAdapter implements both the base adapter shape and the optimized
// query/delete-by-source shape on top of the corpus_observations table.
type obsAdapter struct {
	db *sql.DB
}

const obsColumns = "id, type, source_store_id, source_version, source_path, source_span_start, source_span_end, content, confidence, observed_at, created_at, derived_from"

func scanObs(row interface{ Scan(...any) error }) (corpus.ObservationRow, error) {
	var (
		r           corpus.ObservationRow
		path        sql.NullString
		spanStart   sql.NullInt64
		spanEnd     sql.NullInt64
		content     string
		confidence  sql.NullFloat64
		observedAt  sql.NullString
		createdAt   string
		derivedFrom sql.NullString
	)
	err := row.Scan(&r.ID, &r.Type, &r.SourceStoreID, &r.SourceVersion, &path,
		&spanStart, &spanEnd, &content, &confidence, &observedAt, &createdAt, &derivedFrom)
	if err != nil {
		return corpus.ObservationRow{}, err
	}
	if path.Valid {
		r.SourcePath = path.String
	}
	if spanStart.Valid && spanEnd.Valid {
		r.SourceSpan = &corpus.Span{Start: int(spanStart.Int64), End: int(spanEnd.Int64)}
	}
	r.Content = json.RawMessage(content)
	if confidence.Valid {
		c := confidence.Float64
		r.Confidence = &c
	}
	if observedAt.Valid {
		t, err := parseTime(observedAt.String)
		if err != nil {
			return corpus.ObservationRow{}, err
		}
		r.ObservedAt = &t
	}
	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return corpus.ObservationRow{}, err
	}
	if derivedFrom.Valid && derivedFrom.String != "" {
		if err := json.Unmarshal([]byte(derivedFrom.String), &r.DerivedFrom); err != nil {
			return corpus.ObservationRow{}, err
		}
	}
	return r, nil
}

func (o *obsAdapter) insertArgs(row corpus.ObservationRow) ([]any, error) {
	var path, spanStart, spanEnd, confidence, observedAt, derivedFrom any
	if row.SourcePath != "" {
		path = row.SourcePath
	}
	if row.SourceSpan != nil {
		spanStart = row.SourceSpan.Start
		spanEnd = row.SourceSpan.End
	}
	if row.Confidence != nil {
		confidence = *row.Confidence
	}
	if row.ObservedAt != nil {
		observedAt = formatTime(*row.ObservedAt)
	}
	if len(row.DerivedFrom) > 0 {
		b, err := json.Marshal(row.DerivedFrom)
		if err != nil {
			return nil, err
		}
		derivedFrom = string(b)
	}
	return []any{row.ID, row.Type, row.SourceStoreID, row.SourceVersion, path,
		spanStart, spanEnd, string(row.Content), confidence, observedAt,
		formatTime(row.CreatedAt), derivedFrom}, nil
}

// ─── Base adapter ─────────────────────────────────────────────────────────────

func (o *obsAdapter) GetAll(ctx context.Context) ([]corpus.ObservationRow, error) {
	return o.QueryRows(ctx, corpus.ObservationQuery{})
}

func (o *obsAdapter) SetAll(ctx context.Context, rows []corpus.ObservationRow) error {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return corpus.WrapErr(corpus.KindStorage, "observations.set_all", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM corpus_observations"); err != nil {
		return corpus.WrapErr(corpus.KindStorage, "observations.set_all", err)
	}
	for _, row := range rows {
		args, err := o.insertArgs(row)
		if err != nil {
			return corpus.WrapErr(corpus.KindStorage, "observations.set_all", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO corpus_observations ("+obsColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			args...); err != nil {
			return corpus.WrapErr(corpus.KindStorage, "observations.set_all", err)
		}
	}
	return corpus.WrapErr(corpus.KindStorage, "observations.set_all", tx.Commit())
}

func (o *obsAdapter) GetOne(ctx context.Context, id string) (corpus.ObservationRow, error) {
	row := o.db.QueryRowContext(ctx,
		"SELECT "+obsColumns+" FROM corpus_observations WHERE id = ?", id)
	r, err := scanObs(row)
	if err == sql.ErrNoRows {
		return corpus.ObservationRow{}, corpus.Errorf(corpus.KindObservationNotFound, "observations.get", "%s", id)
	}
	if err != nil {
		return corpus.ObservationRow{}, corpus.WrapErr(corpus.KindStorage, "observations.get", err)
	}
	return r, nil
}

func (o *obsAdapter) AddOne(ctx context.Context, row corpus.ObservationRow) error {
	args, err := o.insertArgs(row)
	if err != nil {
		return corpus.WrapErr(corpus.KindStorage, "observations.add", err)
	}
	_, err = o.db.ExecContext(ctx,
		"INSERT INTO corpus_observations ("+obsColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		args...)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return corpus.Errorf(corpus.KindAlreadyExists, "observations.add", "%s", row.ID)
	}
	return corpus.WrapErr(corpus.KindStorage, "observations.add", err)
}

func (o *obsAdapter) RemoveOne(ctx context.Context, id string) (bool, error) {
	res, err := o.db.ExecContext(ctx, "DELETE FROM corpus_observations WHERE id = ?", id)
	if err != nil {
		return false, corpus.WrapErr(corpus.KindStorage, "observations.remove", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, corpus.WrapErr(corpus.KindStorage, "observations.remove", err)
	}
	return n > 0, nil
}

// ─── Optimized adapter ────────────────────────────────────────────────────────

// QueryRows translates the adapter-level query into SQL so filtering happens
// in the engine instead of a whole-table scan in Go.
func (o *obsAdapter) QueryRows(ctx context.Context, q corpus.ObservationQuery) ([]corpus.ObservationRow, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + obsColumns + " FROM corpus_observations WHERE 1=1")
	var args []any
	if q.Type != "" {
		sb.WriteString(" AND type = ?")
		args = append(args, q.Type)
	} else if len(q.Types) > 0 {
		sb.WriteString(" AND type IN (?" + strings.Repeat(", ?", len(q.Types)-1) + ")")
		for _, t := range q.Types {
			args = append(args, t)
		}
	}
	if q.SourceStore != "" {
		sb.WriteString(" AND source_store_id = ?")
		args = append(args, q.SourceStore)
	}
	if q.SourceVersion != "" {
		sb.WriteString(" AND source_version = ?")
		args = append(args, q.SourceVersion)
	}
	if q.SourcePrefix != "" {
		sb.WriteString(" AND source_version LIKE ? ESCAPE '\\'")
		args = append(args, likePrefix(q.SourcePrefix))
	}
	if q.CreatedAfter != nil {
		sb.WriteString(" AND created_at > ?")
		args = append(args, formatTime(*q.CreatedAfter))
	}
	if q.CreatedBefore != nil {
		sb.WriteString(" AND created_at < ?")
		args = append(args, formatTime(*q.CreatedBefore))
	}
	if q.ObservedAfter != nil {
		sb.WriteString(" AND observed_at IS NOT NULL AND observed_at > ?")
		args = append(args, formatTime(*q.ObservedAfter))
	}
	if q.ObservedBefore != nil {
		sb.WriteString(" AND observed_at IS NOT NULL AND observed_at < ?")
		args = append(args, formatTime(*q.ObservedBefore))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if q.Limit != nil {
		sb.WriteString(" LIMIT ?")
		args = append(args, *q.Limit)
	}

	rows, err := o.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "observations.query", err)
	}
	defer rows.Close()

	var out []corpus.ObservationRow
	for rows.Next() {
		r, err := scanObs(rows)
		if err != nil {
			return nil, corpus.WrapErr(corpus.KindStorage, "observations.query", err)
		}
		out = append(out, r)
	}
	return out, corpus.WrapErr(corpus.KindStorage, "observations.query", rows.Err())
}

// likePrefix escapes LIKE metacharacters so the prefix matches literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// DeleteBySource removes rows pointing at (storeID, version). A nil path
// removes them regardless of path; otherwise only exact path matches go.
func (o *obsAdapter) DeleteBySource(ctx context.Context, storeID, version string, path *string) (int, error) {
	query := "DELETE FROM corpus_observations WHERE source_store_id = ? AND source_version = ?"
	args := []any{storeID, version}
	if path != nil {
		if *path == "" {
			query += " AND source_path IS NULL"
		} else {
			query += " AND source_path = ?"
			args = append(args, *path)
		}
	}
	res, err := o.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, corpus.WrapErr(corpus.KindStorage, "observations.delete_by_source", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, corpus.WrapErr(corpus.KindStorage, "observations.delete_by_source", err)
	}
	return int(n), nil
}
