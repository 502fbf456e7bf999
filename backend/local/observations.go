package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/f0rbit/corpus"
)

// obsAdapter implements the base adapter shape over one JSON file; queries
// go through the observations client's scan-and-filter path.
type obsAdapter Backend

func (o *obsAdapter) path() string {
	return filepath.Join(o.base, obsFile)
}

func (o *obsAdapter) read() ([]corpus.ObservationRow, error) {
	raw, err := os.ReadFile(o.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "observations.read", err)
	}
	var rows []corpus.ObservationRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "observations.read", err)
	}
	return rows, nil
}

func (o *obsAdapter) write(rows []corpus.ObservationRow) error {
	if rows == nil {
		rows = []corpus.ObservationRow{}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return corpus.WrapErr(corpus.KindStorage, "observations.write", err)
	}
	return corpus.WrapErr(corpus.KindStorage, "observations.write", writeFileAtomic(o.path(), raw))
}

func (o *obsAdapter) GetAll(ctx context.Context) ([]corpus.ObservationRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.read()
}

func (o *obsAdapter) SetAll(ctx context.Context, rows []corpus.ObservationRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.write(rows)
}

func (o *obsAdapter) GetOne(ctx context.Context, id string) (corpus.ObservationRow, error) {
	if err := ctx.Err(); err != nil {
		return corpus.ObservationRow{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	rows, err := o.read()
	if err != nil {
		return corpus.ObservationRow{}, err
	}
	for _, row := range rows {
		if row.ID == id {
			return row, nil
		}
	}
	return corpus.ObservationRow{}, corpus.Errorf(corpus.KindObservationNotFound, "observations.get", "%s", id)
}

func (o *obsAdapter) AddOne(ctx context.Context, row corpus.ObservationRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	rows, err := o.read()
	if err != nil {
		return err
	}
	for _, existing := range rows {
		if existing.ID == row.ID {
			return corpus.Errorf(corpus.KindAlreadyExists, "observations.add", "%s", row.ID)
		}
	}
	return o.write(append(rows, row))
}

func (o *obsAdapter) RemoveOne(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	rows, err := o.read()
	if err != nil {
		return false, err
	}
	for i, row := range rows {
		if row.ID == id {
			return true, o.write(append(rows[:i], rows[i+1:]...))
		}
	}
	return false, nil
}
