package layered

import (
	"context"

	"github.com/f0rbit/corpus"
)

// obsAdapter routes observation traffic: reads go to the first read layer
// exposing observations, writes fan out across every write layer that does.
type obsAdapter struct {
	b *Backend
}

func (o *obsAdapter) readAdapter() corpus.ObservationsAdapter {
	for _, be := range o.b.read {
		if a := be.Observations(); a != nil {
			return a
		}
	}
	return nil
}

func (o *obsAdapter) writeAdapters() []corpus.ObservationsAdapter {
	var out []corpus.ObservationsAdapter
	for _, be := range o.b.write {
		if a := be.Observations(); a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (o *obsAdapter) GetAll(ctx context.Context) ([]corpus.ObservationRow, error) {
	a := o.readAdapter()
	if a == nil {
		return nil, nil
	}
	return a.GetAll(ctx)
}

func (o *obsAdapter) SetAll(ctx context.Context, rows []corpus.ObservationRow) error {
	for _, a := range o.writeAdapters() {
		if err := a.SetAll(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

func (o *obsAdapter) GetOne(ctx context.Context, id string) (corpus.ObservationRow, error) {
	a := o.readAdapter()
	if a == nil {
		return corpus.ObservationRow{}, corpus.Errorf(corpus.KindObservationNotFound, "observations.get", "%s", id)
	}
	return a.GetOne(ctx, id)
}

func (o *obsAdapter) AddOne(ctx context.Context, row corpus.ObservationRow) error {
	for _, a := range o.writeAdapters() {
		if err := a.AddOne(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (o *obsAdapter) RemoveOne(ctx context.Context, id string) (bool, error) {
	removed := false
	for _, a := range o.writeAdapters() {
		ok, err := a.RemoveOne(ctx, id)
		if err != nil {
			return removed, err
		}
		removed = removed || ok
	}
	return removed, nil
}

// DeleteBySource fans the bulk delete out across write layers, using each
// layer's native delete when it has one and the load-partition-store
// fallback when it does not. The count reported is the largest per-layer
// count: mirrored layers remove the same logical rows.
func (o *obsAdapter) DeleteBySource(ctx context.Context, storeID, version string, path *string) (int, error) {
	max := 0
	for _, a := range o.writeAdapters() {
		n, err := deleteBySourceOn(ctx, a, storeID, version, path)
		if err != nil {
			return max, err
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func deleteBySourceOn(ctx context.Context, a corpus.ObservationsAdapter, storeID, version string, path *string) (int, error) {
	if del, ok := a.(corpus.ObservationSourceDeleter); ok {
		return del.DeleteBySource(ctx, storeID, version, path)
	}
	rows, err := a.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	kept := rows[:0]
	removed := 0
	for _, row := range rows {
		match := row.SourceStoreID == storeID && row.SourceVersion == version &&
			(path == nil || row.SourcePath == *path)
		if match {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, a.SetAll(ctx, kept)
}
