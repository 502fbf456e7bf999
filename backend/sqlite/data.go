package sqlite

import (
	"context"
	"io"

	"github.com/f0rbit/corpus"
	"github.com/f0rbit/corpus/objstore"
)

// dataClient adapts the opaque object store to the data contract. The
// object store sees only flat keys and bytes; everything else about a blob
// lives in the metadata rows.
type dataClient struct {
	objects objstore.Store
}

func (d *dataClient) Get(ctx context.Context, dataKey string) (corpus.DataHandle, error) {
	b, err := d.objects.Get(ctx, dataKey)
	if err != nil {
		return nil, err
	}
	return corpus.BytesHandle(b), nil
}

func (d *dataClient) Put(ctx context.Context, dataKey string, data []byte) error {
	return d.objects.Put(ctx, dataKey, data)
}

func (d *dataClient) PutStream(ctx context.Context, dataKey string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return corpus.WrapErr(corpus.KindStorage, "data.put", err)
	}
	return d.objects.Put(ctx, dataKey, data)
}

func (d *dataClient) Delete(ctx context.Context, dataKey string) error {
	return d.objects.Delete(ctx, dataKey)
}

func (d *dataClient) Exists(ctx context.Context, dataKey string) (bool, error) {
	return d.objects.Exists(ctx, dataKey)
}
