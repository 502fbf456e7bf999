package layered

import (
	"context"
	"io"

	"github.com/f0rbit/corpus"
)

type dataClient struct {
	b *Backend
}

func (d *dataClient) Get(ctx context.Context, dataKey string) (corpus.DataHandle, error) {
	for _, be := range d.b.read {
		h, err := be.Data().Get(ctx, dataKey)
		if err == nil {
			return h, nil
		}
		if !corpus.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, notFound("data.get", "blob %q", dataKey)
}

func (d *dataClient) Put(ctx context.Context, dataKey string, data []byte) error {
	for _, be := range d.b.write {
		if err := be.Data().Put(ctx, dataKey, data); err != nil {
			return err
		}
	}
	return nil
}

// PutStream fans a stream out across the write list. Streams are
// single-consumer, so with more than one write backend the stream is
// buffered to bytes first and each backend gets the buffered copy.
func (d *dataClient) PutStream(ctx context.Context, dataKey string, r io.Reader) error {
	switch len(d.b.write) {
	case 0:
		// Still consume the stream once; the contract says we own it.
		_, err := io.Copy(io.Discard, r)
		return corpus.WrapErr(corpus.KindStorage, "data.put", err)
	case 1:
		return d.b.write[0].Data().PutStream(ctx, dataKey, r)
	default:
		data, err := io.ReadAll(r)
		if err != nil {
			return corpus.WrapErr(corpus.KindStorage, "data.put", err)
		}
		return d.Put(ctx, dataKey, data)
	}
}

func (d *dataClient) Delete(ctx context.Context, dataKey string) error {
	for _, be := range d.b.write {
		if err := be.Data().Delete(ctx, dataKey); err != nil && !corpus.IsNotFound(err) {
			return err
		}
	}
	return nil
}

func (d *dataClient) Exists(ctx context.Context, dataKey string) (bool, error) {
	for _, be := range d.b.read {
		ok, err := be.Data().Exists(ctx, dataKey)
		if err != nil {
			if corpus.IsNotFound(err) {
				continue
			}
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
