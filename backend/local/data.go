package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/f0rbit/corpus"
)

type dataClient Backend

func (d *dataClient) blobPath(dataKey string) string {
	return filepath.Join(d.base, dataDir, escapeDataKey(dataKey))
}

// fileHandle defers the read until the caller picks an access shape.
type fileHandle string

func (h fileHandle) Bytes() ([]byte, error) {
	b, err := os.ReadFile(string(h))
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "data.get", err)
	}
	return b, nil
}

func (h fileHandle) Reader() (io.ReadCloser, error) {
	f, err := os.Open(string(h))
	if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "data.get", err)
	}
	return f, nil
}

func (d *dataClient) Get(ctx context.Context, dataKey string) (corpus.DataHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.blobPath(dataKey)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, corpus.Errorf(corpus.KindNotFound, "data.get", "blob %q", dataKey)
	} else if err != nil {
		return nil, corpus.WrapErr(corpus.KindStorage, "data.get", err)
	}
	return fileHandle(path), nil
}

func (d *dataClient) Put(ctx context.Context, dataKey string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	path := d.blobPath(dataKey)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return corpus.WrapErr(corpus.KindStorage, "data.put", err)
	}
	return corpus.WrapErr(corpus.KindStorage, "data.put", writeFileAtomic(path, data))
}

// PutStream consumes r in one pass and persists the buffered bytes; chunked
// writes to disk are not required by the data contract.
func (d *dataClient) PutStream(ctx context.Context, dataKey string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return corpus.WrapErr(corpus.KindStorage, "data.put", err)
	}
	return d.Put(ctx, dataKey, data)
}

func (d *dataClient) Delete(ctx context.Context, dataKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := os.Remove(d.blobPath(dataKey))
	if err != nil && !os.IsNotExist(err) {
		return corpus.WrapErr(corpus.KindStorage, "data.delete", err)
	}
	return nil
}

func (d *dataClient) Exists(ctx context.Context, dataKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(d.blobPath(dataKey))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, corpus.WrapErr(corpus.KindStorage, "data.exists", err)
	}
	return true, nil
}
