package blobstore

import (
	"context"
	"fmt"
	"io"
)

// NopReadCloser wraps r with a no-op Close.
func NopReadCloser(r io.Reader) io.ReadCloser {
	return io.NopCloser(r)
}

// ReadAll returns a copy of the whole blob.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	size := b.Size()
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err == nil && int64(len(data)) == size {
			copy(buf, data)
			return buf, nil
		}
	}

	n, err := b.ReadAt(ctx, buf, 0)
	if int64(n) == size {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read blob: %w", err)
}

// Get opens, reads and closes the named blob.
func Get(ctx context.Context, s BlobStore, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	return ReadAll(ctx, b)
}

// Reader reads a blob sequentially.
type Reader struct {
	ctx context.Context
	b   Blob
	off int64
}

// NewReader returns an io.Reader over b starting at offset 0.
func NewReader(ctx context.Context, b Blob) *Reader {
	return &Reader{ctx: ctx, b: b}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.off >= r.b.Size() {
		return 0, io.EOF
	}
	if rem := r.b.Size() - r.off; int64(len(p)) > rem {
		p = p[:rem]
	}

	n, err := r.b.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Offset returns the number of bytes read so far.
func (r *Reader) Offset() int64 {
	return r.off
}
