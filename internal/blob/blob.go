package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Object is an open blob. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store is the opaque key to bytes storage shared by the api and the workers.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns ErrNotFound when the key does not resolve to a blob.
	Get(ctx context.Context, key string) (*Object, error)
	Type() string
}
