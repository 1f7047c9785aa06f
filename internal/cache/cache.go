package cache

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound      = errors.New("cache entry not found")
	ErrAlreadyExists = errors.New("cache entry already exists")
)

type PutCondition int

const (
	PutUnconditional PutCondition = iota
	PutIfNoneMatch
)

type PutOptions struct {
	Condition PutCondition
}

func Unconditional() PutOptions {
	return PutOptions{Condition: PutUnconditional}
}

func IfNoneMatch() PutOptions {
	return PutOptions{Condition: PutIfNoneMatch}
}

// Cache is a string keyed store of serialized values. Writes to the same key
// overwrite each other; callers needing ordering must serialize themselves.
type Cache interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key, value string, opts PutOptions) error
}

type ListCache interface {
	Cache
	// List returns keys under prefix with the prefix trimmed.
	List(ctx context.Context, prefix string, token string) ([]string, error)
}

// Closer is implemented by backends holding an open handle (bolt, sqlite).
type Closer interface {
	Close() error
}
