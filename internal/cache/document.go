package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrCorrupt marks a stored value that no longer decodes.
var ErrCorrupt = errors.New("stored value is corrupt")

// Document is a single JSON value of type T stored under one key. The whole
// value is rewritten on every Save.
type Document[T any] struct {
	cache Cache
	key   string
}

func NewDocument[T any](c Cache, key string) *Document[T] {
	return &Document[T]{cache: c, key: key}
}

func (d *Document[T]) Key() string {
	return d.key
}

// Load decodes the stored value. ok is false when nothing has been stored yet.
func (d *Document[T]) Load(ctx context.Context) (value T, ok bool, err error) {
	r, err := d.cache.Get(ctx, d.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("failed to read %s: %w", d.key, err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close cached document", "key", d.key, "error", err)
		}
	}()

	if err := json.NewDecoder(r).Decode(&value); err != nil {
		var zero T
		return zero, false, fmt.Errorf("failed to decode %s: %w: %w", d.key, ErrCorrupt, err)
	}
	return value, true, nil
}

func (d *Document[T]) Save(ctx context.Context, value T) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", d.key, err)
	}
	if err := d.cache.Put(ctx, d.key, string(b), Unconditional()); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.key, err)
	}
	return nil
}
