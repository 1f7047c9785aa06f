package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("mealcart")

// BoltCache keeps every key in a single bbolt bucket on local disk.
type BoltCache struct {
	db *bolt.DB
}

var _ ListCache = (*BoltCache)(nil)

func NewBoltCache(path string) (*BoltCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltCache{db: db}, nil
}

func (bc *BoltCache) Close() error {
	return bc.db.Close()
}

func (bc *BoltCache) Get(_ context.Context, key string) (io.ReadCloser, error) {
	var data []byte
	err := bc.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(boltBucket).Get([]byte(key)); v != nil {
			// bolt memory is only valid inside the transaction
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (bc *BoltCache) Exists(_ context.Context, key string) (bool, error) {
	var found bool
	err := bc.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(boltBucket).Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

func (bc *BoltCache) Put(_ context.Context, key, value string, opts PutOptions) error {
	return bc.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if opts.Condition == PutIfNoneMatch && b.Get([]byte(key)) != nil {
			return ErrAlreadyExists
		}
		return b.Put([]byte(key), []byte(value))
	})
}

func (bc *BoltCache) List(_ context.Context, prefix string, _ string) ([]string, error) {
	var keys []string
	err := bc.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, strings.TrimPrefix(string(k), prefix))
		}
		return nil
	})
	return keys, err
}
