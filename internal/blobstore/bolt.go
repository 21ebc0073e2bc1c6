package blobstore

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("snapshots")

// BoltOptions configures a Bolt store.
type BoltOptions struct {
	// Timeout bounds how long Open waits for the file lock. Zero waits forever.
	Timeout time.Duration

	// NoSync skips fsync after each write. Only for tests.
	NoSync bool
}

// Bolt is a Store backed by a single bbolt file.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path and ensures the
// snapshot bucket exists.
func OpenBolt(path string, opts BoltOptions) (*Bolt, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opts.Timeout
	bopt.NoSync = opts.NoSync

	db, err := bbolt.Open(path, 0o600, &bopt)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		// string() copies; v is only valid inside the transaction
		value, ok = string(v), true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, ok, nil
}

func (b *Bolt) Set(_ context.Context, key, value string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Path returns the file backing the store.
func (b *Bolt) Path() string {
	return b.db.Path()
}
