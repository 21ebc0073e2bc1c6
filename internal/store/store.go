package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/tinycms/internal/blobstore"
	"github.com/roach88/tinycms/internal/snapshot"
)

// DefaultKey is the blob store key holding the encoded snapshot.
const DefaultKey = "tinyCMS_sqlite"

// State is the lifecycle state of the live handle.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options configures a Store.
type Options struct {
	// Blobs holds the durable snapshot. Required.
	Blobs blobstore.Store

	// Codec encodes images for the blob store.
	Codec snapshot.Codec

	// Engine creates and serializes images. Defaults to SQLiteEngine.
	Engine Engine

	// Key is the blob store key for the snapshot. Defaults to DefaultKey.
	Key string

	// Now supplies timestamps for imported rows without a date.
	// Defaults to time.Now.
	Now func() time.Time

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store owns one live database handle and its durable snapshot.
type Store struct {
	blobs  blobstore.Store
	codec  snapshot.Codec
	engine Engine
	key    string
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	db    *sql.DB
	state State

	initGroup singleflight.Group
	bus       changeBus
}

// New creates a Store. No handle is opened until the first operation or an
// explicit Initialize.
func New(opts Options) (*Store, error) {
	if opts.Blobs == nil {
		return nil, errors.New("store: blob store is required")
	}
	if opts.Engine == nil {
		opts.Engine = SQLiteEngine{}
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Store{
		blobs:  opts.Blobs,
		codec:  opts.Codec,
		engine: opts.Engine,
		key:    opts.Key,
		now:    opts.Now,
		logger: opts.Logger,
	}, nil
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// handle returns the live handle, or nil.
func (s *Store) handle() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// Initialize makes the store Ready. It is idempotent; concurrent calls share
// a single load-or-create sequence and all receive its result.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.ready(ctx)
	return err
}

// ready returns the live handle, initializing it first if needed.
func (s *Store) ready(ctx context.Context) (*sql.DB, error) {
	if db := s.handle(); db != nil {
		return db, nil
	}

	v, err, _ := s.initGroup.Do("init", func() (any, error) {
		// A call that lost the race to an already finished initialization
		// lands here after the handle is set.
		if db := s.handle(); db != nil {
			return db, nil
		}

		s.mu.Lock()
		prev := s.state
		s.state = StateInitializing
		s.mu.Unlock()

		db, err := s.open(ctx)
		if err != nil {
			s.mu.Lock()
			s.state = prev
			s.mu.Unlock()
			return nil, err
		}

		s.mu.Lock()
		s.db = db
		s.state = StateReady
		s.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

// open loads the stored snapshot, falling back to a fresh image with the
// schema applied when there is none or it is unusable.
func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	image, err := s.readSnapshot(ctx)
	if err != nil {
		return nil, initError("read snapshot", err)
	}

	if image != nil {
		db, err := s.engine.Load(ctx, image)
		if err == nil {
			if err := prepare(ctx, db); err != nil {
				db.Close()
				return nil, initError("prepare loaded image", err)
			}
			s.logger.Info("database loaded from snapshot", "key", s.key, "bytes", len(image))
			return db, nil
		}
		// The image decoded but the engine rejects it: same recovery as a
		// corrupt snapshot. The stored text is overwritten by the next persist.
		s.logger.Warn("stored image unusable, creating new database", "key", s.key, "error", err)
	}

	db, err := s.engine.Create(ctx)
	if err != nil {
		return nil, initError("create database", err)
	}
	if err := prepare(ctx, db); err != nil {
		db.Close()
		return nil, initError("create schema", err)
	}
	s.logger.Info("database created", "key", s.key)

	if err := s.persist(ctx, db); err != nil {
		db.Close()
		return nil, initError("persist new database", err)
	}
	return db, nil
}

// readSnapshot returns the decoded image, or nil if no usable snapshot
// exists. Only blob store failures are returned as errors.
func (s *Store) readSnapshot(ctx context.Context) ([]byte, error) {
	text, ok, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	image, err := s.codec.Decode(text)
	if IsCorruptSnapshot(err) {
		s.logger.Warn("could not parse stored database, creating new one", "key", s.key, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, nil
	}
	return image, nil
}

// prepare configures a fresh or loaded handle and ensures the schema exists.
func prepare(ctx context.Context, db *sql.DB) error {
	if err := applyPragmas(ctx, db); err != nil {
		return err
	}
	return CreateSchema(ctx, db)
}

// Persist writes the full current image to the blob store and notifies
// change listeners. It is a no-op when no handle is live.
func (s *Store) Persist(ctx context.Context) error {
	db := s.handle()
	if db == nil {
		return nil
	}
	return s.persist(ctx, db)
}

func (s *Store) persist(ctx context.Context, db *sql.DB) error {
	image, err := s.engine.Serialize(ctx, db)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	text := s.codec.Encode(image)
	if err := s.blobs.Set(ctx, s.key, text); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	s.logger.Debug("database persisted", "key", s.key, "image_bytes", len(image), "stored_bytes", len(text))

	s.bus.notify()
	return nil
}

// Shutdown persists one final time and releases the handle. It is a no-op
// when no handle is live. Later operations initialize again.
func (s *Store) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil
	}

	persistErr := s.persist(ctx, db)

	s.mu.Lock()
	s.db = nil
	s.state = StateClosed
	s.mu.Unlock()

	closeErr := db.Close()
	if persistErr != nil {
		return repoError("shutdown", persistErr)
	}
	if closeErr != nil {
		return repoError("shutdown", fmt.Errorf("close database: %w", closeErr))
	}
	s.logger.Info("database closed", "key", s.key)
	return nil
}

// mutate runs apply against the live handle and persists on success.
func (s *Store) mutate(ctx context.Context, op string, apply func(db *sql.DB) error) error {
	db, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if err := apply(db); err != nil {
		return repoError(op, err)
	}
	if err := s.persist(ctx, db); err != nil {
		return repoError(op, err)
	}
	return nil
}

// timestamp formats the current time like JavaScript's toISOString.
func (s *Store) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z")
}
