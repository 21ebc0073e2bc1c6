package store

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tinycms/internal/blobstore"
	"github.com/roach88/tinycms/internal/record"
	"github.com/roach88/tinycms/internal/snapshot"
	"github.com/roach88/tinycms/internal/testutil"
)

// createTestStore creates a store over a fresh in-memory blob store.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return createTestStoreWith(t, blobstore.NewMemory(), nil)
}

// createTestStoreWith creates a store over blobs. A nil engine selects SQLiteEngine.
func createTestStoreWith(t *testing.T, blobs blobstore.Store, engine Engine) *Store {
	t.Helper()
	s, err := New(Options{
		Blobs:  blobs,
		Engine: engine,
		Now:    testutil.NewDeterministicClock().Now,
		Logger: testutil.DiscardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func mustAddCustomer(t *testing.T, s *Store, date, name, phone string) string {
	t.Helper()
	id, err := s.Customers().Add(context.Background(), record.Customer{Date: date, Name: name, Phone: phone})
	require.NoError(t, err)
	return id
}

func mustAddInvoice(t *testing.T, s *Store, date, number, customerID string) string {
	t.Helper()
	id, err := s.Invoices().Add(context.Background(), record.Invoice{Date: date, Number: number, CustomerID: customerID})
	require.NoError(t, err)
	return id
}

// countingEngine wraps SQLiteEngine, counting calls and optionally failing.
type countingEngine struct {
	SQLiteEngine

	creates    atomic.Int32
	loads      atomic.Int32
	serializes atomic.Int32

	createErr    error
	serializeErr atomic.Pointer[error]

	// gate, when set, blocks Create until closed.
	gate chan struct{}
}

func (e *countingEngine) Create(ctx context.Context) (*sql.DB, error) {
	e.creates.Add(1)
	if e.gate != nil {
		<-e.gate
	}
	if e.createErr != nil {
		return nil, e.createErr
	}
	return e.SQLiteEngine.Create(ctx)
}

func (e *countingEngine) Load(ctx context.Context, image []byte) (*sql.DB, error) {
	e.loads.Add(1)
	return e.SQLiteEngine.Load(ctx, image)
}

func (e *countingEngine) Serialize(ctx context.Context, db *sql.DB) ([]byte, error) {
	e.serializes.Add(1)
	if p := e.serializeErr.Load(); p != nil {
		return nil, *p
	}
	return e.SQLiteEngine.Serialize(ctx, db)
}

func (e *countingEngine) failSerialize(err error) {
	e.serializeErr.Store(&err)
}

var errEngineDown = errors.New("engine unavailable")

// failingBlobs fails every Set after armed.
type failingBlobs struct {
	*blobstore.Memory
	armed atomic.Bool
}

var errDiskFull = errors.New("disk full")

func (b *failingBlobs) Set(ctx context.Context, key, value string) error {
	if b.armed.Load() {
		return errDiskFull
	}
	return b.Memory.Set(ctx, key, value)
}

// decodeStored decodes the snapshot currently held by blobs.
func decodeStored(t *testing.T, blobs blobstore.Store) []byte {
	t.Helper()
	text, ok, err := blobs.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "no snapshot stored")
	image, err := snapshot.Codec{}.Decode(text)
	require.NoError(t, err)
	return image
}
