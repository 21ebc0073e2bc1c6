package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tinycms/internal/blobstore"
	"github.com/roach88/tinycms/internal/record"
)

func TestOnChange_FiresAfterEachMutation(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.Initialize(ctx))

	calls := 0
	s.OnChange(func() { calls++ })

	id := mustAddCustomer(t, s, "2024-01-01", "John", "1")
	require.NoError(t, s.Customers().Update(ctx, record.Customer{ID: id, Date: "2024-01-02", Name: "John", Phone: "2"}))
	require.NoError(t, s.Customers().Delete(ctx, id))

	assert.Equal(t, 3, calls)
}

func TestOnChange_NotFiredByReads(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.Initialize(ctx))

	calls := 0
	s.OnChange(func() { calls++ })

	_, err := s.Customers().List(ctx)
	require.NoError(t, err)
	_, err = s.Customers().Search(ctx, "john")
	require.NoError(t, err)
	_, err = s.Invoices().List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
}

func TestOnChange_NotFiredWhenWriteFails(t *testing.T) {
	ctx := context.Background()
	blobs := &failingBlobs{Memory: blobstore.NewMemory()}
	s := createTestStoreWith(t, blobs, nil)
	require.NoError(t, s.Initialize(ctx))

	calls := 0
	s.OnChange(func() { calls++ })

	blobs.armed.Store(true)
	_, err := s.Customers().Add(ctx, record.Customer{Name: "John"})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
	blobs.armed.Store(false)
}

func TestOnChange_RegistrationOrder(t *testing.T) {
	s := createTestStore(t)

	var order []string
	s.OnChange(func() { order = append(order, "a") })
	s.OnChange(func() { order = append(order, "b") })
	s.OnChange(func() { order = append(order, "c") })

	mustAddCustomer(t, s, "2024-01-01", "John", "1")

	// Initialization persists the new database once before the add.
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, order)
}

func TestRemoveListener(t *testing.T) {
	s := createTestStore(t)

	kept, removed := 0, 0
	s.OnChange(func() { kept++ })
	id := s.OnChange(func() { removed++ })
	s.RemoveListener(id)

	mustAddCustomer(t, s, "2024-01-01", "John", "1")
	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, kept)
}

func TestRemoveListener_UnknownIsNoop(t *testing.T) {
	s := createTestStore(t)

	calls := 0
	id := s.OnChange(func() { calls++ })
	s.RemoveListener("no-such-listener")
	s.RemoveListener(id)
	s.RemoveListener(id)

	mustAddCustomer(t, s, "2024-01-01", "John", "1")
	assert.Equal(t, 0, calls)
}

func TestOnChange_ListenerMayRemoveItself(t *testing.T) {
	s := createTestStore(t)

	calls := 0
	var id ListenerID
	id = s.OnChange(func() {
		calls++
		s.RemoveListener(id)
	})

	mustAddCustomer(t, s, "2024-01-01", "John", "1")
	mustAddCustomer(t, s, "2024-01-02", "Jane", "2")
	assert.Equal(t, 1, calls)
}
