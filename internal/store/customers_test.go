package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tinycms/internal/record"
)

func TestCustomers_AddAssignsIncreasingIDs(t *testing.T) {
	s := createTestStore(t)

	first := mustAddCustomer(t, s, "2024-01-01", "John", "1")
	second := mustAddCustomer(t, s, "2024-01-02", "Jane", "2")

	assert.Equal(t, "1", first)
	assert.Equal(t, "2", second)
}

func TestCustomers_AddIgnoresSuppliedID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	id, err := s.Customers().Add(ctx, record.Customer{ID: "99", Date: "2024-01-01", Name: "John"})
	require.NoError(t, err)
	assert.Equal(t, "1", id)
}

func TestCustomers_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	id := mustAddCustomer(t, s, "2024-01-01", "John", "1")
	require.NoError(t, s.Customers().Delete(ctx, id))

	next := mustAddCustomer(t, s, "2024-01-01", "Jane", "2")
	assert.Equal(t, "2", next)
}

func TestCustomers_Get(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	id := mustAddCustomer(t, s, "2024-01-01", "John Smith", "555-1111")

	c, ok, err := s.Customers().Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.Customer{ID: id, Date: "2024-01-01", Name: "John Smith", Phone: "555-1111"}, c)

	_, ok, err = s.Customers().Get(ctx, "404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCustomers_ListNewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for i := 0; i < CustomerPageSize+10; i++ {
		// Insert out of date order to exercise ORDER BY.
		mustAddCustomer(t, s, fmt.Sprintf("2024-03-01T%04d", (i*37)%100), fmt.Sprintf("c%d", i), "")
	}

	customers, err := s.Customers().List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, CustomerPageSize)

	for i := 1; i < len(customers); i++ {
		assert.GreaterOrEqual(t, customers[i-1].Date, customers[i].Date, "row %d out of order", i)
	}

	all, err := s.Customers().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, CustomerPageSize+10)
}

func TestCustomers_ListEmpty(t *testing.T) {
	customers, err := createTestStore(t).Customers().List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, customers)
	assert.Empty(t, customers)
}

func TestCustomers_ListTieBreaksByNewestID(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	a := mustAddCustomer(t, s, "2024-01-01", "A", "")
	b := mustAddCustomer(t, s, "2024-01-01", "B", "")

	customers, err := s.Customers().List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, b, customers[0].ID)
	assert.Equal(t, a, customers[1].ID)
}

func seedSmiths(t *testing.T, s *Store) (john, jane string) {
	t.Helper()
	john = mustAddCustomer(t, s, "2024-01-01", "John Smith", "555-1111")
	jane = mustAddCustomer(t, s, "2024-01-02", "Jane Smith", "555-2222")
	mustAddCustomer(t, s, "2024-01-03", "Bob Jones", "777-3333")
	return john, jane
}

func customerIDs(customers []record.Customer) []string {
	ids := make([]string, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}
	return ids
}

func TestCustomers_SearchBlankEqualsList(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedSmiths(t, s)

	list, err := s.Customers().List(ctx)
	require.NoError(t, err)

	for _, q := range []string{"", "   ", "\t\n"} {
		got, err := s.Customers().Search(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, list, got, "query %q", q)
	}
}

func TestCustomers_SearchAllTermsMustMatch(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	john, jane := seedSmiths(t, s)

	tests := []struct {
		query string
		want  []string
	}{
		{"smith 555", []string{jane, john}},
		{"john 2222", []string{}},
		{"john 1111", []string{john}},
		{"SMITH", []string{jane, john}},
		{"  jane   smith ", []string{jane}},
		{"2222", []string{jane}},
		{"555- smi", []string{jane, john}},
		{"nobody", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.Customers().Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, customerIDs(got))
		})
	}
}

func TestCustomers_SearchTermsAreLiteral(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	pct := mustAddCustomer(t, s, "2024-01-01", "100% Cotton", "")
	mustAddCustomer(t, s, "2024-01-02", "1000 Cotton", "")
	under := mustAddCustomer(t, s, "2024-01-03", "snake_case", "")
	mustAddCustomer(t, s, "2024-01-04", "snakeXcase", "")

	got, err := s.Customers().Search(ctx, "0%")
	require.NoError(t, err)
	assert.Equal(t, []string{pct}, customerIDs(got))

	got, err = s.Customers().Search(ctx, "e_c")
	require.NoError(t, err)
	assert.Equal(t, []string{under}, customerIDs(got))
}

func TestCustomers_SearchFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	id := mustAddCustomer(t, s, "2024-01-01", "Émile Zola", "")

	got, err := s.Customers().Search(ctx, "émile")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, customerIDs(got))

	got, err = s.Customers().Search(ctx, "ÉMILE ZOLA")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, customerIDs(got))
}

func TestCustomers_SearchCapped(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	for i := 0; i < CustomerPageSize+5; i++ {
		mustAddCustomer(t, s, fmt.Sprintf("2024-01-01T%04d", i), fmt.Sprintf("Smith %d", i), "")
	}

	got, err := s.Customers().Search(ctx, "smith")
	require.NoError(t, err)
	assert.Len(t, got, CustomerPageSize)
	assert.Equal(t, fmt.Sprintf("Smith %d", CustomerPageSize+4), got[0].Name)
}

func TestCustomers_Update(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	id := mustAddCustomer(t, s, "2024-01-01", "John", "1")

	want := record.Customer{ID: id, Date: "2024-02-02", Name: "Johnny", Phone: "2"}
	require.NoError(t, s.Customers().Update(ctx, want))

	got, ok, err := s.Customers().Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCustomers_UpdateMissingIDIsNoop(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	john, jane := seedSmiths(t, s)

	before, err := s.Customers().All(ctx)
	require.NoError(t, err)

	err = s.Customers().Update(ctx, record.Customer{ID: "404", Date: "2030-01-01", Name: "Ghost", Phone: "0"})
	require.NoError(t, err)

	after, err := s.Customers().All(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Contains(t, customerIDs(after), john)
	assert.Contains(t, customerIDs(after), jane)
}

func TestCustomers_DeleteCascadesToInvoices(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	john, jane := seedSmiths(t, s)

	mustAddInvoice(t, s, "2024-02-01", "INV-1", john)
	mustAddInvoice(t, s, "2024-02-02", "INV-2", john)
	keep := mustAddInvoice(t, s, "2024-02-03", "INV-3", jane)

	require.NoError(t, s.Customers().Delete(ctx, john))

	_, ok, err := s.Customers().Get(ctx, john)
	require.NoError(t, err)
	assert.False(t, ok)

	orphans, err := s.Invoices().ListByCustomer(ctx, john)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	remaining, err := s.Invoices().List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep, remaining[0].ID)
}

func TestCustomers_DeleteWithLeadingZerosCascades(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	john, jane := seedSmiths(t, s)
	mustAddInvoice(t, s, "2024-02-01", "INV-1", john)
	keep := mustAddInvoice(t, s, "2024-02-02", "INV-2", jane)

	require.NoError(t, s.Customers().Delete(ctx, "00"+john))

	_, ok, err := s.Customers().Get(ctx, john)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := s.Invoices().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, invoiceIDs(remaining), "no invoice outlives its customer")
}

func TestCustomers_GetWithLeadingZeros(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	john, _ := seedSmiths(t, s)

	c, ok, err := s.Customers().Get(ctx, " 0"+john+" ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, john, c.ID)
}

func TestCustomers_RejectNonIntegerIDs(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedSmiths(t, s)

	_, _, err := s.Customers().Get(ctx, "abc")
	assert.True(t, IsRepositoryError(err))
	assert.ErrorIs(t, err, ErrInvalidID)

	err = s.Customers().Update(ctx, record.Customer{ID: "1.5", Name: "x"})
	assert.True(t, IsRepositoryError(err))
	assert.ErrorIs(t, err, ErrInvalidID)

	err = s.Customers().Delete(ctx, "")
	assert.True(t, IsRepositoryError(err))
	assert.ErrorIs(t, err, ErrInvalidID)

	all, err := s.Customers().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCustomers_DeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedSmiths(t, s)

	require.NoError(t, s.Customers().Delete(ctx, "404"))
	all, err := s.Customers().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCustomers_MutationsAreDurable(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	id := mustAddCustomer(t, s, "2024-01-01", "John", "1")

	reloaded := createTestStoreWith(t, s.blobs, nil)
	got, ok, err := reloaded.Customers().Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "John", got.Name)
}
