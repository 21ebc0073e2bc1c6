// Package transfer exports the whole store to a workbook and imports
// workbooks back into it.
//
// A workbook has up to two sheets, "Customers" and "Invoices", whose headers
// match the record field names. Each sheet is imported in its own
// transaction: a failing sheet is rolled back and counted as zero, and the
// other sheet is still attempted.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tinycms/internal/record"
	"github.com/roach88/tinycms/internal/sheet"
	"github.com/roach88/tinycms/internal/store"
)

// Sheet names.
const (
	CustomersSheet = "Customers"
	InvoicesSheet  = "Invoices"
)

// ErrUnreadableWorkbook is the cause of the import error returned when the
// file is not a workbook. Nothing is imported in that case.
var ErrUnreadableWorkbook = errors.New("unreadable workbook")

// Result reports rows written per sheet.
type Result struct {
	CustomersImported int `json:"customersImported"`
	InvoicesImported  int `json:"invoicesImported"`
}

// Engine moves records between a Store and workbook files.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an Engine over s. A nil logger uses slog.Default().
func New(s *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, logger: logger}
}

// ExportAll writes every customer and every invoice, without the list page
// cap, to an xlsx workbook.
func (e *Engine) ExportAll(ctx context.Context) ([]byte, error) {
	customers, err := e.store.Customers().All(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := e.store.Invoices().All(ctx)
	if err != nil {
		return nil, err
	}

	wb := sheet.Workbook{Tables: []sheet.Table{
		{Name: CustomersSheet, Columns: record.CustomerColumns, Rows: customerRows(customers)},
		{Name: InvoicesSheet, Columns: record.InvoiceColumns, Rows: invoiceRows(invoices)},
	}}

	data, err := sheet.Encode(wb)
	if err != nil {
		return nil, err
	}
	e.logger.Info("export complete", "customers", len(customers), "invoices", len(invoices), "bytes", len(data))
	return data, nil
}

// ImportAll reads an xlsx workbook and upserts its Customers and Invoices
// sheets, customers first. Absent sheets are skipped.
//
// The returned error joins one import error per failed sheet; the Result is
// valid either way.
func (e *Engine) ImportAll(ctx context.Context, data []byte) (Result, error) {
	wb, err := sheet.Decode(data)
	if err != nil {
		return Result{}, &store.Error{
			Code: store.ErrCodeImport,
			Op:   "read workbook",
			Err:  fmt.Errorf("%w: %w", ErrUnreadableWorkbook, err),
		}
	}

	var (
		res  Result
		errs []error
	)

	if t, ok := wb.Table(CustomersSheet); ok {
		n, err := e.store.ImportCustomers(ctx, t.Rows)
		if err != nil {
			e.logger.Error("customers sheet import failed", "error", err)
			errs = append(errs, err)
		}
		res.CustomersImported = n
	}

	if t, ok := wb.Table(InvoicesSheet); ok {
		n, err := e.store.ImportInvoices(ctx, t.Rows)
		if err != nil {
			e.logger.Error("invoices sheet import failed", "error", err)
			errs = append(errs, err)
		}
		res.InvoicesImported = n
	}

	return res, errors.Join(errs...)
}

func customerRows(customers []record.Customer) []record.Row {
	rows := make([]record.Row, len(customers))
	for i, c := range customers {
		rows[i] = c.Row()
	}
	return rows
}

func invoiceRows(invoices []record.Invoice) []record.Row {
	rows := make([]record.Row, len(invoices))
	for i, inv := range invoices {
		rows[i] = inv.Row()
	}
	return rows
}
