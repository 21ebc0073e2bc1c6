package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tinycms/internal/record"
)

// InvoiceRepository provides CRUD over invoices.
type InvoiceRepository struct {
	s *Store
}

// Invoices returns the invoice repository.
func (s *Store) Invoices() *InvoiceRepository {
	return &InvoiceRepository{s: s}
}

// Add inserts inv (ignoring inv.ID) and returns the assigned id.
// The referenced customer must exist; its id is stored in canonical form.
func (r *InvoiceRepository) Add(ctx context.Context, inv record.Invoice) (string, error) {
	var id int64
	err := r.s.mutate(ctx, "add invoice", func(db *sql.DB) error {
		customerID, err := canonicalID(inv.CustomerID)
		if err != nil {
			return err
		}
		if err := requireCustomer(ctx, db, customerID); err != nil {
			return err
		}
		res, err := db.ExecContext(ctx,
			"INSERT INTO invoices (date, number, customerId) VALUES (?, ?, ?)",
			inv.Date, inv.Number, customerID,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return "", err
	}
	return formatID(id), nil
}

// Get returns the invoice with id. ok is false if none exists.
func (r *InvoiceRepository) Get(ctx context.Context, id string) (inv record.Invoice, ok bool, err error) {
	key, err := parseID(id)
	if err != nil {
		return record.Invoice{}, false, repoError("get invoice", err)
	}

	db, err := r.s.ready(ctx)
	if err != nil {
		return record.Invoice{}, false, err
	}

	inv, err = scanInvoice(db.QueryRowContext(ctx,
		"SELECT id, date, number, customerId FROM invoices WHERE id = ?", key,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return record.Invoice{}, false, nil
	}
	if err != nil {
		return record.Invoice{}, false, repoError("get invoice", err)
	}
	return inv, true, nil
}

// List returns every invoice, newest date first, then number descending.
func (r *InvoiceRepository) List(ctx context.Context) ([]record.Invoice, error) {
	return r.query(ctx, "list invoices", `
		SELECT id, date, number, customerId
		FROM invoices
		ORDER BY date DESC, number DESC
	`)
}

// ListByCustomer is List restricted to one customer.
func (r *InvoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]record.Invoice, error) {
	customerID, err := canonicalID(customerID)
	if err != nil {
		return nil, repoError("list customer invoices", err)
	}
	return r.query(ctx, "list customer invoices", `
		SELECT id, date, number, customerId
		FROM invoices
		WHERE customerId = ?
		ORDER BY date DESC, number DESC
	`, customerID)
}

// All returns every invoice ordered by id. Used by export.
func (r *InvoiceRepository) All(ctx context.Context) ([]record.Invoice, error) {
	return r.query(ctx, "read all invoices", `
		SELECT id, date, number, customerId
		FROM invoices
		ORDER BY id ASC
	`)
}

// Update replaces every field but the id of the invoice matching inv.ID.
// Updating a missing id succeeds and changes nothing, whatever customer it
// names. For an existing invoice the referenced customer must exist.
func (r *InvoiceRepository) Update(ctx context.Context, inv record.Invoice) error {
	return r.s.mutate(ctx, "update invoice", func(db *sql.DB) error {
		key, err := parseID(inv.ID)
		if err != nil {
			return err
		}
		customerID, err := canonicalID(inv.CustomerID)
		if err != nil {
			return err
		}

		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices WHERE id = ?", key).Scan(&n); err != nil {
			return fmt.Errorf("check invoice: %w", err)
		}
		if n == 0 {
			return nil
		}

		if err := requireCustomer(ctx, db, customerID); err != nil {
			return err
		}
		_, err = db.ExecContext(ctx,
			"UPDATE invoices SET date = ?, number = ?, customerId = ? WHERE id = ?",
			inv.Date, inv.Number, customerID, key,
		)
		return err
	})
}

// Delete removes only the invoice with id.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	return r.s.mutate(ctx, "delete invoice", func(db *sql.DB) error {
		key, err := parseID(id)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", key)
		return err
	})
}

// DeleteByCustomer removes every invoice of a customer. Deleting none is
// not an error.
func (r *InvoiceRepository) DeleteByCustomer(ctx context.Context, customerID string) error {
	return r.s.mutate(ctx, "delete customer invoices", func(db *sql.DB) error {
		customerID, err := canonicalID(customerID)
		if err != nil {
			return err
		}
		return deleteInvoicesByCustomer(ctx, db, customerID)
	})
}

// deleteInvoicesByCustomer expects customerID in canonical form.
func deleteInvoicesByCustomer(ctx context.Context, ex execer, customerID string) error {
	if _, err := ex.ExecContext(ctx, "DELETE FROM invoices WHERE customerId = ?", customerID); err != nil {
		return fmt.Errorf("delete invoices of customer %s: %w", customerID, err)
	}
	return nil
}

// requireCustomer fails with ErrCustomerNotFound unless customerID exists.
func requireCustomer(ctx context.Context, db *sql.DB, customerID string) error {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers WHERE id = ?", customerID).Scan(&n)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrCustomerNotFound, customerID)
	}
	return nil
}

func (r *InvoiceRepository) query(ctx context.Context, op, q string, args ...any) ([]record.Invoice, error) {
	db, err := r.s.ready(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, repoError(op, err)
	}
	defer rows.Close()

	invoices := []record.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, repoError(op, err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, repoError(op, fmt.Errorf("iterate invoices: %w", err))
	}
	return invoices, nil
}
