package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tinycms/internal/record"
)

// ImportCustomers upserts rows by id in one transaction. Rows missing id or
// name are skipped; an id that is not an integer fails the batch. A missing date defaults to now, a missing phone to "".
//
// Any failure rolls back the whole batch and returns an import error; on
// success the image is persisted once. The count is the number of rows
// written, not the number supplied.
func (s *Store) ImportCustomers(ctx context.Context, rows []record.Row) (int, error) {
	return s.importRows(ctx, "import customers", len(rows), func(tx *sql.Tx) (int, error) {
		n := 0
		for _, row := range rows {
			c, ok := record.CustomerFromRow(row)
			if !ok {
				continue
			}
			key, err := parseID(c.ID)
			if err != nil {
				return 0, fmt.Errorf("customer row: %w", err)
			}
			if c.Date == "" {
				c.Date = s.timestamp()
			}
			_, err = tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO customers (id, date, name, phone) VALUES (?, ?, ?, ?)",
				key, c.Date, c.Name, c.Phone,
			)
			if err != nil {
				return 0, fmt.Errorf("customer %s: %w", c.ID, err)
			}
			n++
		}
		return n, nil
	})
}

// ImportInvoices upserts rows by id in one transaction. Rows missing id or
// customerId are skipped; either one not being an integer fails the batch.
// customerId is stored in canonical form. A missing date defaults to now, a missing number
// to "". The referenced customer is not checked.
func (s *Store) ImportInvoices(ctx context.Context, rows []record.Row) (int, error) {
	return s.importRows(ctx, "import invoices", len(rows), func(tx *sql.Tx) (int, error) {
		n := 0
		for _, row := range rows {
			inv, ok := record.InvoiceFromRow(row)
			if !ok {
				continue
			}
			key, err := parseID(inv.ID)
			if err != nil {
				return 0, fmt.Errorf("invoice row: %w", err)
			}
			customerID, err := canonicalID(inv.CustomerID)
			if err != nil {
				return 0, fmt.Errorf("invoice %d customer: %w", key, err)
			}
			if inv.Date == "" {
				inv.Date = s.timestamp()
			}
			_, err = tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO invoices (id, date, number, customerId) VALUES (?, ?, ?, ?)",
				key, inv.Date, inv.Number, customerID,
			)
			if err != nil {
				return 0, fmt.Errorf("invoice %s: %w", inv.ID, err)
			}
			n++
		}
		return n, nil
	})
}

func (s *Store) importRows(ctx context.Context, op string, total int, write func(tx *sql.Tx) (int, error)) (int, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, importError(op, fmt.Errorf("begin tx: %w", err))
	}

	n, err := write(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", "op", op, "error", rbErr)
		}
		return 0, importError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, importError(op, fmt.Errorf("commit: %w", err))
	}
	s.logger.Info("import committed", "op", op, "rows", total, "imported", n)

	if err := s.persist(ctx, db); err != nil {
		return n, importError(op, err)
	}
	return n, nil
}

// ClearAll deletes every invoice and customer in one transaction.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.mutate(ctx, "clear all data", func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, "DELETE FROM invoices"); err != nil {
			return fmt.Errorf("delete invoices: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM customers"); err != nil {
			return fmt.Errorf("delete customers: %w", err)
		}
		return tx.Commit()
	})
}
