package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tinycms/internal/record"
)

// CustomerPageSize caps List and Search results. There is no cursor past it.
const CustomerPageSize = 50

// CustomerRepository provides CRUD and search over customers.
type CustomerRepository struct {
	s *Store
}

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepository {
	return &CustomerRepository{s: s}
}

// Add inserts c (ignoring c.ID) and returns the assigned id.
func (r *CustomerRepository) Add(ctx context.Context, c record.Customer) (string, error) {
	var id int64
	err := r.s.mutate(ctx, "add customer", func(db *sql.DB) error {
		res, err := db.ExecContext(ctx,
			"INSERT INTO customers (date, name, phone) VALUES (?, ?, ?)",
			c.Date, c.Name, c.Phone,
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

// Get returns the customer with id. ok is false if none exists.
func (r *CustomerRepository) Get(ctx context.Context, id string) (c record.Customer, ok bool, err error) {
	key, err := parseID(id)
	if err != nil {
		return record.Customer{}, false, repoError("get customer", err)
	}

	db, err := r.s.ready(ctx)
	if err != nil {
		return record.Customer{}, false, err
	}

	c, err = scanCustomer(db.QueryRowContext(ctx,
		"SELECT id, date, name, phone FROM customers WHERE id = ?", key,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return record.Customer{}, false, nil
	}
	if err != nil {
		return record.Customer{}, false, repoError("get customer", err)
	}
	return c, true, nil
}

// List returns at most CustomerPageSize customers, newest date first.
func (r *CustomerRepository) List(ctx context.Context) ([]record.Customer, error) {
	return r.query(ctx, "list customers", `
		SELECT id, date, name, phone
		FROM customers
		ORDER BY date DESC, id DESC
		LIMIT ?
	`, CustomerPageSize)
}

// Search returns customers matching every whitespace-separated term of
// query. A term matches when it is a case-insensitive substring of the name
// or the phone. Ordering and limit are the same as List; a blank query is
// List.
func (r *CustomerRepository) Search(ctx context.Context, query string) ([]record.Customer, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return r.List(ctx)
	}

	conds := make([]string, 0, len(terms))
	args := make([]any, 0, 2*len(terms)+1)
	for _, term := range terms {
		pattern := "%" + escapeLike(casefold(term)) + "%"
		conds = append(conds,
			`(casefold(coalesce(name, '')) LIKE ? ESCAPE '\' OR casefold(coalesce(phone, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	args = append(args, CustomerPageSize)

	q := fmt.Sprintf(`
		SELECT id, date, name, phone
		FROM customers
		WHERE %s
		ORDER BY date DESC, id DESC
		LIMIT ?
	`, strings.Join(conds, " AND "))

	return r.query(ctx, "search customers", q, args...)
}

// All returns every customer ordered by id. Used by export; no page cap.
func (r *CustomerRepository) All(ctx context.Context) ([]record.Customer, error) {
	return r.query(ctx, "read all customers", `
		SELECT id, date, name, phone
		FROM customers
		ORDER BY id ASC
	`)
}

// Update replaces every field but the id of the customer matching c.ID.
// Updating a missing id succeeds and changes nothing.
func (r *CustomerRepository) Update(ctx context.Context, c record.Customer) error {
	return r.s.mutate(ctx, "update customer", func(db *sql.DB) error {
		key, err := parseID(c.ID)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx,
			"UPDATE customers SET date = ?, name = ?, phone = ? WHERE id = ?",
			c.Date, c.Name, c.Phone, key,
		)
		return err
	})
}

// Delete removes the customer and, first, every invoice referencing it.
// Both deletes commit together. Ids are compared as integers, so "01"
// deletes customer 1 and its invoices.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	return r.s.mutate(ctx, "delete customer", func(db *sql.DB) error {
		key, err := parseID(id)
		if err != nil {
			return err
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() // No-op if committed

		if err := deleteInvoicesByCustomer(ctx, tx, formatID(key)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", key); err != nil {
			return fmt.Errorf("delete customer row: %w", err)
		}
		return tx.Commit()
	})
}

func (r *CustomerRepository) query(ctx context.Context, op, q string, args ...any) ([]record.Customer, error) {
	db, err := r.s.ready(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, repoError(op, err)
	}
	defer rows.Close()

	customers := []record.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, repoError(op, err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, repoError(op, fmt.Errorf("iterate customers: %w", err))
	}
	return customers, nil
}

// escapeLike escapes LIKE metacharacters so a term matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
