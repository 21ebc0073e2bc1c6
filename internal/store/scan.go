package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tinycms/internal/record"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func scanCustomer(row rowScanner) (record.Customer, error) {
	var (
		id                int64
		date, name, phone sql.NullString
	)
	if err := row.Scan(&id, &date, &name, &phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Customer{}, err
		}
		return record.Customer{}, fmt.Errorf("scan customer: %w", err)
	}
	return record.Customer{
		ID:    formatID(id),
		Date:  date.String,
		Name:  name.String,
		Phone: phone.String,
	}, nil
}

func scanInvoice(row rowScanner) (record.Invoice, error) {
	var (
		id                       int64
		date, number, customerID sql.NullString
	)
	if err := row.Scan(&id, &date, &number, &customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Invoice{}, err
		}
		return record.Invoice{}, fmt.Errorf("scan invoice: %w", err)
	}
	return record.Invoice{
		ID:         formatID(id),
		Date:       date.String,
		Number:     number.String,
		CustomerID: customerID.String,
	}, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseID converts an id to the integer row key. Surrounding space and
// leading zeros are accepted, so "01" and "1" name the same row.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return n, nil
}

// canonicalID returns id in the form ids are stored and compared as text,
// which is how invoices reference customers.
func canonicalID(id string) (string, error) {
	n, err := parseID(id)
	if err != nil {
		return "", err
	}
	return formatID(n), nil
}
