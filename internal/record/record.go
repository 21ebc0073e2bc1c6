// Package record defines the two entity types kept by the store and their
// flat row form used for spreadsheet transfer.
package record

import "strings"

// Identifiers are engine-assigned integers carried as decimal strings.

// Customer is a person invoices are issued to.
type Customer struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Invoice belongs to one Customer through CustomerID.
type Invoice struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Number     string `json:"number"`
	CustomerID string `json:"customerId"`
}

// Row is one spreadsheet row keyed by column header.
type Row map[string]string

// Column headers, matching the JSON field names.
var (
	CustomerColumns = []string{"id", "date", "name", "phone"}
	InvoiceColumns  = []string{"id", "date", "number", "customerId"}
)

// get returns the trimmed cell for column, or "" if absent.
func (r Row) get(column string) string {
	return strings.TrimSpace(r[column])
}

// Row flattens c into a spreadsheet row.
func (c Customer) Row() Row {
	return Row{"id": c.ID, "date": c.Date, "name": c.Name, "phone": c.Phone}
}

// Row flattens inv into a spreadsheet row.
func (inv Invoice) Row() Row {
	return Row{"id": inv.ID, "date": inv.Date, "number": inv.Number, "customerId": inv.CustomerID}
}

// CustomerFromRow builds a Customer from a row. ok is false when a required
// field (id, name) is missing or empty. A name of only spaces is present and
// kept as is. Missing optional fields stay empty; the importer fills
// defaults.
func CustomerFromRow(r Row) (c Customer, ok bool) {
	c = Customer{
		ID:    r.get("id"),
		Date:  r.get("date"),
		Name:  r["name"],
		Phone: r["phone"],
	}
	if c.ID == "" || c.Name == "" {
		return Customer{}, false
	}
	return c, true
}

// InvoiceFromRow builds an Invoice from a row. ok is false when a required
// field (id, customerId) is missing.
func InvoiceFromRow(r Row) (inv Invoice, ok bool) {
	inv = Invoice{
		ID:         r.get("id"),
		Date:       r.get("date"),
		Number:     r["number"],
		CustomerID: r.get("customerId"),
	}
	if inv.ID == "" || inv.CustomerID == "" {
		return Invoice{}, false
	}
	return inv, true
}
