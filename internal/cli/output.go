package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/roach88/tinycms/internal/record"
	"github.com/roach88/tinycms/internal/transfer"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (repository, import, not found)
	ExitCommandError = 2 // Command error (bad config, store could not be opened, bad input file)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    int    `json:"code"`    // process exit code
	Message string `json:"message"` // human-readable message
}

// Success outputs a successful result in the configured format.
// Text output prints data with fmt, so result types implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs err in the configured format.
func (f *OutputFormatter) Error(err error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    GetExitCode(err),
				Message: err.Error(),
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error: %v\n", err)
	return nil
}

// idResult reports the id of a created record.
type idResult struct {
	Kind string `json:"-"`
	ID   string `json:"id"`
}

func (r idResult) String() string {
	return fmt.Sprintf("Added %s %s", r.Kind, r.ID)
}

// message is a plain confirmation.
type message struct {
	Text string `json:"message"`
}

func (m message) String() string {
	return m.Text
}

// importResult wraps transfer.Result for text output.
type importResult transfer.Result

func (r importResult) String() string {
	return fmt.Sprintf("Imported %d customers, %d invoices", r.CustomersImported, r.InvoicesImported)
}

type customerTable []record.Customer

func (t customerTable) String() string {
	return renderTable([]string{"ID", "DATE", "NAME", "PHONE"}, len(t), func(i int) []string {
		c := t[i]
		return []string{c.ID, c.Date, c.Name, c.Phone}
	})
}

type invoiceTable []record.Invoice

func (t invoiceTable) String() string {
	return renderTable([]string{"ID", "DATE", "NUMBER", "CUSTOMER"}, len(t), func(i int) []string {
		inv := t[i]
		return []string{inv.ID, inv.Date, inv.Number, inv.CustomerID}
	})
}

// renderTable aligns a header and n rows into columns.
func renderTable(header []string, n int, row func(i int) []string) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i := 0; i < n; i++ {
		fmt.Fprintln(tw, strings.Join(row(i), "\t"))
	}
	tw.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}
