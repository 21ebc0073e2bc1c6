package store

import (
	"errors"
	"fmt"

	"github.com/roach88/tinycms/internal/snapshot"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeInitialization indicates the engine could not produce a handle
	// or the schema could not be created.
	ErrCodeInitialization ErrorCode = "INITIALIZATION"

	// ErrCodeRepository indicates a query or persist failure in a
	// repository operation.
	ErrCodeRepository ErrorCode = "REPOSITORY"

	// ErrCodeImport indicates a sheet import transaction was rolled back.
	ErrCodeImport ErrorCode = "IMPORT"
)

// ErrInvalidID is the cause of a repository or import error when an id is
// not a decimal integer.
var ErrInvalidID = errors.New("invalid id")

// ErrCustomerNotFound is the cause of a repository error when an invoice
// names a customer that does not exist.
var ErrCustomerNotFound = errors.New("customer not found")

// Error is returned by every public store operation that fails.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the failed operation, e.g. "add customer".
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func initError(op string, err error) *Error {
	return &Error{Code: ErrCodeInitialization, Op: op, Err: err}
}

func repoError(op string, err error) *Error {
	return &Error{Code: ErrCodeRepository, Op: op, Err: err}
}

func importError(op string, err error) *Error {
	return &Error{Code: ErrCodeImport, Op: op, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsInitializationError reports whether err is an initialization failure.
func IsInitializationError(err error) bool {
	return hasCode(err, ErrCodeInitialization)
}

// IsRepositoryError reports whether err is a repository failure.
func IsRepositoryError(err error) bool {
	return hasCode(err, ErrCodeRepository)
}

// IsImportError reports whether err is a rolled-back sheet import.
func IsImportError(err error) bool {
	return hasCode(err, ErrCodeImport)
}

// IsCorruptSnapshot reports whether err comes from an undecodable snapshot.
// Initialization recovers from these by starting a new database.
func IsCorruptSnapshot(err error) bool {
	return errors.Is(err, snapshot.ErrCorrupt)
}
