package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownSupplier = errors.New("supplier not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoIncident      = errors.New("no incident flagged")
)

// BulkValidationError is returned when a bulk upload fails the validation gate.
// No row of the batch has been applied when this error is returned.
type BulkValidationError struct {
	Errors []string
}

func (e *BulkValidationError) Error() string {
	return fmt.Sprintf("found %d validation errors: %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

// TableError reports that the supplier table could not be read or written.
type TableError struct {
	// Op is "load" or "save".
	Op  string
	Err error
}

func (e *TableError) Error() string {
	return e.Op + " supplier table: " + e.Err.Error()
}

func (e *TableError) Unwrap() error {
	return e.Err
}
