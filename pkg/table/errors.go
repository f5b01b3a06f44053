package table

import (
	"fmt"
)

// ParseError reports a malformed timestamp, numeric field or row. Column is
// empty when the whole row could not be split into fields.
type ParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("parse error at row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("parse error in column %q at row %d (value %q): %v", e.Column, e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports a column that is missing from a source or whose
// values cannot be coerced to the declared type.
type SchemaError struct {
	Column string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema error in column %q: %s", e.Column, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ColumnNotFoundError is returned when a requested column is absent.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

func newSchemaError(column, reason string, err error) *SchemaError {
	return &SchemaError{
		Column: column,
		Reason: reason,
		Err:    err,
	}
}
