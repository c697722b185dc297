// Package parsererror defines the error types raised while ingesting and
// classifying transaction rows.
package parsererror

import (
	"fmt"
	"strings"
)

// ParseError is a field that could not be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s='%s': %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RowError is a row-level failure. The row is skipped and the batch goes on.
// Row is 1-based and counts data rows only.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// MissingColumnsError aborts a whole import: a mandatory logical column has
// no matching header.
type MissingColumnsError struct {
	Missing []string
	Header  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "))
}

// BatchError is raised when no processed row of a non-empty batch
// succeeded. First carries the first underlying failure. Processed is
// below Total when the error cap stopped the batch early; zero means
// every row was processed.
type BatchError struct {
	Total     int
	Processed int
	First     error
	Errors    []string
}

func (e *BatchError) Error() string {
	msg := fmt.Sprintf("all %d rows failed", e.Total)
	if e.Processed > 0 && e.Processed < e.Total {
		msg = fmt.Sprintf("all %d processed rows failed, stopped before the remaining %d of %d rows",
			e.Processed, e.Total-e.Processed, e.Total)
	}
	if e.First == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.First)
}

func (e *BatchError) Unwrap() error {
	return e.First
}

// CategorizationError describes a classification attempt that failed. It is
// logged, never returned to callers of the classifier.
type CategorizationError struct {
	Description string
	Strategy    string
	Err         error
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("categorization failed for %q using %s: %v",
		e.Description, e.Strategy, e.Err)
}

func (e *CategorizationError) Unwrap() error {
	return e.Err
}

// ValidationError is input rejected before any processing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
