// Copyright 2026 Peter Edge
//
// All rights reserved.

package gainsctlledger

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError is a fatal ledger-wide validation failure.
//
// Exactly one of InvalidActions and MissingColumns is set.
type ValidationError struct {
	// InvalidActions are the distinct raw Action values that are not Buy or Sell,
	// in order of first appearance.
	InvalidActions []string
	// MissingColumns are the required columns absent from the header.
	MissingColumns []string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if len(e.MissingColumns) > 0 {
		return "Missing required columns: " + strings.Join(e.MissingColumns, ", ")
	}
	quoted := make([]string, len(e.InvalidActions))
	for i, value := range e.InvalidActions {
		quoted[i] = strconv.Quote(value)
	}
	return fmt.Sprintf(
		"Invalid Action values found: [%s]. Only 'Buy'/'Sell' (case insensitive) are allowed.",
		strings.Join(quoted, ", "),
	)
}

// ProcessingError is a failure while processing a ledger or one report pass.
type ProcessingError struct {
	Err error
}

// NewProcessingError wraps err as a *ProcessingError.
func NewProcessingError(err error) *ProcessingError {
	return &ProcessingError{Err: err}
}

// Error implements error.
func (e *ProcessingError) Error() string {
	return "Data processing error: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func newProcessingErrorf(format string, args ...any) *ProcessingError {
	return NewProcessingError(fmt.Errorf(format, args...))
}
