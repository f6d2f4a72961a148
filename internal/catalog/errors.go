package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData indicates that no catalog records were found in any source.
	// Callers treat it as a status to report, not a failure to abort on.
	ErrNoData = errors.New("no catalog data found")

	// ErrMalformedRecord indicates a record is missing a required field.
	ErrMalformedRecord = errors.New("malformed catalog record")
)

// MalformedRecordError identifies the first record that failed validation.
type MalformedRecordError struct {
	Source string
	Index  int
	Field  string
	Detail string
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("%s: record %d: invalid field %q", e.Source, e.Index, e.Field)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}
