package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by the stage it came from.
type Kind int

const (
	// KindIO is a failure reading the input stream.
	KindIO Kind = iota + 1
	// KindFormat is a malformed line: bad JSON, a missing or mistyped
	// field, invalid Base64, or an oversized payload.
	KindFormat
	// KindStore is a failure writing a record to the database.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindStore:
		return "store"
	}
	return "unknown"
}

// Error wraps a stage failure with its Kind. Every error crossing the ingest
// loop boundary is one of these; the loop reports it and moves on.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (%v)", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or 0 if err is not a pipeline
// error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
