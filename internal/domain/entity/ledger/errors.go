package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInstrumentNotFound reports an absent instrument. It is a lookup outcome, not a store failure.
	ErrInstrumentNotFound = errors.New("instrument not found")
	// ErrSymbolExists reports a symbol uniqueness violation on registration.
	ErrSymbolExists = errors.New("instrument symbol already exists")
)

// StoreError wraps any failure of the persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err for operation op. A nil err stays nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err carries a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
