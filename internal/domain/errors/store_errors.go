package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrTableMissing means the target table does not exist in the store
	ErrTableMissing = errors.New("table does not exist")
	// ErrProcedureMissing means the invoice insert function is not installed
	ErrProcedureMissing = errors.New("stored procedure does not exist")
)

// StoreError represents a failed read or write against the target store
type StoreError struct {
	Op         string
	Table      string
	StatusCode int
	Code       string
	Message    string
	// Kind is one of the sentinel errors above, or nil
	Kind  error
	Cause error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Table)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" (%s)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel kind so callers can use errors.Is(err, ErrTableMissing)
func (e *StoreError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}
