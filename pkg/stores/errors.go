package stores

import (
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
)

// ErrorCode classifies store failures for caller branching.
type ErrorCode string

const (
	// ErrCodeStoreInit indicates a path, permission, or open failure
	// during first-time setup. Fatal to startup.
	ErrCodeStoreInit ErrorCode = "STORE_INIT_ERROR"

	// ErrCodeMigration indicates a schema upgrade failure. Fatal to
	// startup; the failing migration is rolled back, earlier ones stay.
	ErrCodeMigration ErrorCode = "MIGRATION_ERROR"

	// ErrCodeNotFound indicates a mutation targeting a missing row.
	// Reads report a miss as a nil result instead.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeConstraint indicates a unique-key or foreign-key violation.
	// Recoverable by the caller re-validating input.
	ErrCodeConstraint ErrorCode = "CONSTRAINT_VIOLATION"

	// ErrCodeDecode indicates a stored row that cannot be parsed back
	// into its entity shape.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
)

// StoreError is a classified persistence error.
// nolint:revive // StoreError is intentionally named to distinguish from standard errors
type StoreError struct {
	Code ErrorCode
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Op, e.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Op)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newStoreError(code ErrorCode, op string, err error) *StoreError {
	return &StoreError{Code: code, Op: op, Err: err}
}

// notFoundError reports a mutation against a missing row.
func notFoundError(op string, key interface{}) *StoreError {
	return &StoreError{
		Code: ErrCodeNotFound,
		Op:   op,
		Err:  fmt.Errorf("no row for %v", key),
	}
}

// classifyExecError rewraps SQLite constraint failures so callers can
// branch on the constraint class; everything else passes through wrapped.
func classifyExecError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		return newStoreError(ErrCodeConstraint, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isConstraintViolation detects SQLITE_CONSTRAINT and its extended
// result codes (unique, foreign key, check).
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == 19
	}
	return false
}

// IsNotFound returns true if the error is a missing-row outcome.
func IsNotFound(err error) bool {
	var e *StoreError
	if errors.As(err, &e) {
		return e.Code == ErrCodeNotFound
	}
	return false
}

// IsConstraint returns true if the error is a constraint violation.
func IsConstraint(err error) bool {
	var e *StoreError
	if errors.As(err, &e) {
		return e.Code == ErrCodeConstraint
	}
	return false
}

// IsDecode returns true if the error is a row decode failure.
func IsDecode(err error) bool {
	var e *StoreError
	if errors.As(err, &e) {
		return e.Code == ErrCodeDecode
	}
	return false
}

// IsStoreInit returns true if the error occurred during store setup.
func IsStoreInit(err error) bool {
	var e *StoreError
	if errors.As(err, &e) {
		return e.Code == ErrCodeStoreInit
	}
	return false
}

// IsMigration returns true if the error occurred during schema upgrade.
func IsMigration(err error) bool {
	var e *StoreError
	if errors.As(err, &e) {
		return e.Code == ErrCodeMigration
	}
	return false
}
