package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors for common database conditions.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// wrapDBError wraps a database error with operation context and converts
// sql.ErrNoRows to ErrNotFound for consistent handling.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapDBErrorf wraps a database error with formatted operation context.
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return wrapDBError(fmt.Sprintf(format, args...), err)
}

// IsNotFound checks whether an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// mustSucceed panics on a database error. Used inside the block transition,
// where a failing write is an invariant failure that must halt the node
// rather than desync it.
func mustSucceed(op string, err error) {
	if err != nil {
		panic(fmt.Sprintf("storage: %s: %v", op, err))
	}
}
