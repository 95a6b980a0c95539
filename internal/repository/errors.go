package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrConflict marks a transaction that lost a uniqueness or serialization
// race. Callers may retry the operation a bounded number of times.
var ErrConflict = errors.New("transaction conflict")

// ErrAttemptLimitReached is returned by the submit transaction when the
// stored attempt count already equals the task's attempt budget.
var ErrAttemptLimitReached = errors.New("attempt limit reached")

// isRetryable reports whether the error stems from a lost write race rather
// than a permanent failure.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// translateError maps driver-level race failures onto ErrConflict and passes
// everything else through untouched.
func translateError(err error) error {
	if isRetryable(err) {
		return ErrConflict
	}
	return err
}
