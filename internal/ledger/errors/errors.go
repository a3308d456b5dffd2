package errors

import (
	"errors"
	"fmt"
)

// ValidationError means the intent was rejected before any write happened.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

// ReferenceError means a referenced document (account, category, transaction)
// does not exist at commit time. The usual cause is stale client state.
type ReferenceError struct {
	Msg string
}

func (e *ReferenceError) Error() string {
	return e.Msg
}

func NewReferenceError(msg string) error {
	return &ReferenceError{Msg: msg}
}

func NewReferenceErrorf(format string, args ...interface{}) error {
	return &ReferenceError{Msg: fmt.Sprintf(format, args...)}
}

func IsReferenceError(err error) bool {
	var referenceError *ReferenceError
	return errors.As(err, &referenceError)
}

// CommitError wraps a failed store write. Commits are atomic, so no partial
// state is visible and the whole operation can be retried.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

func NewCommitError(err error) error {
	return &CommitError{Err: err}
}

func IsCommitError(err error) bool {
	var commitError *CommitError
	return errors.As(err, &commitError)
}

var ErrInvalidAmount = NewValidationError("Amount must be a positive integer")
var ErrSameAccountTransfer = NewValidationError("Source and target accounts must differ")
var ErrInvalidCategory = NewReferenceError("Referenced category does not exist")
