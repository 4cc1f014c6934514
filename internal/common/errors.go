// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Request errors.
	ErrValidation       = errors.New("validation failed")
	ErrUnsupportedModel = errors.New("unsupported model")

	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Retrain errors.
	ErrMissingCorpus        = errors.New("base training corpus not found")
	ErrVerificationMismatch = errors.New("saved and reloaded label sets differ")
	ErrRetrainInProgress    = errors.New("retrain already in progress")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// NewValidationError wraps ErrValidation with the offending field.
func NewValidationError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// StorageError reports a feedback or rule persistence failure.
type StorageError struct {
	Err error
	Op  string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps a driver error with the failing operation.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// TrainingError reports a failure to fit or persist the lightweight classifier.
type TrainingError struct {
	Err   error
	Stage string
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed during %s: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// NewTrainingError wraps err with the retrain stage it occurred in.
func NewTrainingError(stage string, err error) error {
	return &TrainingError{Stage: stage, Err: err}
}

// ReloadWarning is attached to an otherwise successful retrain when the saved
// artifacts could not be reloaded and the fitted model was published directly.
type ReloadWarning struct {
	Err error
}

func (w *ReloadWarning) Error() string {
	if w.Err != nil {
		return fmt.Sprintf("new model published in memory, but reloading the saved artifacts failed: %v", w.Err)
	}
	return "new model published in memory, but reloading the saved artifacts failed"
}

func (w *ReloadWarning) Unwrap() error {
	return w.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry. Errors without
// retry metadata are treated as transient; cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
