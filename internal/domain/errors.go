package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnknownTarget indicates a path holds nothing that can be verified
	ErrUnknownTarget = errors.New("unable to determine what to verify")

	// ErrVerificationFailed indicates at least one issue was reported
	ErrVerificationFailed = errors.New("verification failed")

	// ErrInvalidConfig indicates the configuration could not be used
	ErrInvalidConfig = errors.New("invalid configuration")
)

// VerifyFailedPrefix marks an issue produced when a verification could not
// run to completion
const VerifyFailedPrefix = "verify-failed: "

// VerifyFailed renders a fatal error as the single issue of a result
func VerifyFailed(err error) string {
	return VerifyFailedPrefix + err.Error()
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// CheckError wraps a failure of one check inside a repository run
type CheckError struct {
	Subject string
	Err     error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s: %v", e.Subject, e.Err)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// NewCheckError creates a new CheckError
func NewCheckError(subject string, err error) *CheckError {
	return &CheckError{
		Subject: subject,
		Err:     err,
	}
}
