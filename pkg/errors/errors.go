package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies why a message was rejected by the pipeline. The values
// are wire-visible: they appear in DLQ records and in the stats endpoint.
type ErrorType string

const (
	TypeJSON       ErrorType = "json_error"
	TypeValidation ErrorType = "validation_error"
	TypeProcessing ErrorType = "processing_error"
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) IsRetryable() bool {
	return true
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func NewRetryableError(err error) RetryableError {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

type FatalError interface {
	error
	IsFatal() bool
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string {
	return e.err.Error()
}

func (e *fatalError) IsFatal() bool {
	return true
}

func (e *fatalError) Unwrap() error {
	return e.err
}

func NewFatalError(err error) FatalError {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

func IsFatal(err error) bool {
	var fatalErr FatalError
	return errors.As(err, &fatalErr) && fatalErr.IsFatal()
}

// RejectionError carries the DLQ classification for a rejected message.
type RejectionError struct {
	Type   ErrorType
	Reason string
	Cause  error
}

func (e *RejectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Cause
}

func NewRejection(errType ErrorType, reason string, cause error) *RejectionError {
	return &RejectionError{Type: errType, Reason: reason, Cause: cause}
}
