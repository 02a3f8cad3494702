package chain

import (
	"errors"
	"fmt"
)

// Stable error codes, used to map chain errors onto transport responses.
const (
	errCodeSubmission   uint32 = 1201
	errCodeVerification uint32 = 1202
)

// SubmissionError indicates the chain rejected a submission or the submission
// could not be delivered. It is never retried automatically; a fresh submit
// is required once the underlying issue is fixed.
type SubmissionError struct {
	Err error
}

func NewSubmissionError(err error) *SubmissionError {
	return &SubmissionError{Err: err}
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("chain submission failed: %s", e.Err)
}

// Code returns the error code for this error type
func (e *SubmissionError) Code() uint32 {
	return errCodeSubmission
}

// Unwrap unwraps the error
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsSubmissionError returns whether the error is a SubmissionError.
func IsSubmissionError(err error) bool {
	var target *SubmissionError
	return errors.As(err, &target)
}

// VerificationError indicates a transient failure fetching chain status. It
// is swallowed at the reconciliation boundary and retried on the next poll.
type VerificationError struct {
	Err error
}

func NewVerificationError(err error) *VerificationError {
	return &VerificationError{Err: err}
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("chain status lookup failed: %s", e.Err)
}

// Code returns the error code for this error type
func (e *VerificationError) Code() uint32 {
	return errCodeVerification
}

// Unwrap unwraps the error
func (e *VerificationError) Unwrap() error {
	return e.Err
}

// IsVerificationError returns whether the error is a VerificationError.
func IsVerificationError(err error) bool {
	var target *VerificationError
	return errors.As(err, &target)
}
