package vault

import (
	"errors"
	"fmt"
)

// Stable error codes, used to map domain errors onto transport responses.
const (
	errCodePermissionDenied uint32 = 1101
	errCodeUnknownSigner    uint32 = 1102
	errCodeInvalidSignature uint32 = 1103
	errCodeInvalidState     uint32 = 1104
)

// PermissionDeniedError indicates the acting identity lacks vault membership
// or an elevated role required for the attempted operation.
type PermissionDeniedError struct {
	MemberID string
	VaultID  string
}

func (e PermissionDeniedError) Error() string {
	return fmt.Sprintf("member %s has no permission on vault %s", e.MemberID, e.VaultID)
}

// Code returns the error code for this error type
func (e PermissionDeniedError) Code() uint32 {
	return errCodePermissionDenied
}

// UnknownSignerError indicates the referenced address is not a required
// signer of the transaction.
type UnknownSignerError struct {
	TransactionID Identifier
	Account       Address
}

func (e UnknownSignerError) Error() string {
	return fmt.Sprintf("account %s is not a witness of transaction %s", e.Account, e.TransactionID)
}

// Code returns the error code for this error type
func (e UnknownSignerError) Code() uint32 {
	return errCodeUnknownSigner
}

// InvalidSignatureError indicates a supplied signature does not verify
// against the transaction hash and the claimed signer address.
type InvalidSignatureError struct {
	Account Address
	Err     error
}

func (e InvalidSignatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signature of %s does not match the transaction hash: %s", e.Account, e.Err)
	}
	return fmt.Sprintf("signature of %s does not match the transaction hash", e.Account)
}

// Code returns the error code for this error type
func (e InvalidSignatureError) Code() uint32 {
	return errCodeInvalidSignature
}

// Unwrap unwraps the error
func (e InvalidSignatureError) Unwrap() error {
	return e.Err
}

// InvalidStateError indicates an operation was attempted against a
// transaction whose lifecycle status does not allow it.
type InvalidStateError struct {
	TransactionID Identifier
	Status        TransactionStatus
	Operation     string
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s transaction %s in status %s", e.Operation, e.TransactionID, e.Status)
}

// Code returns the error code for this error type
func (e InvalidStateError) Code() uint32 {
	return errCodeInvalidState
}

// IsInvalidStateError returns whether the error is an InvalidStateError.
func IsInvalidStateError(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}

// IsInvalidSignatureError returns whether the error is an InvalidSignatureError.
func IsInvalidSignatureError(err error) bool {
	var target InvalidSignatureError
	return errors.As(err, &target)
}
