// Package errors holds the error taxonomy shared by the store, the lifecycle
// controller, the identity provider and both ends of the gRPC transport.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicatePending = errors.New("a pending request to this user already exists")
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError is bad input the caller could have caught before the round trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid is shorthand for a field-level ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError means the entity store rejected or failed to run an operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError for op. Nil stays nil; errors that already
// belong to the taxonomy pass through untouched.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		se *StoreError
		ve *ValidationError
		te *InvalidTransitionError
	)
	if errors.As(err, &se) || errors.As(err, &ve) || errors.As(err, &te) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicatePending) || errors.Is(err, ErrPermissionDenied) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// InvalidTransitionError is an attempted status change the request lifecycle forbids.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

type AuthKind string

const (
	AuthInvalidCredentials AuthKind = "invalid_credentials"
	AuthDuplicateAccount   AuthKind = "duplicate_account"
	AuthEmailNotVerified   AuthKind = "email_not_verified"
	AuthInvalidToken       AuthKind = "invalid_token"
	AuthSessionRequired    AuthKind = "session_required"
)

// AuthError is a rejection from the identity provider.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

func Auth(kind AuthKind, err error) error {
	return &AuthError{Kind: kind, Err: err}
}

// IsAuth reports whether err is an AuthError of the given kind.
func IsAuth(err error, kind AuthKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}
