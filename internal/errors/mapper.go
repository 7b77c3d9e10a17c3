// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts taxonomy and infra errors into gRPC status errors.
// Keeps the service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var (
		ve *ValidationError
		te *InvalidTransitionError
		ae *AuthError
		se *StoreError
	)

	switch {
	case errors.As(err, &ve):
		return invalidArgument(ve)

	case errors.As(err, &te):
		return status.Error(codes.FailedPrecondition, te.Error())

	case errors.As(err, &ae):
		if ae.Kind == AuthDuplicateAccount {
			return status.Error(codes.AlreadyExists, ae.Error())
		}
		return status.Error(codes.Unauthenticated, ae.Error())

	case errors.Is(err, ErrDuplicatePending):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	case errors.As(err, &se):
		return status.Error(codes.Unavailable, se.Error())

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

func invalidArgument(ve *ValidationError) error {
	st := status.New(codes.InvalidArgument, ve.Error())
	detailed, err := st.WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{Field: ve.Field, Description: ve.Reason},
		},
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// FromStatus turns a gRPC status error back into the taxonomy so callers of
// the client SDK can use errors.As the same way server code does.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.InvalidArgument:
		for _, d := range st.Details() {
			if br, ok := d.(*errdetails.BadRequest); ok && len(br.GetFieldViolations()) > 0 {
				fv := br.GetFieldViolations()[0]
				return &ValidationError{Field: fv.GetField(), Reason: fv.GetDescription()}
			}
		}
		return &ValidationError{Reason: st.Message()}
	case codes.FailedPrecondition:
		te := &InvalidTransitionError{}
		_, _ = fmt.Sscanf(st.Message(), "invalid transition from %q to %q", &te.From, &te.To)
		return te
	case codes.Unauthenticated:
		return &AuthError{Kind: authKindFrom(st.Message()), Err: errors.New(st.Message())}
	case codes.AlreadyExists:
		if st.Message() == ErrDuplicatePending.Error() {
			return ErrDuplicatePending
		}
		return &AuthError{Kind: AuthDuplicateAccount, Err: errors.New(st.Message())}
	case codes.PermissionDenied:
		return ErrPermissionDenied
	case codes.NotFound:
		return ErrNotFound
	case codes.Unavailable, codes.Internal:
		return &StoreError{Op: "remote", Err: errors.New(st.Message())}
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Canceled:
		return context.Canceled
	}
	return err
}

func authKindFrom(msg string) AuthKind {
	for _, k := range []AuthKind{AuthInvalidCredentials, AuthEmailNotVerified, AuthInvalidToken, AuthSessionRequired} {
		if strings.HasPrefix(msg, "auth: "+string(k)) {
			return k
		}
	}
	return AuthInvalidToken
}
