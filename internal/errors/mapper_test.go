package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/approach/internal/errors"
)

func TestMap_Codes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", svcErr.Invalid("message", "must not be empty"), codes.InvalidArgument},
		{"transition", &svcErr.InvalidTransitionError{From: "accepted", To: "rejected"}, codes.FailedPrecondition},
		{"auth", svcErr.Auth(svcErr.AuthInvalidCredentials, nil), codes.Unauthenticated},
		{"duplicate signup", svcErr.Auth(svcErr.AuthDuplicateAccount, nil), codes.AlreadyExists},
		{"duplicate pending", svcErr.ErrDuplicatePending, codes.AlreadyExists},
		{"forbidden", svcErr.ErrPermissionDenied, codes.PermissionDenied},
		{"gorm not found", gorm.ErrRecordNotFound, codes.NotFound},
		{"wrapped not found", fmt.Errorf("load: %w", svcErr.ErrNotFound), codes.NotFound},
		{"store", svcErr.Store("insert thread", errors.New("disk full")), codes.Unavailable},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(svcErr.Map(tc.err)))
		})
	}
	assert.NoError(t, svcErr.Map(nil))
}

func TestFromStatus_RoundTrip(t *testing.T) {
	var ve *svcErr.ValidationError
	err := svcErr.FromStatus(svcErr.Map(svcErr.Invalid("message", "must not be empty")))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "message", ve.Field)
	assert.Equal(t, "must not be empty", ve.Reason)

	var te *svcErr.InvalidTransitionError
	err = svcErr.FromStatus(svcErr.Map(&svcErr.InvalidTransitionError{From: "accepted", To: "rejected"}))
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "accepted", te.From)
	assert.Equal(t, "rejected", te.To)

	err = svcErr.FromStatus(svcErr.Map(svcErr.Auth(svcErr.AuthEmailNotVerified, nil)))
	assert.True(t, svcErr.IsAuth(err, svcErr.AuthEmailNotVerified))

	assert.ErrorIs(t, svcErr.FromStatus(svcErr.Map(svcErr.ErrDuplicatePending)), svcErr.ErrDuplicatePending)
	assert.ErrorIs(t, svcErr.FromStatus(svcErr.Map(svcErr.ErrNotFound)), svcErr.ErrNotFound)
}

func TestStore_PassesTaxonomyThrough(t *testing.T) {
	ve := svcErr.Invalid("content", "must not be empty")
	assert.Same(t, ve, svcErr.Store("create thread", ve))
	assert.Nil(t, svcErr.Store("noop", nil))

	var se *svcErr.StoreError
	require.ErrorAs(t, svcErr.Store("list users", errors.New("conn reset")), &se)
	assert.Equal(t, "list users", se.Op)
}
