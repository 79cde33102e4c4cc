package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		kind   Kind
		status int
	}{
		{NotFound("errors.not_found"), KindNotFound, http.StatusNotFound},
		{AccessDenied("errors.forbidden"), KindAccessDenied, http.StatusForbidden},
		{Unauthorized("errors.unauthorized"), KindUnauthorized, http.StatusUnauthorized},
		{Conflict("errors.duplicate_email"), KindConflict, http.StatusConflict},
		{Validation("errors.invalid_sort"), KindValidation, http.StatusBadRequest},
		{ForeignKeyConstraint("errors.fk"), KindForeignKeyConstraint, http.StatusBadRequest},
		{BusinessLogic("errors.business"), KindBusinessLogic, http.StatusBadRequest},
		{DatabaseConnection("errors.database"), KindDatabaseConnection, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		require.Equal(t, tc.kind, tc.err.Kind, tc.err.MessageKey)
		require.Equal(t, tc.status, tc.err.StatusCode, tc.err.MessageKey)
		require.True(t, IsKind(tc.err, tc.kind))
		require.Equal(t, tc.status, Status(tc.err))
	}
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	base := Conflict("errors.duplicate_email")
	wrapped := fmt.Errorf("registering: %w", base)

	require.Same(t, base, From(wrapped))
	require.True(t, IsKind(wrapped, KindConflict))
	require.Nil(t, From(errors.New("plain")))
}

func TestWithCausePreservesClientMessage(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := DatabaseConnection("errors.database").WithCause(cause)

	require.ErrorIs(t, err, cause)
	require.Equal(t, "errors.database", err.MessageKey)
	require.Contains(t, err.Error(), "driver: bad connection")
}

func TestStatusDefaultsToInternalError(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, Status(errors.New("boom")))
}
