package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodesAndStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		code       string
		httpStatus int
	}{
		{"no session", NewNoSessionFound("endpoint-1"), "NO_SESSION_FOUND", http.StatusNotFound},
		{"ticket not found", NewTicketNotFound("ticket-1"), "TICKET_NOT_FOUND", http.StatusNotFound},
		{"send failure", NewChannelSendFailure("whatsapp", errors.New("socket closed")), "CHANNEL_SEND_FAILED", http.StatusBadGateway},
		{"validation", NewValidationError("invalid ticket status", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{"unauthorized", NewUnauthorized("invalid credentials"), "UNAUTHORIZED", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var domainErr *DomainError
			require.ErrorAs(t, tt.err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
			assert.Equal(t, tt.httpStatus, domainErr.HTTPStatus)
			assert.True(t, IsCode(tt.err, tt.code))
		})
	}
}

func TestSendFailureWrapsCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewChannelSendFailure("whatsapp", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "whatsapp")
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	wrapped := fmt.Errorf("load ticket: %w", pgx.ErrNoRows)
	domainErr := ToDomainError(wrapped)

	require.NotNil(t, domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewTicketNotFound("ticket-1")
	assert.Same(t, original, error(ToDomainError(original)))

	assert.Nil(t, ToDomainError(nil))
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	domainErr := ToDomainError(errors.New("boom"))
	require.NotNil(t, domainErr)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
}
