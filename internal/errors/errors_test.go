package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pribylovaa/go-crm/internal/service"
	"github.com/stretchr/testify/require"
)

func TestToHTTP_ServiceMapping(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("service.x: %w", err) }

	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"credentials", wrap(service.ErrInvalidCredentials), http.StatusUnauthorized, CodeUnauthenticated, "Incorrect email or password"},
		{"invalid_token", wrap(service.ErrInvalidToken), http.StatusUnauthorized, CodeUnauthenticated, "Token is invalid or expired"},
		{"expired", wrap(service.ErrTokenExpired), http.StatusUnauthorized, CodeUnauthenticated, "Token is invalid or expired"},
		{"kind", wrap(service.ErrTokenKindMismatch), http.StatusUnauthorized, CodeUnauthenticated, "Token is invalid or expired"},
		{"subject", wrap(service.ErrMissingSubject), http.StatusUnauthorized, CodeUnauthenticated, "Invalid token payload"},
		{"user_not_found", wrap(service.ErrUserNotFound), http.StatusNotFound, CodeNotFound, "User not found"},
		{"contact_exists", wrap(service.ErrContactExists), http.StatusBadRequest, CodeAlreadyExists, "Contact already exists"},
		{"invalid_contact", wrap(service.ErrInvalidContact), http.StatusBadRequest, CodeInvalidArgument, "Invalid request body"},
		{"canceled", wrap(context.Canceled), StatusClientClosedRequest, CodeCanceled, "Request canceled"},
		{"deadline", wrap(context.DeadlineExceeded), http.StatusGatewayTimeout, CodeDeadlineExceeded, "Request timed out"},
		{"unknown", errors.New("mongo: connection refused"), http.StatusInternalServerError, CodeInternal, "Internal server error"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, body := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, body.Code)
			require.Equal(t, tc.wantDetail, body.Detail)
		})
	}
}

func TestToHTTP_NilError_Returns500(t *testing.T) {
	gotStatus, body := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, CodeInternal, body.Code)
}

func TestToHTTP_APIErrorPassesThrough(t *testing.T) {
	err := fmt.Errorf("handler: %w", BadRequest("Refresh token missing"))

	gotStatus, body := ToHTTP(err)
	require.Equal(t, http.StatusBadRequest, gotStatus)
	require.Equal(t, "Refresh token missing", body.Detail)
}

func TestToHTTP_ValidationErrorCarriesFields(t *testing.T) {
	verr := &service.ValidationError{Fields: validation.Errors{"email": errors.New("must be a valid email address")}}

	gotStatus, body := ToHTTP(fmt.Errorf("op: %w", verr))
	require.Equal(t, http.StatusBadRequest, gotStatus)
	require.Equal(t, CodeInvalidArgument, body.Code)
	require.Contains(t, body.Detail, "email")
}

func TestWriteError_BodyAndRequestID(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-Request-Id", "rid-123")

	WriteError(rr, req, service.ErrUserNotFound)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, map[string]string{
		"detail":     "User not found",
		"code":       CodeNotFound,
		"request_id": "rid-123",
	}, body)
}

func TestWriteError_NoInternalLeak(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)

	WriteError(rr, req, errors.New("dial tcp 10.0.0.5:27017: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "10.0.0.5")
	require.NotContains(t, rr.Body.String(), "request_id")
}
