package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/modhaven/modhaven/internal/core/domain"
)

func handle(t *testing.T, err error) (int, string) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not the error envelope: %v", err)
	}
	return rec.Code, body.Error
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"namespace not found", domain.ErrNamespaceNotFound, http.StatusNotFound},
		{"package not found", domain.ErrPackageNotFound, http.StatusNotFound},
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"namespace conflict", domain.ErrNamespaceConflict, http.StatusConflict},
		{"username taken", domain.ErrAccountExists, http.StatusConflict},
		{"invalid prefix", domain.ErrInvalidPrefix, http.StatusBadRequest},
		{"invalid username", domain.ErrInvalidUsername, http.StatusBadRequest},
		{"invalid package", domain.ErrInvalidPackage, http.StatusBadRequest},
		{"invalid role", domain.ErrInvalidRole, http.StatusBadRequest},
		{"permission denied", domain.ErrPermissionDenied, http.StatusForbidden},
		{"not invited", domain.ErrNotInvited, http.StatusForbidden},
		{"invite not accepted", domain.ErrInviteNotAccepted, http.StatusForbidden},
		{"banned", domain.ErrBanned, http.StatusForbidden},
		{"upload limit", domain.ErrUploadLimit, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := handle(t, tc.err)
			if code != tc.code {
				t.Errorf("expected status %d, got %d", tc.code, code)
			}
		})
	}
}

func TestErrorHandler_WrappedErrorKeepsMessage(t *testing.T) {
	// Conflict messages name the blocking prefix; the client needs it.
	code, msg := handle(t, fmt.Errorf("%w: x.y.*", domain.ErrNamespaceConflict))
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if msg != "conflicts with existing namespace: x.y.*" {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorHandler_EchoErrorPassesThrough(t *testing.T) {
	code, msg := handle(t, echo.NewHTTPError(http.StatusUnauthorized, "invalid token"))
	if code != http.StatusUnauthorized || msg != "invalid token" {
		t.Errorf("unexpected response: %d %q", code, msg)
	}
}

func TestErrorHandler_UnknownErrorIsOpaque(t *testing.T) {
	code, msg := handle(t, errors.New("connection reset by peer"))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if msg != "internal server error" {
		t.Errorf("internals must not leak, got %q", msg)
	}
}
