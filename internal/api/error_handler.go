package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/modhaven/modhaven/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors map to deterministic HTTP codes. Conflict and
	// permission errors keep their message: it names the blocking prefix
	// or package, and the client needs it.
	switch {
	case errors.Is(err, domain.ErrNamespaceNotFound):
		return http.StatusNotFound, "namespace not found"
	case errors.Is(err, domain.ErrPackageNotFound):
		return http.StatusNotFound, "package not found"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, domain.ErrNamespaceConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, domain.ErrInvalidPrefix):
		return http.StatusBadRequest, "prefix must end with a symbol"
	case errors.Is(err, domain.ErrInvalidUsername):
		return http.StatusBadRequest, "username may only contain lowercase letters, digits, '_' and '-'"
	case errors.Is(err, domain.ErrInvalidPackage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "role must be admin or collaborator"
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotInvited):
		return http.StatusForbidden, "no pending invite"
	case errors.Is(err, domain.ErrInviteNotAccepted):
		return http.StatusForbidden, "member has not accepted their invite"
	case errors.Is(err, domain.ErrBanned):
		return http.StatusForbidden, "account is banned"
	case errors.Is(err, domain.ErrUploadLimit):
		return http.StatusTooManyRequests, "daily new package limit reached"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
