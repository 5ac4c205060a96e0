package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/api/middleware"
	"github.com/modhaven/modhaven/internal/core/domain"
)

// ctxActor extracts the account injected by the Auth middleware and performs
// a fast-fail check before any service call: a missing actor means the route
// was wired without the middleware.
func ctxActor(c echo.Context) (*domain.Account, error) {
	actor, _ := c.Get(middleware.ActorKey).(*domain.Account)
	if actor == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return actor, nil
}

// ctxToken extracts the token id and expiry injected by the Auth middleware.
// Needed only by logout.
func ctxToken(c echo.Context) (id string, expiresAt time.Time) {
	id, _ = c.Get(middleware.TokenIDKey).(string)
	expiresAt, _ = c.Get(middleware.TokenExpKey).(time.Time)
	return id, expiresAt
}
