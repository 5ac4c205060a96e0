package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/core/domain"
)

// SiteAdmin gates a route to site administrators. Must run after Auth.
func SiteAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, _ := c.Get(ActorKey).(*domain.Account)
			if actor == nil || !actor.Admin {
				return echo.NewHTTPError(http.StatusForbidden, "site admin only")
			}
			return next(c)
		}
	}
}
