// Package middleware holds the authentication boundary. Token issuance
// happens upstream (the OAuth front-end); here tokens are only verified,
// checked against the revocation list, and resolved to an account.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

// Context keys set by Auth and read by the handlers.
const (
	ActorKey    = "actor"
	TokenIDKey  = "token_id"
	TokenExpKey = "token_exp"
)

// TokenRevoker answers whether a token id has been revoked by logout.
type TokenRevoker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims is the verified token payload. The subject is the upstream identity
// id; username and avatar ride along so first login can create the account.
type Claims struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	jwt.RegisteredClaims
}

// Auth validates the bearer JWT, rejects revoked tokens, resolves (creating
// on first login) the account behind the upstream identity, and injects it
// into the request context. Banned accounts are rejected here so no handler
// needs its own check.
func Auth(jwtSecret string, accounts ports.AccountService, revoked TokenRevoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
			}

			ctx := c.Request().Context()

			if revoked != nil && claims.ID != "" {
				hit, err := revoked.IsRevoked(ctx, claims.ID)
				if err != nil {
					return err
				}
				if hit {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			actor, err := accounts.GetOrCreate(ctx, ports.LoginIdentity{
				DiscordID: claims.Subject,
				Username:  claims.Username,
				Avatar:    claims.Avatar,
			})
			if err != nil {
				return err
			}
			if actor.Banned {
				return domain.ErrBanned
			}

			c.Set(ActorKey, actor)
			c.Set(TokenIDKey, claims.ID)
			if claims.ExpiresAt != nil {
				c.Set(TokenExpKey, claims.ExpiresAt.Time)
			} else {
				c.Set(TokenExpKey, time.Time{})
			}

			return next(c)
		}
	}
}
