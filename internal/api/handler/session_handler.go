package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/core/ports"
)

// TokenRevoker records revoked token ids so logout outlives the request.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// SessionHandler exposes the signed-in account and logout. Token issuance
// happens upstream; a session here is just a verified token.
type SessionHandler struct {
	revoker TokenRevoker
}

func NewSessionHandler(revoker TokenRevoker) *SessionHandler {
	return &SessionHandler{revoker: revoker}
}

// Get handles GET /v1/session.
//
// @Summary      Get the signed-in account
// @Description  The account is created on first login.
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.PublicAccount
// @Failure      401  {object}  map[string]string
// @Router       /v1/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.IntoPublicAccount(actor))
}

// Delete handles DELETE /v1/session.
//
// @Summary      Log out
// @Description  Revokes the presented token until its natural expiry.
// @Tags         session
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /v1/session [delete]
func (h *SessionHandler) Delete(c echo.Context) error {
	if _, err := ctxActor(c); err != nil {
		return err
	}

	tokenID, expiresAt := ctxToken(c)
	if tokenID == "" {
		// nothing to revoke; tokens without a jti simply age out
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.revoker.Revoke(c.Request().Context(), tokenID, expiresAt); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
