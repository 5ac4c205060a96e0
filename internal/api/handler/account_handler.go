package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

// AccountHandler handles HTTP requests for account operations.
type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// --- Request / Response types ---

type updateUsernameRequest struct {
	Username string `json:"username" validate:"required,min=1,max=32"`
}

type setBanRequest struct {
	Banned bool `json:"banned"`
}

type nameMapResponse map[string]string

// Get handles GET /v1/accounts/:id.
//
// @Summary      Get an account's public profile
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  ports.PublicAccount
// @Failure      404  {object}  map[string]string
// @Router       /v1/accounts/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.service.Get(c.Request().Context(), domain.AccountID(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.IntoPublicAccount(account))
}

// GetByName handles GET /v1/accounts/by-name/:name.
//
// @Summary      Get an account's public profile by username
// @Description  Lookup is case-insensitive.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true  "Username"
// @Success      200   {object}  ports.PublicAccount
// @Failure      404   {object}  map[string]string
// @Router       /v1/accounts/by-name/{name} [get]
func (h *AccountHandler) GetByName(c echo.Context) error {
	account, err := h.service.GetByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.IntoPublicAccount(account))
}

// UpdateUsername handles PATCH /v1/account/username.
//
// @Summary      Rename the signed-in account
// @Description  Usernames may contain lowercase letters, digits, '_' and
// @Description  '-', and must be unique case-insensitively.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      updateUsernameRequest  true  "New username"
// @Success      200      {object}  ports.PublicAccount
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /v1/account/username [patch]
func (h *AccountHandler) UpdateUsername(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateUsernameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.UpdateUsername(c.Request().Context(), actor, req.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ports.IntoPublicAccount(account))
}

// SetBan handles POST /v1/accounts/:id/ban.
//
// @Summary      Set or clear an account's ban flag
// @Description  Site admins only. Banned accounts fail authentication.
// @Tags         accounts
// @Accept       json
// @Security     BearerAuth
// @Param        id       path  string         true  "Account id"
// @Param        request  body  setBanRequest  true  "Ban flag"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/accounts/{id}/ban [post]
func (h *AccountHandler) SetBan(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req setBanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SetBan(c.Request().Context(), actor, domain.AccountID(c.Param("id")), req.Banned); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// NameMap handles GET /v1/accounts/name-map.
//
// @Summary      Resolve account ids to usernames
// @Description  Unknown ids are omitted from the result.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   query     []string  true  "Account ids (repeatable)"
// @Success      200  {object}  nameMapResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/accounts/name-map [get]
func (h *AccountHandler) NameMap(c echo.Context) error {
	raw := c.QueryParams()["id"]
	ids := make([]domain.AccountID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, domain.AccountID(id))
	}

	names, err := h.service.NameMap(c.Request().Context(), ids)
	if err != nil {
		return err
	}

	out := make(nameMapResponse, len(names))
	for id, name := range names {
		out[string(id)] = name
	}
	return c.JSON(http.StatusOK, out)
}
