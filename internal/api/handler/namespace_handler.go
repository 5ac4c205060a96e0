package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

// NamespaceHandler handles HTTP requests for namespace operations.
type NamespaceHandler struct {
	service ports.NamespaceService
}

func NewNamespaceHandler(service ports.NamespaceService) *NamespaceHandler {
	return &NamespaceHandler{service: service}
}

// --- Request / Response types ---

type createNamespaceRequest struct {
	Prefix string `json:"prefix" validate:"required"`
}

type memberResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type namespaceResponse struct {
	Prefix     string           `json:"prefix"`
	Registered bool             `json:"registered"`
	Members    []memberResponse `json:"members"`
}

type memberUpdatesRequest struct {
	Invited     []string          `json:"invited,omitempty"`
	Removed     []string          `json:"removed,omitempty"`
	RoleChanges map[string]string `json:"role_changes,omitempty"`
}

type inviteRequest struct {
	ID string `json:"id" validate:"required"`
}

type changeRoleRequest struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required,oneof=admin collaborator"`
}

func intoNamespaceResponse(ns *domain.Namespace) namespaceResponse {
	members := make([]memberResponse, 0, len(ns.Members))
	for _, m := range ns.Members {
		members = append(members, memberResponse{ID: string(m.ID), Role: string(m.Role)})
	}
	return namespaceResponse{Prefix: ns.Prefix, Registered: ns.Registered, Members: members}
}

// List handles GET /v1/namespaces.
//
// @Summary      List the namespaces the signed-in account belongs to
// @Description  Includes namespaces with a pending invite.
// @Tags         namespaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   namespaceResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/namespaces [get]
func (h *NamespaceHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	namespaces, err := h.service.ListMemberOrInvited(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	out := make([]namespaceResponse, 0, len(namespaces))
	for i := range namespaces {
		out = append(out, intoNamespaceResponse(&namespaces[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/namespaces/:prefix.
//
// @Summary      Get a namespace by prefix
// @Tags         namespaces
// @Produce      json
// @Security     BearerAuth
// @Param        prefix  path      string  true  "Namespace prefix (e.g. Modder.)"
// @Success      200     {object}  namespaceResponse
// @Failure      404     {object}  map[string]string
// @Router       /v1/namespaces/{prefix} [get]
func (h *NamespaceHandler) Get(c echo.Context) error {
	ns, err := h.service.Get(c.Request().Context(), c.Param("prefix"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, intoNamespaceResponse(ns))
}

// Create handles POST /v1/namespaces.
//
// @Summary      Claim a namespace prefix
// @Description  The prefix must end with a symbol. The caller becomes the
// @Description  sole admin member. Fails when a related prefix is already
// @Description  held by a namespace the caller does not administer.
// @Tags         namespaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      createNamespaceRequest  true  "Prefix to claim"
// @Success      201      {object}  namespaceResponse
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /v1/namespaces [post]
func (h *NamespaceHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createNamespaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ns, err := h.service.Create(c.Request().Context(), actor, req.Prefix)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, intoNamespaceResponse(ns))
}

// Delete handles DELETE /v1/namespaces/:prefix.
//
// @Summary      Delete a namespace
// @Tags         namespaces
// @Security     BearerAuth
// @Param        prefix  path  string  true  "Namespace prefix"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/namespaces/{prefix} [delete]
func (h *NamespaceHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), actor, c.Param("prefix")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateMembers handles POST /v1/namespaces/:prefix/members.
//
// @Summary      Apply a batch of membership changes
// @Description  Removals and invites are applied before role changes. When
// @Description  no admin member remains afterwards the namespace is deleted.
// @Tags         namespaces
// @Accept       json
// @Security     BearerAuth
// @Param        prefix   path  string                true  "Namespace prefix"
// @Param        request  body  memberUpdatesRequest  true  "Membership changes"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/namespaces/{prefix}/members [post]
func (h *NamespaceHandler) UpdateMembers(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req memberUpdatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updates := domain.MemberUpdates{}
	for _, id := range req.Invited {
		updates.Invited = append(updates.Invited, domain.AccountID(id))
	}
	for _, id := range req.Removed {
		updates.Removed = append(updates.Removed, domain.AccountID(id))
	}
	if len(req.RoleChanges) > 0 {
		updates.RoleChanges = make(map[domain.AccountID]domain.Role, len(req.RoleChanges))
		for id, role := range req.RoleChanges {
			updates.RoleChanges[domain.AccountID(id)] = domain.Role(role)
		}
	}

	if err := h.service.UpdateMembers(c.Request().Context(), actor, c.Param("prefix"), updates); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Invite handles POST /v1/namespaces/:prefix/invites.
//
// @Summary      Invite an account to a namespace
// @Tags         namespaces
// @Accept       json
// @Security     BearerAuth
// @Param        prefix   path  string         true  "Namespace prefix"
// @Param        request  body  inviteRequest  true  "Account to invite"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/namespaces/{prefix}/invites [post]
func (h *NamespaceHandler) Invite(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req inviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.Invite(c.Request().Context(), actor, c.Param("prefix"), domain.AccountID(req.ID)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AcceptInvite handles POST /v1/namespaces/:prefix/invites/accept.
//
// @Summary      Accept a pending invite
// @Description  The only way a member becomes a collaborator; admins cannot
// @Description  accept on someone's behalf.
// @Tags         namespaces
// @Security     BearerAuth
// @Param        prefix  path  string  true  "Namespace prefix"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/namespaces/{prefix}/invites/accept [post]
func (h *NamespaceHandler) AcceptInvite(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.AcceptInvite(c.Request().Context(), actor, c.Param("prefix")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Leave handles POST /v1/namespaces/:prefix/leave.
//
// @Summary      Leave a namespace
// @Tags         namespaces
// @Security     BearerAuth
// @Param        prefix  path  string  true  "Namespace prefix"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/namespaces/{prefix}/leave [post]
func (h *NamespaceHandler) Leave(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Leave(c.Request().Context(), actor, c.Param("prefix")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeRole handles POST /v1/namespaces/:prefix/roles.
//
// @Summary      Change a member's role
// @Description  Rejected while the target's invite is still pending.
// @Tags         namespaces
// @Accept       json
// @Security     BearerAuth
// @Param        prefix   path  string             true  "Namespace prefix"
// @Param        request  body  changeRoleRequest  true  "Target and new role"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /v1/namespaces/{prefix}/roles [post]
func (h *NamespaceHandler) ChangeRole(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.service.ChangeRole(c.Request().Context(), actor, c.Param("prefix"), domain.AccountID(req.ID), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Register handles POST /v1/namespaces/:prefix/register.
//
// @Summary      Register a namespace
// @Description  Constrains future package ids under the prefix to namespace
// @Description  members. Blocked while a package under the prefix belongs to
// @Description  a non-member.
// @Tags         namespaces
// @Security     BearerAuth
// @Param        prefix  path  string  true  "Namespace prefix"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/namespaces/{prefix}/register [post]
func (h *NamespaceHandler) Register(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Register(c.Request().Context(), actor, c.Param("prefix")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
