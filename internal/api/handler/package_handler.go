package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/modhaven/modhaven/internal/core/domain"
	"github.com/modhaven/modhaven/internal/core/ports"
)

// PackageHandler handles HTTP requests for package metadata. Archive and
// preview blobs are served from object storage outside this API.
type PackageHandler struct {
	service ports.PackageService
}

func NewPackageHandler(service ports.PackageService) *PackageHandler {
	return &PackageHandler{service: service}
}

// --- Request / Response types ---

// upsertPackageRequest carries the author-supplied parts of a record. The
// storage-managed fields (creator, dates, hidden) are ignored on input.
// Hash is the one exception: archive blobs live outside this service, so the
// hash enters with the first insert of a descriptor and is preserved by
// storage on every later update.
type upsertPackageRequest struct {
	Package      domain.Package       `json:"package"`
	Defines      *domain.Defines      `json:"defines,omitempty"`
	Dependencies *domain.Dependencies `json:"dependencies,omitempty"`
	Hash         string               `json:"hash,omitempty"`
}

type patchPackageRequest map[string]any

// List handles GET /v1/packages.
//
// @Summary      List packages
// @Description  Filters by category, case-insensitive name substring, and
// @Description  creator. Hidden packages are excluded unless include_hidden
// @Description  is set. Pages are capped at 100 items.
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        category        query     string  false  "Package category"
// @Param        name            query     string  false  "Name or long-name substring"
// @Param        creator         query     string  false  "Creator account id"
// @Param        include_hidden  query     bool    false  "Include hidden packages"
// @Param        sort            query     string  false  "creation_date | recently_updated | package_id"
// @Param        skip            query     int     false  "Items to skip"
// @Param        limit           query     int     false  "Page size (max 100)"
// @Success      200  {array}   domain.PackageMeta
// @Failure      401  {object}  map[string]string
// @Router       /v1/packages [get]
func (h *PackageHandler) List(c echo.Context) error {
	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	includeHidden, _ := strconv.ParseBool(c.QueryParam("include_hidden"))

	metas, err := h.service.List(c.Request().Context(), ports.ListPackagesInput{
		Category:      c.QueryParam("category"),
		Name:          c.QueryParam("name"),
		Creator:       domain.AccountID(c.QueryParam("creator")),
		IncludeHidden: includeHidden,
		Sort:          ports.SortMethodFromString(c.QueryParam("sort")),
		Skip:          skip,
		Limit:         limit,
	})
	if err != nil {
		return err
	}
	if metas == nil {
		metas = []domain.PackageMeta{}
	}
	return c.JSON(http.StatusOK, metas)
}

// Get handles GET /v1/packages/:id.
//
// @Summary      Get a package by id
// @Description  Past ids left behind by renames also resolve.
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Package id, current or past"
// @Success      200  {object}  domain.PackageMeta
// @Failure      404  {object}  map[string]string
// @Router       /v1/packages/{id} [get]
func (h *PackageHandler) Get(c echo.Context) error {
	meta, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meta)
}

// Upsert handles POST /v1/packages.
//
// @Summary      Create or update a package record
// @Description  The caller must hold edit permission over every record the
// @Description  id or past ids resolve to. New ids under a registered
// @Description  namespace require membership and the prefix's exact casing.
// @Tags         packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      upsertPackageRequest  true  "Package descriptor"
// @Success      200      {object}  domain.PackageMeta
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Router       /v1/packages [post]
func (h *PackageHandler) Upsert(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req upsertPackageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	meta := &domain.PackageMeta{
		Package:      req.Package,
		Defines:      req.Defines,
		Dependencies: req.Dependencies,
		Hash:         req.Hash,
	}

	meta, err = h.service.Upsert(c.Request().Context(), actor, meta)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meta)
}

// Patch handles PATCH /v1/packages/:id.
//
// @Summary      Patch whitelisted record fields
// @Description  Only "hidden" may be patched.
// @Tags         packages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Package id"
// @Param        request  body      patchPackageRequest  true  "Fields to set"
// @Success      200      {object}  domain.PackageMeta
// @Failure      400      {object}  map[string]string
// @Failure      403      {object}  map[string]string
// @Router       /v1/packages/{id} [patch]
func (h *PackageHandler) Patch(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req patchPackageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	meta, err := h.service.Patch(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meta)
}

// Delete handles DELETE /v1/packages/:id.
//
// @Summary      Delete a package record
// @Tags         packages
// @Security     BearerAuth
// @Param        id  path  string  true  "Package id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/packages/{id} [delete]
func (h *PackageHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Hashes handles GET /v1/packages/hashes.
//
// @Summary      List archive hashes for a set of package ids
// @Description  Lets launchers verify local archives without refetching
// @Description  full records. Unknown ids are omitted.
// @Tags         packages
// @Produce      json
// @Security     BearerAuth
// @Param        id   query     []string  true  "Package ids (repeatable)"
// @Success      200  {array}   ports.PackageHash
// @Failure      401  {object}  map[string]string
// @Router       /v1/packages/hashes [get]
func (h *PackageHandler) Hashes(c echo.Context) error {
	ids := c.QueryParams()["id"]
	hashes, err := h.service.Hashes(c.Request().Context(), ids)
	if err != nil {
		return err
	}
	if hashes == nil {
		hashes = []ports.PackageHash{}
	}
	return c.JSON(http.StatusOK, hashes)
}
