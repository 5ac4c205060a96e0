package api

import (
	"context"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/modhaven/modhaven/docs"
	"github.com/modhaven/modhaven/internal/api/handler"
	"github.com/modhaven/modhaven/internal/api/middleware"
	"github.com/modhaven/modhaven/internal/core/ports"
	"github.com/modhaven/modhaven/internal/core/service"
	redisdb "github.com/modhaven/modhaven/internal/infrastructure/db/redis"
)

// noopRevoker stands in when no Redis is configured: logout succeeds and
// tokens simply age out.
type noopRevoker struct{}

func (noopRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return nil
}

// RouterDeps carries everything the router needs. Mongo and Redis are nil
// when the deployment runs without them; the affected routes degrade rather
// than disappear.
type RouterDeps struct {
	Storage   ports.Storage
	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("modhaven"))

	// --- Dependencies ---
	accountService := service.NewAccountService(deps.Storage, deps.Logger)
	perms := service.NewPermissionResolver(deps.Storage)
	packageService := service.NewPackageService(deps.Storage, perms, deps.Logger)
	namespaceService := service.NewNamespaceService(deps.Storage, deps.Storage, deps.Logger)

	var revocations *redisdb.RevocationStore
	var revoked middleware.TokenRevoker
	var revoker handler.TokenRevoker
	if deps.Redis != nil {
		revocations = redisdb.NewRevocationStore(deps.Redis)
		revoked = revocations
		revoker = revocations
	} else {
		revoker = noopRevoker{}
	}

	auth := middleware.Auth(deps.JWTSecret, accountService, revoked)

	sessionHandler := handler.NewSessionHandler(revoker)
	accountHandler := handler.NewAccountHandler(accountService)
	packageHandler := handler.NewPackageHandler(packageService)
	namespaceHandler := handler.NewNamespaceHandler(namespaceService)

	// --- Health probes and operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- API routes ---
	v1 := e.Group("/v1", auth)

	v1.GET("/session", sessionHandler.Get)
	v1.DELETE("/session", sessionHandler.Delete)

	v1.GET("/accounts/name-map", accountHandler.NameMap)
	v1.GET("/accounts/by-name/:name", accountHandler.GetByName)
	v1.GET("/accounts/:id", accountHandler.Get)
	v1.POST("/accounts/:id/ban", accountHandler.SetBan, middleware.SiteAdmin())
	v1.PATCH("/account/username", accountHandler.UpdateUsername)

	v1.GET("/packages", packageHandler.List)
	v1.POST("/packages", packageHandler.Upsert)
	v1.GET("/packages/hashes", packageHandler.Hashes)
	v1.GET("/packages/:id", packageHandler.Get)
	v1.PATCH("/packages/:id", packageHandler.Patch)
	v1.DELETE("/packages/:id", packageHandler.Delete)

	v1.GET("/namespaces", namespaceHandler.List)
	v1.POST("/namespaces", namespaceHandler.Create)
	v1.GET("/namespaces/:prefix", namespaceHandler.Get)
	v1.DELETE("/namespaces/:prefix", namespaceHandler.Delete)
	v1.POST("/namespaces/:prefix/members", namespaceHandler.UpdateMembers)
	v1.POST("/namespaces/:prefix/invites", namespaceHandler.Invite)
	v1.POST("/namespaces/:prefix/invites/accept", namespaceHandler.AcceptInvite)
	v1.POST("/namespaces/:prefix/leave", namespaceHandler.Leave)
	v1.POST("/namespaces/:prefix/roles", namespaceHandler.ChangeRole)
	v1.POST("/namespaces/:prefix/register", namespaceHandler.Register)

	return e
}
