package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/modhaven/modhaven/internal/api"
	"github.com/modhaven/modhaven/internal/core/ports"
	"github.com/modhaven/modhaven/internal/infrastructure/config"
	"github.com/modhaven/modhaven/internal/infrastructure/db/memory"
	"github.com/modhaven/modhaven/internal/infrastructure/db/mongo"
	redisdb "github.com/modhaven/modhaven/internal/infrastructure/db/redis"
	"github.com/modhaven/modhaven/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title           ModHaven API
// @version         1.0
// @description     Package metadata hub for the modding community: package
// @description     records, prefix-claimed namespaces, and accounts.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		storage ports.Storage
		mongoDB *mongodriver.Database
	)

	switch cfg.Storage.Backend {
	case "memory":
		storage = memory.NewStore(cfg.Storage.SnapshotPath, log)
		log.Info().Str("snapshot", cfg.Storage.SnapshotPath).Msg("using in-memory storage")
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		}()

		store := mongo.NewStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("mongo index creation failed")
		}
		storage = store
		mongoDB = db
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongo storage")
	}

	var redisClient *redis.Client
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		// logout falls back to letting tokens age out
		log.Warn().Err(err).Msg("redis unavailable, token revocation disabled")
	} else {
		redisClient = rdb
		defer func() { _ = redisClient.Close() }()
	}

	e := api.NewRouter(api.RouterDeps{
		Storage:   storage,
		Mongo:     mongoDB,
		Redis:     redisClient,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("backend", cfg.Storage.Backend).Msg("server started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
