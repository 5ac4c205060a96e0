// Package mongo implements the storage contract on MongoDB. It translates
// lookups into index-friendly pattern queries and the filter mini-language
// into aggregation filters; all authority and permission decisions remain in
// the core, so both storage engines share one copy of that logic.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Store bundles the three repositories into the full storage contract.
type Store struct {
	*NamespaceRepository
	*PackageRepository
	*AccountRepository
}

// NewStore creates the Mongo-backed storage engine over an open database.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		NamespaceRepository: NewNamespaceRepository(db),
		PackageRepository:   NewPackageRepository(db),
		AccountRepository:   NewAccountRepository(db),
	}
}

// EnsureIndexes creates the indexes for every collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.NamespaceRepository.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := s.PackageRepository.EnsureIndexes(ctx); err != nil {
		return err
	}
	return s.AccountRepository.EnsureIndexes(ctx)
}
