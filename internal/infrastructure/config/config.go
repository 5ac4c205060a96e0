package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Storage StorageConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// StorageConfig selects and tunes the storage engine. Both engines implement
// the same contract; "memory" is meant for development and small deployments.
type StorageConfig struct {
	// Backend is "mongo" or "memory".
	Backend string `env:"STORAGE_BACKEND, default=mongo"`
	// SnapshotPath, when set with the memory backend, persists state to a
	// JSON file across restarts.
	SnapshotPath string `env:"MEMORY_SNAPSHOT"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=modhaven"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
