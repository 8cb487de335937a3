package env

import (
	"crash_backend/internal/config"
	"fmt"
	"log/slog"
	"os"

	"crash_backend/pkg/logger"
)

const (
	storageEnvName  = "STORAGE"
	logLevelEnvName = "LOG_LEVEL"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type storageConfig struct {
	backend string
}

func NewStorageConfig() (config.StorageConfig, error) {
	backend := os.Getenv(storageEnvName)
	switch backend {
	case "":
		backend = StoragePostgres
	case StoragePostgres, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
	return &storageConfig{backend: backend}, nil
}

func (cfg *storageConfig) Backend() string {
	return cfg.backend
}

type logConfig struct {
	level slog.Level
}

func NewLogConfig() (config.LogConfig, error) {
	return &logConfig{level: logger.ParseLevel(os.Getenv(logLevelEnvName))}, nil
}

func (cfg *logConfig) Level() slog.Level {
	return cfg.level
}
