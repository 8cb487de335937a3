package env

import (
	"crash_backend/internal/config"
	"os"
)

const badgerDirEnvName = "BADGER_DIR"

type journalConfig struct {
	dir string
}

func NewJournalConfig() (config.JournalConfig, error) {
	dir := os.Getenv(badgerDirEnvName)
	if len(dir) == 0 {
		dir = "./data/journal"
	}
	return &journalConfig{dir: dir}, nil
}

func (cfg *journalConfig) Dir() string {
	return cfg.dir
}
