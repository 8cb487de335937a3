package env

import (
	"crash_backend/internal/config"
	"os"
)

const (
	natsURLEnvName           = "NATS_URL"
	natsSubjectPrefixEnvName = "NATS_SUBJECT_PREFIX"
)

type natsConfig struct {
	url    string
	prefix string
}

// NewNATSConfig - NATS опционален, без NATS_URL события уходят только в websocket
func NewNATSConfig() (config.NATSConfig, error) {
	prefix := os.Getenv(natsSubjectPrefixEnvName)
	if len(prefix) == 0 {
		prefix = "crash"
	}

	return &natsConfig{
		url:    os.Getenv(natsURLEnvName),
		prefix: prefix,
	}, nil
}

func (cfg *natsConfig) Enabled() bool {
	return cfg.url != ""
}

func (cfg *natsConfig) URL() string {
	return cfg.url
}

func (cfg *natsConfig) SubjectPrefix() string {
	return cfg.prefix
}
