package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        int
	NatsURL     string
	NatsToken   string
	DatabaseURL string
	LogLevel    string
	APIToken    string
	StatePath   string
}

func Load() Config {
	return Config{
		Port:        envInt("READLOGS_PORT", 8760),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		APIToken:    envStr("READLOGS_API_TOKEN", ""),
		StatePath:   envStr("READLOGS_STATE_PATH", "~/.readlogs/batch-state.json"),
	}
}

// ArchiveEnabled reports whether rendered transcripts should be stored in Postgres.
func (c Config) ArchiveEnabled() bool {
	return c.DatabaseURL != ""
}

// BusEnabled reports whether transcript events should be published over NATS.
func (c Config) BusEnabled() bool {
	return c.NatsURL != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
