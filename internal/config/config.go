package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	LogLevel      string
	OpenAIAPIKey  string
	OpenAIModel   string
	DefaultRubric string
	APIToken      string
}

func Load() Config {
	return Config{
		Port:          envInt("DEBRIEFD_PORT", 8460),
		NatsURL:       envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIModel:   envStr("DEBRIEFD_MODEL", "gpt-4o-mini"),
		DefaultRubric: envStr("DEFAULT_RUBRIC", "OSAD_9DIM"),
		APIToken:      envStr("DEBRIEFD_API_TOKEN", ""),
	}
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
