package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is a DTO for environment parsing; only variables that are
// actually set overlay the Config.
type envConfig struct {
	APIBaseURL     string        `env:"EXPENSE_API_URL"`
	SessionDBPath  string        `env:"EXPENSE_SESSION_DB"`
	RequestTimeout time.Duration `env:"EXPENSE_REQUEST_TIMEOUT"`
	LogLevel       string        `env:"EXPENSE_LOG_LEVEL"`
}

func parseEnv(cfg *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.APIBaseURL != "" {
		cfg.APIBaseURL = ec.APIBaseURL
	}
	if ec.SessionDBPath != "" {
		cfg.SessionDBPath = ec.SessionDBPath
	}
	if ec.RequestTimeout != 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
	if ec.LogLevel != "" {
		cfg.LogLevel = ec.LogLevel
	}
}
