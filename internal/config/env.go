package config

import (
	"os"
	"strings"
)

// LoadFromEnv overrides configuration from environment variables
func LoadFromEnv(cfg *Config) {
	if user := os.Getenv("ESBOOT_USER"); user != "" {
		cfg.Identity.User = user
	}

	if group := os.Getenv("ESBOOT_GROUP"); group != "" {
		cfg.Identity.Group = group
	}

	if path := os.Getenv("ESBOOT_DATA_PATH"); path != "" {
		cfg.Data.Path = path
	}

	if path := os.Getenv("ESBOOT_DELEGATE"); path != "" {
		cfg.Delegate.Path = path
	}

	if args := os.Getenv("ESBOOT_DELEGATE_ARGS"); args != "" {
		cfg.Delegate.Args = strings.Fields(args)
	}

	if logLevel := os.Getenv("ESBOOT_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
