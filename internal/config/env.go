package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// applyEnvOverrides layers process environment variables over the file
// configuration and returns the gemini credential from the environment,
// if any.
func applyEnvOverrides(cfg *AppConfig) (string, error) {
	overrides := envOverrides{}
	if err := env.Parse(&overrides); err != nil {
		return "", fmt.Errorf("parse environment overrides: %w", err)
	}

	if overrides.Port != 0 {
		cfg.Port = overrides.Port
	}
	if v := strings.TrimSpace(overrides.Env); v != "" {
		cfg.Env = normalizeEnv(v)
	}
	if v := strings.TrimSpace(overrides.LogDir); v != "" {
		cfg.Paths.Logs = normalizeRuntimePaths(RuntimePathsConfig{Logs: v}).Logs
	}
	if v := strings.TrimSpace(overrides.RedisURL); v != "" {
		cfg.Redis.URL = normalizeRedisRawURL(v)
		cfg.Redis.Configured = true
	}

	return strings.TrimSpace(overrides.GeminiAPIKey), nil
}
