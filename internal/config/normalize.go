package config

import "strings"

func normalizeRedisConfig(cfg RedisRuntimeConfig) RedisRuntimeConfig {
	cfg.URL = normalizeRedisRawURL(cfg.URL)
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Password = strings.TrimSpace(cfg.Password)
	cfg.Scheme = strings.ToLower(strings.TrimSpace(cfg.Scheme))

	if cfg.Host == "" && cfg.URL == "" {
		cfg.Host = defaultRedisHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultRedisPort
	}
	if cfg.DB < 0 {
		cfg.DB = defaultRedisDB
	}
	if cfg.Scheme == "" {
		if cfg.TLS {
			cfg.Scheme = "rediss"
		} else {
			cfg.Scheme = "redis"
		}
	}
	if cfg.Params != nil {
		cfg.Params = copyStringMap(cfg.Params)
	}
	return cfg
}

func normalizeRedisRawURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "redis://") || strings.HasPrefix(trimmed, "rediss://") {
		return trimmed
	}
	return "redis://" + trimmed
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func normalizeRuntimePaths(paths RuntimePathsConfig) RuntimePathsConfig {
	paths.Logs = strings.TrimSpace(paths.Logs)
	return paths
}

// normalizeProviderType folds the spellings seen in the wild onto the
// four supported types; unknown values are returned as-is for Load to
// reject.
func normalizeProviderType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google", "google-gemini":
		return ProviderTypeGemini
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic", "claude":
		return ProviderTypeAnthropic
	case "openai-compatible", "openai_compatible", "openrouter":
		return ProviderTypeOpenAICompatible
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeProvider(raw rawAIProvider) AIProvider {
	p := AIProvider{
		ID:           strings.TrimSpace(raw.ID),
		Name:         strings.TrimSpace(raw.Name),
		Type:         normalizeProviderType(raw.Type),
		APIKey:       strings.TrimSpace(raw.APIKey),
		Endpoint:     strings.TrimRight(strings.TrimSpace(raw.Endpoint), "/"),
		DefaultModel: strings.TrimSpace(raw.DefaultModel),
		Enabled:      true,
	}
	if p.DefaultModel == "" {
		p.DefaultModel = strings.TrimSpace(raw.Model)
	}
	if p.ID == "" {
		p.ID = p.Type
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if raw.Enabled != nil {
		p.Enabled = *raw.Enabled
	}
	return p
}

func copyStringMap(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}
