package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load assembles the runtime configuration. The YAML file layer is
// optional when configPath is empty and the default file is absent: the
// service can run on defaults plus GEMINI_API_KEY alone. An explicitly
// passed path must exist.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	yamlGeminiKey := ""

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		raw := rawAppConfig{}
		decodeErr := decoder.Decode(&raw)
		if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, decodeErr)
		}
		if decodeErr == nil {
			applyRawAppConfig(&cfg, raw)
			yamlGeminiKey = strings.TrimSpace(raw.GeminiAPIKey)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		// no file, run on defaults + environment
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	envKey, err := applyEnvOverrides(&cfg)
	if err != nil {
		return nil, err
	}
	finalizeProviders(&cfg, yamlGeminiKey, envKey)

	if err := validateAppConfig(&cfg, path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Upload: UploadConfig{
			MaxSizeMB: defaultUploadMaxSizeMB,
		},
		Summary: SummaryConfig{
			MaxOutputTokens:       defaultSummaryMaxOutputTokens,
			RequestTimeoutSeconds: defaultSummaryTimeoutSeconds,
			Retry: RetryConfig{
				Enabled:     false,
				MaxAttempts: defaultRetryMaxAttempts,
				BackoffMS:   defaultRetryBackoffMS,
			},
		},
		RateLimit: RateLimitConfig{
			PerMinute: defaultRateLimitPerMinute,
		},
	}
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.Mode); v != "" {
		cfg.Env = v
	}

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.TimeZone); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(raw.TZ); v != "" {
		cfg.Timezone = v
	}

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogsDir); v != "" {
		cfg.Paths.Logs = v
	}
	if raw.LogRotateKeep != nil {
		v := *raw.LogRotateKeep
		cfg.LogRotateKeep = &v
	}

	if raw.Upload.MaxSizeMB != nil {
		cfg.Upload.MaxSizeMB = *raw.Upload.MaxSizeMB
	} else if raw.Upload.MaxSize != nil {
		cfg.Upload.MaxSizeMB = *raw.Upload.MaxSize
	}
	if raw.MaxUploadSizeMB != nil {
		cfg.Upload.MaxSizeMB = *raw.MaxUploadSizeMB
	}

	cfg.Summary = applyRawSummaryConfig(cfg.Summary, raw.Summary)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	if raw.RateLimit.PerMinute != nil {
		cfg.RateLimit.PerMinute = *raw.RateLimit.PerMinute
	} else if raw.RateLimit.PerMin != nil {
		cfg.RateLimit.PerMinute = *raw.RateLimit.PerMin
	}

	if raw.AI.Providers != nil {
		providers := make([]AIProvider, 0, len(raw.AI.Providers))
		for _, rp := range raw.AI.Providers {
			providers = append(providers, normalizeProvider(rp))
		}
		cfg.AI.Providers = providers
	}

	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	cfg.Env = normalizeEnv(cfg.Env)
}

func applyRawSummaryConfig(current SummaryConfig, raw rawSummaryConfig) SummaryConfig {
	cfg := current

	if v := strings.TrimSpace(raw.ProviderID); v != "" {
		cfg.ProviderID = v
	}
	if v := strings.TrimSpace(raw.Provider); v != "" {
		cfg.ProviderID = v
	}
	if v := strings.TrimSpace(raw.Model); v != "" {
		cfg.Model = v
	}
	if raw.MaxOutputTokens != nil {
		cfg.MaxOutputTokens = *raw.MaxOutputTokens
	}
	if raw.MaxInputChars != nil {
		cfg.MaxInputChars = *raw.MaxInputChars
	}
	if raw.RequestTimeoutSeconds != nil {
		cfg.RequestTimeoutSeconds = *raw.RequestTimeoutSeconds
	} else if raw.RequestTimeout != nil {
		cfg.RequestTimeoutSeconds = *raw.RequestTimeout
	}
	if raw.Retry.Enabled != nil {
		cfg.Retry.Enabled = *raw.Retry.Enabled
	}
	if raw.Retry.MaxAttempts != nil {
		cfg.Retry.MaxAttempts = *raw.Retry.MaxAttempts
	}
	if raw.Retry.BackoffMS != nil {
		cfg.Retry.BackoffMS = *raw.Retry.BackoffMS
	}

	return cfg
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
		cfg.Configured = true
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
		cfg.Configured = true
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
		cfg.Configured = true
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		cfg.Password = v
	}
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		cfg.TLS = *raw.Redis.TLS
	}
	if v := strings.TrimSpace(raw.Redis.Scheme); v != "" {
		cfg.Scheme = v
	}
	if raw.Redis.Params != nil {
		cfg.Params = copyStringMap(raw.Redis.Params)
	}

	return normalizeRedisConfig(cfg)
}

// finalizeProviders wires the standalone GEMINI_API_KEY credential into
// the provider table: it fills gemini providers left blank by the file
// layer, and when no provider is configured at all it synthesizes the
// default gemini entry so a bare deployment works out of the box. The
// credential is resolved exactly once here; nothing re-reads the
// environment afterwards.
func finalizeProviders(cfg *AppConfig, yamlKey, envKey string) {
	key := strings.TrimSpace(envKey)
	if key == "" {
		key = strings.TrimSpace(yamlKey)
	}
	if key == "" {
		return
	}

	filled := false
	for i := range cfg.AI.Providers {
		if cfg.AI.Providers[i].Type != ProviderTypeGemini {
			continue
		}
		if cfg.AI.Providers[i].APIKey == "" {
			cfg.AI.Providers[i].APIKey = key
		}
		filled = true
	}
	if filled || len(cfg.AI.Providers) > 0 {
		return
	}

	cfg.AI.Providers = append(cfg.AI.Providers, AIProvider{
		ID:           defaultGeminiProviderID,
		Name:         defaultGeminiName,
		Type:         ProviderTypeGemini,
		APIKey:       key,
		DefaultModel: defaultGeminiModel,
		Enabled:      true,
	})
}

func validateAppConfig(cfg *AppConfig, path string) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Upload.MaxSizeMB < 1 {
		return fmt.Errorf("invalid upload.max_size_mb %d in %q, expected >= 1", cfg.Upload.MaxSizeMB, path)
	}
	if cfg.Summary.MaxOutputTokens < 1 {
		return fmt.Errorf("invalid summary.max_output_tokens %d in %q, expected >= 1", cfg.Summary.MaxOutputTokens, path)
	}
	if cfg.Summary.MaxInputChars < 0 {
		return fmt.Errorf("invalid summary.max_input_chars %d in %q, expected >= 0", cfg.Summary.MaxInputChars, path)
	}
	if cfg.Summary.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("invalid summary.request_timeout_seconds %d in %q, expected >= 1", cfg.Summary.RequestTimeoutSeconds, path)
	}
	if cfg.Summary.Retry.Enabled && cfg.Summary.Retry.MaxAttempts < 1 {
		return fmt.Errorf("invalid summary.retry.max_attempts %d in %q, expected >= 1", cfg.Summary.Retry.MaxAttempts, path)
	}
	if cfg.Summary.Retry.BackoffMS < 0 {
		return fmt.Errorf("invalid summary.retry.backoff_ms %d in %q, expected >= 0", cfg.Summary.Retry.BackoffMS, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d in %q, expected >= 0", cfg.Redis.DB, path)
	}
	if cfg.RateLimit.PerMinute < 1 {
		return fmt.Errorf("invalid rate_limit.per_minute %d in %q, expected >= 1", cfg.RateLimit.PerMinute, path)
	}

	seen := make(map[string]struct{}, len(cfg.AI.Providers))
	for _, p := range cfg.AI.Providers {
		switch p.Type {
		case ProviderTypeGemini, ProviderTypeOpenAI, ProviderTypeAnthropic, ProviderTypeOpenAICompatible:
		default:
			return fmt.Errorf("unknown ai provider type %q for provider %q in %q", p.Type, p.ID, path)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate ai provider id %q in %q", p.ID, path)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) LogRotateKeepCount() (int, bool) {
	if c == nil || c.LogRotateKeep == nil {
		return 0, false
	}
	return *c.LogRotateKeep, true
}

// RequestTimeout bounds a single outbound summarization call.
func (s SummaryConfig) RequestTimeout() time.Duration {
	seconds := s.RequestTimeoutSeconds
	if seconds < 1 {
		seconds = defaultSummaryTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (r RetryConfig) Backoff() time.Duration {
	if r.BackoffMS < 0 {
		return 0
	}
	return time.Duration(r.BackoffMS) * time.Millisecond
}

func (u UploadConfig) MaxSizeBytes() int64 {
	size := u.MaxSizeMB
	if size < 1 {
		size = defaultUploadMaxSizeMB
	}
	return int64(size) << 20
}

func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := c.Port
	if port == 0 {
		port = defaultRedisPort
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}

	scheme := strings.ToLower(strings.TrimSpace(c.Scheme))
	if scheme == "" {
		if c.TLS {
			scheme = "rediss"
		} else {
			scheme = "redis"
		}
	}
	if scheme != "redis" && scheme != "rediss" {
		scheme = "redis"
	}

	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + strconv.Itoa(db),
	}
	username := strings.TrimSpace(c.Username)
	password := strings.TrimSpace(c.Password)
	if username != "" {
		if password != "" {
			u.User = neturl.UserPassword(username, password)
		} else {
			u.User = neturl.User(username)
		}
	} else if password != "" {
		u.User = neturl.UserPassword("", password)
	}

	if len(c.Params) > 0 {
		query := neturl.Values{}
		for key, value := range c.Params {
			k := strings.TrimSpace(key)
			v := strings.TrimSpace(value)
			if k != "" && v != "" {
				query.Set(k, v)
			}
		}
		if len(query) > 0 {
			u.RawQuery = query.Encode()
		}
	}

	return u.String()
}
