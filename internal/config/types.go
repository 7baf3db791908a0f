package config

// AppConfig holds runtime startup configuration assembled from the YAML
// file, an optional .env file and the process environment.
type AppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"` // "development" | "production"
	AllowedOrigins []string           `yaml:"allowed_origins"`
	Timezone       string             `yaml:"timezone"`
	Paths          RuntimePathsConfig `yaml:"paths"`
	LogRotateKeep  *int               `yaml:"log_rotate_keep"`
	Upload         UploadConfig       `yaml:"upload"`
	Summary        SummaryConfig      `yaml:"summary"`
	Redis          RedisRuntimeConfig `yaml:"redis"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	AI             AIConfig           `yaml:"ai"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"`
}

// SummaryConfig selects the provider/model pair used for summarization
// and bounds the outbound call.
type SummaryConfig struct {
	ProviderID            string      `yaml:"provider_id"`
	Model                 string      `yaml:"model"`
	MaxOutputTokens       int         `yaml:"max_output_tokens"`
	MaxInputChars         int         `yaml:"max_input_chars"` // 0 = no input truncation
	RequestTimeoutSeconds int         `yaml:"request_timeout_seconds"`
	Retry                 RetryConfig `yaml:"retry"`
}

// RetryConfig is off by default: a failed summarization surfaces the
// error instead of retrying behind the user's back.
type RetryConfig struct {
	Enabled     bool `yaml:"enabled"`
	MaxAttempts int  `yaml:"max_attempts"`
	BackoffMS   int  `yaml:"backoff_ms"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
	// Configured is set during load when the file or environment named a
	// redis endpoint; the rate limiter stays off otherwise.
	Configured bool `yaml:"-"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
}

type AIConfig struct {
	Providers []AIProvider `yaml:"providers"`
}

type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // gemini | openai | anthropic | openai-compatible
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// rawAppConfig tolerates the key aliases that accumulated across config
// generations; Load folds them into AppConfig.
type rawAppConfig struct {
	Port               int                `yaml:"port"`
	Env                string             `yaml:"env"`
	Mode               string             `yaml:"mode"`
	AllowedOrigins     []string           `yaml:"allowed_origins"`
	CORSAllowedOrigins []string           `yaml:"cors_allowed_origins"`
	Timezone           string             `yaml:"timezone"`
	TimeZone           string             `yaml:"time_zone"`
	TZ                 string             `yaml:"tz"`
	Paths              rawPathsConfig     `yaml:"paths"`
	LogDir             string             `yaml:"log_dir"`
	LogsDir            string             `yaml:"logs_dir"`
	LogRotateKeep      *int               `yaml:"log_rotate_keep"`
	Upload             rawUploadConfig    `yaml:"upload"`
	MaxUploadSizeMB    *int               `yaml:"max_upload_size_mb"`
	Summary            rawSummaryConfig   `yaml:"summary"`
	Redis              rawRedisConfig     `yaml:"redis"`
	RedisURL           string             `yaml:"redis_url"`
	RateLimit          rawRateLimitConfig `yaml:"rate_limit"`
	AI                 rawAIConfig        `yaml:"ai"`
	GeminiAPIKey       string             `yaml:"gemini_api_key"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawUploadConfig struct {
	MaxSizeMB *int `yaml:"max_size_mb"`
	MaxSize   *int `yaml:"max_size"`
}

type rawSummaryConfig struct {
	ProviderID            string         `yaml:"provider_id"`
	Provider              string         `yaml:"provider"`
	Model                 string         `yaml:"model"`
	MaxOutputTokens       *int           `yaml:"max_output_tokens"`
	MaxInputChars         *int           `yaml:"max_input_chars"`
	RequestTimeoutSeconds *int           `yaml:"request_timeout_seconds"`
	RequestTimeout        *int           `yaml:"request_timeout"`
	Retry                 rawRetryConfig `yaml:"retry"`
}

type rawRetryConfig struct {
	Enabled     *bool `yaml:"enabled"`
	MaxAttempts *int  `yaml:"max_attempts"`
	BackoffMS   *int  `yaml:"backoff_ms"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawRateLimitConfig struct {
	PerMinute *int `yaml:"per_minute"`
	PerMin    *int `yaml:"per_min"`
}

type rawAIConfig struct {
	Providers []rawAIProvider `yaml:"providers"`
}

type rawAIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"default_model"`
	Model        string `yaml:"model"`
	Enabled      *bool  `yaml:"enabled"`
}

// envOverrides is parsed from the process environment after the file
// layer; set variables win over their file counterparts.
type envOverrides struct {
	Port         int    `env:"NOTEBRIEF_PORT"`
	Env          string `env:"NOTEBRIEF_ENV"`
	LogDir       string `env:"NOTEBRIEF_LOG_DIR"`
	RedisURL     string `env:"NOTEBRIEF_REDIS_URL"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
}
