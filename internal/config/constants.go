package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8386
	defaultEnv        = "development"

	defaultUploadMaxSizeMB = 25

	defaultSummaryMaxOutputTokens = 1024
	defaultSummaryTimeoutSeconds  = 120
	defaultRetryMaxAttempts       = 3
	defaultRetryBackoffMS         = 500

	defaultRateLimitPerMinute = 12

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultGeminiProviderID = "gemini"
	defaultGeminiName       = "Gemini"
	defaultGeminiModel      = "models/gemini-2.0-flash"
)

// EnvGeminiAPIKey supplies the Gemini credential when the provider
// table leaves the key blank. It uses the variable name Google's own
// client libraries read.
const EnvGeminiAPIKey = "GEMINI_API_KEY"

// Recognized provider types. Anything else is rejected at load time.
const (
	ProviderTypeGemini           = "gemini"
	ProviderTypeOpenAI           = "openai"
	ProviderTypeAnthropic        = "anthropic"
	ProviderTypeOpenAICompatible = "openai-compatible"
)
