package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderGemini:    "gemini-2.5-flash",
	ProviderAnthropic: "claude-sonnet-4-20250514",
}

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	ModelTimeout       time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	Provider      string
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	AnthropicKey  string

	AllowedOrigins []string

	LabelOCREnabled  bool
	LabelOCRLanguage string

	AzureAccountName string
	AzureAccountKey  string

	TracingEndpoint string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// APIKey returns the credential of the selected provider. An empty value is not a
// startup failure; the gateway reports it on each analysis request.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderAnthropic:
		return c.AnthropicKey
	default:
		return c.OpenAIAPIKey
	}
}

// APIKeyName is the environment variable holding the selected provider's credential.
func (c *Config) APIKeyName() string {
	switch c.Provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// AzureEnabled reports whether blob image sources can be served.
func (c *Config) AzureEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		ModelTimeout:       parseDurationOrDefault("MODEL_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 15*1024*1024), // 15MB, base64 frames are large
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		Provider:      strings.ToLower(strings.TrimSpace(getEnvOrDefault("MODEL_PROVIDER", ProviderOpenAI))),
		Model:         strings.TrimSpace(os.Getenv("MODEL_NAME")),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: strings.TrimRight(getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		AnthropicKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),

		AllowedOrigins: parseListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LabelOCREnabled:  parseBoolOrDefault("LABEL_OCR_ENABLED", false),
		LabelOCRLanguage: getEnvOrDefault("LABEL_OCR_LANGUAGE", "eng"),

		AzureAccountName: strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureAccountKey:  strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),

		TracingEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.ModelTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, model=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.ModelTimeout)
	}
	if cfg.ModelTimeout > cfg.RequestTimeout {
		return nil, fmt.Errorf("MODEL_TIMEOUT (%s) must not exceed REQUEST_TIMEOUT (%s)", cfg.ModelTimeout, cfg.RequestTimeout)
	}
	defaultModel, ok := defaultModels[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported MODEL_PROVIDER: %q", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
