package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

type Config struct {
	HTTPPort    string `koanf:"http_port"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`

	DatabaseDriver string `koanf:"database_driver"`
	DatabaseURL    string `koanf:"database_url"`

	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTTL        time.Duration `koanf:"session_ttl"`
	ConstantTimeLogin bool          `koanf:"constant_time_login"`

	LLMProvider             string        `koanf:"llm_provider"`
	LLMAPIKey               string        `koanf:"llm_api_key"`
	LLMBaseURL              string        `koanf:"llm_base_url"`
	LLMModel                string        `koanf:"llm_model"`
	LLMTimeout              time.Duration `koanf:"llm_timeout"`
	LLMBreakerFailures      uint32        `koanf:"llm_breaker_failures"`
	LLMBreakerOpenFor       time.Duration `koanf:"llm_breaker_open_for"`
	LLMBreakerHalfOpenProbe uint32        `koanf:"llm_breaker_half_open_probe"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	LoginRateLimit    int           `koanf:"login_rate_limit"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// envKeys maps environment variable names onto config keys. Variables not
// listed here are ignored.
var envKeys = map[string]string{
	"HTTP_PORT":                   "http_port",
	"ENVIRONMENT":                 "environment",
	"LOG_LEVEL":                   "log_level",
	"LOG_FORMAT":                  "log_format",
	"DATABASE_DRIVER":             "database_driver",
	"DATABASE_URL":                "database_url",
	"JWT_SECRET":                  "jwt_secret",
	"SESSION_TTL":                 "session_ttl",
	"AUTH_CONSTANT_TIME_LOGIN":    "constant_time_login",
	"LLM_PROVIDER":                "llm_provider",
	"LLM_API_KEY":                 "llm_api_key",
	"LLM_BASE_URL":                "llm_base_url",
	"LLM_MODEL":                   "llm_model",
	"LLM_TIMEOUT":                 "llm_timeout",
	"LLM_BREAKER_FAILURES":        "llm_breaker_failures",
	"LLM_BREAKER_OPEN_FOR":        "llm_breaker_open_for",
	"LLM_BREAKER_HALF_OPEN_PROBE": "llm_breaker_half_open_probe",
	"CORS_ORIGINS":                "cors_origins",
	"RATE_LIMIT_REQUESTS":         "rate_limit_requests",
	"RATE_LIMIT_WINDOW":           "rate_limit_window",
	"LOGIN_RATE_LIMIT":            "login_rate_limit",
	"RATE_LIMIT_DISABLED":         "rate_limit_disabled",
}

// Provider specific API key variables, checked when LLM_API_KEY is unset.
var providerKeyEnv = map[string]string{
	ProviderGroq:   "GROQ_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

var providerDefaults = map[string]struct{ baseURL, model string }{
	ProviderGroq:   {baseURL: "https://api.groq.com/openai/v1", model: "llama3-8b-8192"},
	ProviderGemini: {model: "gemini-1.5-flash-latest"},
}

func Default() *Config {
	return &Config{
		HTTPPort:    "8080",
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "console",

		DatabaseDriver: DriverSQLite,
		DatabaseURL:    "reelpick.db",

		SessionTTL: 7 * 24 * time.Hour,

		LLMProvider:             ProviderGroq,
		LLMTimeout:              30 * time.Second,
		LLMBreakerFailures:      5,
		LLMBreakerOpenFor:       30 * time.Second,
		LLMBreakerHalfOpenProbe: 1,

		CORSOrigins:       []string{"http://localhost:3000"},
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		LoginRateLimit:    10,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of priority. A .env file in the working
// directory is loaded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.applyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envValue(key, value string) (string, interface{}) {
	mapped, ok := envKeys[key]
	if !ok || value == "" {
		return "", nil
	}
	if mapped == "cors_origins" {
		return mapped, splitList(value)
	}
	return mapped, value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range []string{"config.yaml", "config.yml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *Config) applyProviderDefaults() {
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	if c.LLMAPIKey == "" {
		if name, ok := providerKeyEnv[c.LLMProvider]; ok {
			c.LLMAPIKey = getEnv(name, "")
		}
	}
	if d, ok := providerDefaults[c.LLMProvider]; ok {
		if c.LLMBaseURL == "" {
			c.LLMBaseURL = d.baseURL
		}
		if c.LLMModel == "" {
			c.LLMModel = d.model
		}
	}
}

// Validate reports configuration that would keep the server from doing any
// useful work. A missing JWT secret is deliberately not fatal: login requests
// answer 500 until one is configured.
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	switch c.LLMProvider {
	case ProviderGroq, ProviderGemini:
		if c.LLMAPIKey == "" {
			errs = append(errs, fmt.Errorf("%s (or LLM_API_KEY) environment variable is required", providerKeyEnv[c.LLMProvider]))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
