package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config contains all runtime settings for the therapy companion service.
type Config struct {
	BindAddr         string        `koanf:"bind_addr"`
	MetricsNamespace string        `koanf:"metrics_namespace"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
	AllowAnyOrigin   bool          `koanf:"allow_any_origin"`

	Provider    string  `koanf:"provider"`
	Model       string  `koanf:"model"`
	APIKey      string  `koanf:"api_key"`
	BaseURL     string  `koanf:"base_url"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`

	DatabaseURL string `koanf:"database_url"`
}

// envKeys maps the environment surface onto config keys. Variables not
// listed here are ignored.
var envKeys = map[string]string{
	"APP_BIND_ADDR":         "bind_addr",
	"APP_METRICS_NAMESPACE": "metrics_namespace",
	"APP_SHUTDOWN_TIMEOUT":  "shutdown_timeout",
	"APP_ALLOW_ANY_ORIGIN":  "allow_any_origin",
	"GEN_PROVIDER":          "provider",
	"MODEL":                 "model",
	"GEN_API_KEY":           "api_key",
	"GEN_BASE_URL":          "base_url",
	"GEN_TEMPERATURE":       "temperature",
	"GEN_MAX_TOKENS":        "max_tokens",
	"DATABASE_URL":          "database_url",
}

// Load reads environment variables over safe defaults.
func Load() (Config, error) {
	k := koanf.New(".")

	_ = k.Load(confmap.Provider(map[string]interface{}{
		"bind_addr":         ":8080",
		"metrics_namespace": "haven",
		"shutdown_timeout":  "15s",
		"allow_any_origin":  false,
		// Empty provider selects the deterministic mock client so the
		// service runs without credentials.
		"provider":    "",
		"model":       "gpt-3.5-turbo",
		"temperature": 0.7,
		"max_tokens":  500,
	}, "."), nil)

	// Blank values keep the default, matching the usual env convention of
	// treating empty as unset.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return envKeys[key], value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Provider {
	case "", "mock", "openai", "gemini", "claude", "ollama":
	default:
		return fmt.Errorf("GEN_PROVIDER %q is not supported", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("MODEL must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("GEN_TEMPERATURE must be within [0, 2]")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("GEN_MAX_TOKENS must be positive")
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be at least 1s")
	}
	if c.MetricsNamespace == "" {
		return fmt.Errorf("APP_METRICS_NAMESPACE must not be empty")
	}
	return nil
}
