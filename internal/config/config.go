// Package config provides configuration loading and validation for the
// assistant service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Backend names accepted by the Backend field.
var validBackends = map[string]bool{"auto": true, "cpu": true, "gemini": true}

// Config represents the service configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment variables
// or CLI flags.
type Config struct {
	// Fact Set source
	FactsFile   string `json:"facts_file,omitempty"`   // Path to a JSON or YAML Fact Set
	Owner       string `json:"owner,omitempty"`        // Owner slug for database-backed facts
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Server
	Addr          string `json:"addr,omitempty"`            // Listen address, e.g. :8080
	PublicBaseURL string `json:"public_base_url,omitempty"` // Origin serving the asset proxy
	AllowedOrigin string `json:"allowed_origin,omitempty"`  // CORS origin for the API routes

	// Model
	ModelURL           string  `json:"model_url,omitempty"`            // Model manifest URL
	Backend            string  `json:"backend,omitempty"`              // auto, cpu or gemini
	APIKey             string  `json:"api_key,omitempty"`              // Gemini API key
	LoadTimeoutSeconds int     `json:"load_timeout_seconds,omitempty"` // Model load deadline
	MinAnswerScore     float64 `json:"min_answer_score,omitempty"`     // Answer acceptance threshold (0.0-1.0)

	// Asset proxy
	ModelHubHost     string `json:"model_hub_host,omitempty"`
	DatasetHubHost   string `json:"dataset_hub_host,omitempty"`
	DefaultHost      string `json:"default_host,omitempty"`
	DefaultNamespace string `json:"default_namespace,omitempty"`

	// Sessions
	SessionIdleMinutes int `json:"session_idle_minutes,omitempty"`
	ChatRatePerMinute  int `json:"chat_rate_per_minute,omitempty"`

	Verbose bool `json:"verbose,omitempty"` // Debug logging
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:               ":8080",
		AllowedOrigin:      "*",
		ModelURL:           "https://tfhub.dev/tensorflow/tfjs-model/mobilebert/1/model.json?tfjs-format=file",
		Backend:            "auto",
		LoadTimeoutSeconds: 120,
		ModelHubHost:       "tfhub.dev",
		DatasetHubHost:     "www.kaggle.com",
		DefaultHost:        "tfhub.dev",
		DefaultNamespace:   "tensorflow/tfjs-model",
		SessionIdleMinutes: 30,
		ChatRatePerMinute:  30,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.FactsFile != "" && c.Owner != "" {
		return fmt.Errorf("config error: 'facts_file' and 'owner' are mutually exclusive")
	}
	if c.Owner != "" && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'owner' requires 'database_url'")
	}

	if c.Backend != "" && !validBackends[c.Backend] {
		return fmt.Errorf("config error: 'backend' must be one of auto, cpu, gemini; got %q", c.Backend)
	}
	if c.MinAnswerScore < 0 || c.MinAnswerScore > 1 {
		return fmt.Errorf("config error: 'min_answer_score' must be between 0 and 1")
	}
	if c.LoadTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'load_timeout_seconds' must be non-negative")
	}
	if c.SessionIdleMinutes < 0 {
		return fmt.Errorf("config error: 'session_idle_minutes' must be non-negative")
	}
	if c.ChatRatePerMinute < 0 {
		return fmt.Errorf("config error: 'chat_rate_per_minute' must be non-negative")
	}

	if c.FactsFile != "" {
		if _, err := os.Stat(c.FactsFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: facts file not found: %s", c.FactsFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.FactsFile, defaults.FactsFile)
	mergeString(&result.Owner, defaults.Owner)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.Addr, defaults.Addr)
	mergeString(&result.PublicBaseURL, defaults.PublicBaseURL)
	mergeString(&result.AllowedOrigin, defaults.AllowedOrigin)
	mergeString(&result.ModelURL, defaults.ModelURL)
	mergeString(&result.Backend, defaults.Backend)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.ModelHubHost, defaults.ModelHubHost)
	mergeString(&result.DatasetHubHost, defaults.DatasetHubHost)
	mergeString(&result.DefaultHost, defaults.DefaultHost)
	mergeString(&result.DefaultNamespace, defaults.DefaultNamespace)

	// Int fields: use default if zero
	if result.LoadTimeoutSeconds == 0 {
		result.LoadTimeoutSeconds = defaults.LoadTimeoutSeconds
	}
	if result.SessionIdleMinutes == 0 {
		result.SessionIdleMinutes = defaults.SessionIdleMinutes
	}
	if result.ChatRatePerMinute == 0 {
		result.ChatRatePerMinute = defaults.ChatRatePerMinute
	}
	if result.MinAnswerScore == 0 {
		result.MinAnswerScore = defaults.MinAnswerScore
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func mergeString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

// FromEnv overlays environment variables on c. getenv is usually os.Getenv.
func (c *Config) FromEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(&c.FactsFile, "PORTFOLIO_FACTS_FILE")
	setString(&c.Owner, "PORTFOLIO_OWNER")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.Addr, "ASSISTANT_ADDR")
	setString(&c.PublicBaseURL, "ASSISTANT_PUBLIC_BASE_URL")
	setString(&c.AllowedOrigin, "ASSISTANT_ALLOWED_ORIGIN")
	setString(&c.ModelURL, "ASSISTANT_MODEL_URL")
	setString(&c.Backend, "ASSISTANT_BACKEND")
	setString(&c.APIKey, "GEMINI_API_KEY")

	if port := strings.TrimSpace(getenv("PORT")); port != "" && getenv("ASSISTANT_ADDR") == "" {
		c.Addr = ":" + port
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&c.LoadTimeoutSeconds, "ASSISTANT_LOAD_TIMEOUT_SECONDS"},
		{&c.SessionIdleMinutes, "ASSISTANT_SESSION_IDLE_MINUTES"},
		{&c.ChatRatePerMinute, "ASSISTANT_CHAT_RATE_PER_MINUTE"},
	}
	for _, item := range ints {
		v := strings.TrimSpace(getenv(item.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", item.key, err)
		}
		*item.dst = n
	}

	if v := strings.TrimSpace(getenv("ASSISTANT_MIN_ANSWER_SCORE")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ASSISTANT_MIN_ANSWER_SCORE: %v", err)
		}
		c.MinAnswerScore = f
	}
	return nil
}

// GatewayBase returns the origin the model loader reroutes provider requests
// to: PublicBaseURL when set, otherwise listenAddr, the address the server is
// actually bound to. Unspecified hosts map to loopback.
func (c *Config) GatewayBase(listenAddr string) string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "http://" + listenAddr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
		if ip != nil && ip.To4() == nil {
			host = "::1"
		}
	}
	return "http://" + net.JoinHostPort(host, port)
}
