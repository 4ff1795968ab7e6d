package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// Route patterns with dedicated limits.
const (
	ChatSessionsPath = "/api/chat/sessions"
	ChatSessionPath  = "/api/chat/sessions/" // prefix: messages, ui, delete
	ProxyPath        = "/api/tfjs-proxy/"
)

// DefaultChatPerMinute is the submission rate used when none is configured.
const DefaultChatPerMinute = 30

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig builds the rate limiting configuration from environment
// variables. chatPerMinute bounds question submissions per client; values
// <= 0 use DefaultChatPerMinute.
func LoadConfig(getenv func(string) string, chatPerMinute int) *Config {
	enabled := envBool(getenv, "RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt(getenv, "RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   envDuration(getenv, "RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration(getenv, "RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(chatPerMinute),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits.
func DefaultEndpointConfigs(chatPerMinute int) []EndpointConfig {
	if chatPerMinute <= 0 {
		chatPerMinute = DefaultChatPerMinute
	}
	burst := max(chatPerMinute/6, 1)
	return []EndpointConfig{
		// Question submission runs inference; keep it tight.
		{Path: ChatSessionPath, Method: "POST", Limit: chatPerMinute, Window: time.Minute, Burst: burst},
		// Session creation signs a token and allocates state.
		{Path: ChatSessionsPath, Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		// A model load pulls a manifest plus a few dozen shards at once.
		{Path: ProxyPath, Method: "GET", Limit: 300, Window: time.Minute, Burst: 100},
	}
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(getenv func(string) string, key string, defaultValue bool) bool {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func envDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
