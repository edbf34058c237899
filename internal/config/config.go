// Package config provides configuration management for patterex.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Observer ObserverConfig
	Trigger  TriggerConfig
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	Port               int
	Host               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORS               bool
	CORSAllowedOrigins []string
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// ObserverConfig holds observer-related configuration.
type ObserverConfig struct {
	// HTTP callback observer
	EnableHTTP      bool
	HTTPCallbackURL string
	HTTPMethod      string
	HTTPTimeout     time.Duration
	HTTPMaxRetries  int
	HTTPRetryDelay  time.Duration
	HTTPHeaders     map[string]string

	// Logger observer
	EnableLogger bool

	// WebSocket observer
	EnableWebSocket     bool
	WebSocketBufferSize int

	// General settings
	BufferSize int
}

// TriggerEntry maps a cron schedule to a pattern document on disk.
type TriggerEntry struct {
	Name     string
	Schedule string
	Path     string
}

// TriggerConfig holds scheduled-run configuration.
type TriggerConfig struct {
	Enabled  bool
	Triggers []TriggerEntry
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	godotenv.Load()
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnvAsInt("PATTEREX_PORT", 8585),
			Host:               getEnv("PATTEREX_HOST", "0.0.0.0"),
			ReadTimeout:        getEnvAsDuration("PATTEREX_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getEnvAsDuration("PATTEREX_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout:    getEnvAsDuration("PATTEREX_SHUTDOWN_TIMEOUT", 30*time.Second),
			CORS:               getEnvAsBool("PATTEREX_CORS_ENABLED", false),
			CORSAllowedOrigins: getEnvAsSlice("PATTEREX_CORS_ALLOWED_ORIGINS", []string{}),
		},
		Logging: LoggingConfig{
			Level:  getEnv("PATTEREX_LOG_LEVEL", "info"),
			Format: getEnv("PATTEREX_LOG_FORMAT", "json"),
		},
		Observer: ObserverConfig{
			EnableHTTP:          getEnvAsBool("PATTEREX_OBSERVER_HTTP_ENABLED", false),
			HTTPCallbackURL:     getEnv("PATTEREX_OBSERVER_HTTP_URL", ""),
			HTTPMethod:          getEnv("PATTEREX_OBSERVER_HTTP_METHOD", "POST"),
			HTTPTimeout:         getEnvAsDuration("PATTEREX_OBSERVER_HTTP_TIMEOUT", 10*time.Second),
			HTTPMaxRetries:      getEnvAsInt("PATTEREX_OBSERVER_HTTP_MAX_RETRIES", 3),
			HTTPRetryDelay:      getEnvAsDuration("PATTEREX_OBSERVER_HTTP_RETRY_DELAY", 1*time.Second),
			HTTPHeaders:         parseHTTPHeaders(getEnv("PATTEREX_OBSERVER_HTTP_HEADERS", "")),
			EnableLogger:        getEnvAsBool("PATTEREX_OBSERVER_LOGGER_ENABLED", true),
			EnableWebSocket:     getEnvAsBool("PATTEREX_OBSERVER_WEBSOCKET_ENABLED", true),
			WebSocketBufferSize: getEnvAsInt("PATTEREX_OBSERVER_WEBSOCKET_BUFFER_SIZE", 256),
			BufferSize:          getEnvAsInt("PATTEREX_OBSERVER_BUFFER_SIZE", 100),
		},
		Trigger: TriggerConfig{
			Enabled:  getEnvAsBool("PATTEREX_TRIGGER_ENABLED", false),
			Triggers: parseTriggers(getEnv("PATTEREX_TRIGGERS", "")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	current := ""
	for _, ch := range valueStr {
		if ch == ',' {
			if current != "" {
				result = append(result, current)
				current = ""
			}
		} else {
			current += string(ch)
		}
	}

	if current != "" {
		result = append(result, current)
	}

	return result
}

// parseHTTPHeaders parses HTTP headers from environment variable.
// Format: "Key1:Value1,Key2:Value2"
func parseHTTPHeaders(headersStr string) map[string]string {
	headers := make(map[string]string)
	if headersStr == "" {
		return headers
	}

	pairs := strings.Split(headersStr, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return headers
}

// parseTriggers parses scheduled triggers from an environment variable.
// Format: "name@schedule@path;name2@schedule2@path2", e.g.
// "nightly-build@0 0 2 * * *@./workflows/nightly.yaml"
func parseTriggers(triggersStr string) []TriggerEntry {
	var entries []TriggerEntry
	if triggersStr == "" {
		return entries
	}

	for _, raw := range strings.Split(triggersStr, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, "@", 3)
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, TriggerEntry{
			Name:     strings.TrimSpace(parts[0]),
			Schedule: strings.TrimSpace(parts[1]),
			Path:     strings.TrimSpace(parts[2]),
		})
	}

	return entries
}
