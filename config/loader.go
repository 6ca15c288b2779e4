// Package config loads service configuration from the environment and an
// optional YAML file. Environment variables win over file values; the file
// may reference variables with ${VAR} syntax.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP/WebSocket surface settings.
type ServerConfig struct {
	Host           string   `yaml:"host" json:"host"`
	Port           int      `yaml:"port" json:"port"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`
}

// LLMConfig selects the optional model provider. The API key itself is only
// ever read from the environment.
type LLMConfig struct {
	Provider       string `yaml:"provider,omitempty" json:"provider,omitempty"`
	Model          string `yaml:"model,omitempty" json:"model,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// StorageConfig wires the optional persistence collaborators. Empty values
// disable the respective store; the engine runs fully in-memory without them.
type StorageConfig struct {
	PostgresDSN     string `yaml:"postgres_dsn,omitempty" json:"postgres_dsn,omitempty"`
	RedisAddr       string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	SessionTTLHours int    `yaml:"session_ttl_hours,omitempty" json:"session_ttl_hours,omitempty"`
}

// EscalationConfig extends the built-in escalation triggers.
type EscalationConfig struct {
	ExtraKeywords        []string `yaml:"extra_keywords,omitempty" json:"extra_keywords,omitempty"`
	HighSeverityKeywords []string `yaml:"high_severity_keywords,omitempty" json:"high_severity_keywords,omitempty"`
}

// FAQEntry is a knowledge base item loaded from the config file, merged on
// top of the seeded corpus.
type FAQEntry struct {
	Question string   `yaml:"question" json:"question"`
	Answer   string   `yaml:"answer" json:"answer"`
	Category string   `yaml:"category,omitempty" json:"category,omitempty"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	LLM        LLMConfig        `yaml:"llm,omitempty" json:"llm,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty" json:"storage,omitempty"`
	Escalation EscalationConfig `yaml:"escalation,omitempty" json:"escalation,omitempty"`
	FAQs       []FAQEntry       `yaml:"faqs,omitempty" json:"faqs,omitempty"`
	LogLevel   string           `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			SessionTTLHours: 24,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML config file and applies environment overrides. A
// missing file is not an error; defaults plus environment are used instead.
func Load(configPath string) (*Config, error) {
	// Try to load .env first, ignore error if it doesn't exist
	_ = godotenv.Load()

	cfg := Default()

	if configPath == "" {
		configPath = getEnv("ROUTER_CONFIG", "configs/router.yaml")
	}
	data, err := os.ReadFile(configPath)
	if err == nil {
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets environment variables override file values.
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitAndTrim(origins)
	}

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.TimeoutSeconds = getEnvInt("LLM_TIMEOUT_SECONDS", c.LLM.TimeoutSeconds)

	c.Storage.PostgresDSN = getEnv("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.SessionTTLHours = getEnvInt("SESSION_TTL_HOURS", c.Storage.SessionTTLHours)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SessionTTL returns the snapshot TTL as a duration.
func (c *Config) SessionTTL() time.Duration {
	hours := c.Storage.SessionTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func expandEnvVars(s string) string {
	// Replace ${VAR_NAME} with environment variable values
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

func splitAndTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
