// Package config handles workforced configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./workforce.yaml, ~/.config/workforce/config.yaml,
// /etc/workforce/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"workforce.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "workforce", "config.yaml"))
	}

	paths = append(paths, "/etc/workforce/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all workforced configuration.
type Config struct {
	Listen     ListenConfig     `yaml:"listen"`
	Completion CompletionConfig `yaml:"completion"`
	Relay      RelayConfig      `yaml:"relay"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Admins     []AdminConfig    `yaml:"admins"`
	DutyUsers  []string         `yaml:"duty_users"`
	DataDir    string           `yaml:"data_dir"`
	PersonaDir string           `yaml:"persona_dir"`
	LogLevel   string           `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`    // Default: 8321
}

// CompletionConfig defines the upstream chat-completion endpoint.
type CompletionConfig struct {
	// BaseURL is the completion service root
	// (e.g., "https://api.openai.com/v1").
	BaseURL string `yaml:"base_url"`
	// APIKey is the bearer token for the completion service.
	APIKey string `yaml:"api_key"`
	// Model is the model identifier sent with every request.
	Model string `yaml:"model"`
	// MaxReactionTokens caps the length of each agent reaction.
	// Default: 220.
	MaxReactionTokens int `yaml:"max_reaction_tokens"`
	// TimeoutSec bounds each completion call so one hung upstream
	// request cannot stall a reaction batch. Default: 8.
	TimeoutSec int `yaml:"timeout_sec"`
}

// RelayConfig defines the outbound operator broadcast channel (MQTT).
// Leave Broker empty to disable the relay.
type RelayConfig struct {
	Broker   string `yaml:"broker"` // e.g. "mqtts://mq.example.com:8883"
	Topic    string `yaml:"topic"`  // Default: "workforce/alerts"
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SMTPConfig holds SMTP parameters for critical-alert email copies.
// Leave Host empty to disable email delivery.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"` // Default: 587
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// From is the sender address (e.g., "Workforce <ops@example.com>").
	From string `yaml:"from"`
	// StartTLS selects plain-then-upgrade (port 587). When false, the
	// connection is implicit TLS from the start (port 465).
	StartTLS bool `yaml:"starttls"`
}

// SMTPConfigured reports whether email alert copies can be sent.
func (c SMTPConfig) SMTPConfigured() bool {
	return c.Host != "" && c.From != ""
}

// AdminConfig identifies one admin recipient of workforce alerts.
type AdminConfig struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Load reads and parses the config file at path, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = 8321
	}
	if c.Completion.MaxReactionTokens == 0 {
		c.Completion.MaxReactionTokens = 220
	}
	if c.Completion.TimeoutSec == 0 {
		c.Completion.TimeoutSec = 8
	}
	if c.Relay.Topic == "" {
		c.Relay.Topic = "workforce/alerts"
	}
	if c.Relay.ClientID == "" {
		c.Relay.ClientID = "workforced"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
}

// Validate rejects configurations that cannot possibly work.
func (c *Config) Validate() error {
	if c.Completion.BaseURL == "" {
		return fmt.Errorf("completion.base_url is required")
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("completion.model is required")
	}
	for i, a := range c.Admins {
		if a.ID == "" {
			return fmt.Errorf("admins[%d]: id is required", i)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location under DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "workforce.db")
}
