// Package config loads wavegrid configuration from a YAML file, falling back
// to defaults when the file is missing.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tilewright/wavegrid/internal/levelstore"
	"github.com/tilewright/wavegrid/internal/logger"
)

// Config holds all wavegrid settings.
type Config struct {
	Generator GeneratorConfig   `yaml:"generator"`
	Server    ServerConfig      `yaml:"server"`
	Store     levelstore.Config `yaml:"store"`
	Logging   logger.Config     `yaml:"logging"`
}

// GeneratorConfig holds defaults for a generation run. Seed 0 selects a
// time-based seed.
type GeneratorConfig struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Seed    int64  `yaml:"seed"`
	Tileset string `yaml:"tileset"`
}

// ServerConfig holds settings for the streaming server.
type ServerConfig struct {
	Listen    string          `yaml:"listen"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect.
	// Empty list enforces same-origin policy. "*" allows all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Width:   16,
			Height:  16,
			Seed:    0,
			Tileset: "data/tileset.yaml",
		},
		Server: ServerConfig{
			Listen: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // same-origin only by default
				MaxMessageSize: 1 << 20,
			},
		},
		Store: levelstore.Config{
			Driver: "sqlite",
			Path:   "data/wavegrid.db",
		},
		Logging: logger.DefaultConfig(),
	}
}

// Load reads configuration from a YAML file. A missing file yields defaults;
// a malformed file is an error. Environment variables LOG_LEVEL and
// WAVEGRID_LISTEN override the corresponding fields.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(config)
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return Default(), err
	}

	applyEnvOverrides(config)
	return config, nil
}

func applyEnvOverrides(config *Config) {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if listen := os.Getenv("WAVEGRID_LISTEN"); listen != "" {
		config.Server.Listen = listen
	}
}

// IsOriginAllowed checks if the given origin may connect. It returns true if
// AllowedOrigins contains "*" or the exact origin, or if the list is empty
// and the origin matches the request host (same-origin).
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // no Origin header means a non-browser client
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
