// Package config loads service configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config file exceeds maximum size")
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidStrategy = errors.New("invalid browser strategy")
)

// maxConfigSize caps config input to prevent memory exhaustion.
const maxConfigSize = 1 << 20

// Config holds all service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Browser BrowserConfig `yaml:"browser"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BrowserConfig holds renderer lifecycle settings.
type BrowserConfig struct {
	Strategy string `yaml:"strategy"` // "shared" (default) or "fresh"
	Bin      string `yaml:"bin"`      // explicit browser binary, empty = auto
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level"`    // zap level name (default: "info")
	Encoding    string `yaml:"encoding"` // "json" or "console"
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 3000},
		Browser: BrowserConfig{Strategy: "shared"},
		Log:     LogConfig{Level: "info", Encoding: "json"},
	}
}

// Load reads configuration from path, falling back to defaults when path is
// empty. Environment overrides apply after the file; unknown YAML fields are
// rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-provided
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if len(data) > maxConfigSize {
			return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), maxConfigSize)
		}
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays deployment-environment settings over the file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BROWSER_STRATEGY"); v != "" {
		cfg.Browser.Strategy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate normalizes and checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	c.Browser.Strategy = strings.ToLower(c.Browser.Strategy)
	switch c.Browser.Strategy {
	case "":
		c.Browser.Strategy = "shared"
	case "shared", "fresh":
	default:
		return fmt.Errorf("%w: %q (must be shared or fresh)", ErrInvalidStrategy, c.Browser.Strategy)
	}

	return nil
}
