// Package config holds the bridge configuration: where the host listens,
// how the client retries, and logging. Values come from built-in defaults,
// an optional JSON config file, and SCENELINK_* environment variables, in
// that order of increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
)

// Default connection and retry settings. The retry backoff is linear
// (backoff × attempt number), matching the wire peers this bridge
// interoperates with.
const (
	DefaultHost            = "localhost"
	DefaultPort            = 9876
	DefaultSocketTimeout   = 15 * time.Second
	DefaultConnectAttempts = 3
	DefaultCommandAttempts = 3
	DefaultRetryBackoff    = 1 * time.Second
	DefaultClientTimeout   = 30 * time.Second
)

// Config is the top-level configuration
type Config struct {
	Bridge BridgeConfig `json:"bridge"`
	Log    LogConfig    `json:"log"`
}

// BridgeConfig configures both ends of the socket bridge. Go's net package
// does not expose the listen backlog, so the historical backlog knob is
// absent here; the kernel default applies.
type BridgeConfig struct {
	// Host and Port the host application listens on
	Host string `json:"host" env:"SCENELINK_HOST"`
	Port int    `json:"port" env:"SCENELINK_PORT"`

	// SocketTimeout bounds each client-side connect, send and receive
	SocketTimeout Duration `json:"socket_timeout" env:"SCENELINK_SOCKET_TIMEOUT"`

	// ConnectAttempts and CommandAttempts are the client retry budgets
	ConnectAttempts int `json:"connect_attempts" env:"SCENELINK_CONNECT_ATTEMPTS"`
	CommandAttempts int `json:"command_attempts" env:"SCENELINK_COMMAND_ATTEMPTS"`

	// RetryBackoff is the base of the linear backoff between attempts
	RetryBackoff Duration `json:"retry_backoff" env:"SCENELINK_RETRY_BACKOFF"`

	// ClientTimeout is the host-side per-client receive timeout. It is
	// deliberately larger than the listener's accept poll so long-running
	// commands do not starve the next frame's read wait.
	ClientTimeout Duration `json:"client_timeout" env:"SCENELINK_CLIENT_TIMEOUT"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `json:"level" env:"SCENELINK_LOG_LEVEL"`
	Path  string `json:"path" env:"SCENELINK_LOG_PATH"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			SocketTimeout:   Duration(DefaultSocketTimeout),
			ConnectAttempts: DefaultConnectAttempts,
			CommandAttempts: DefaultCommandAttempts,
			RetryBackoff:    Duration(DefaultRetryBackoff),
			ClientTimeout:   Duration(DefaultClientTimeout),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (skipped when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays SCENELINK_* environment variables.
func (c *Config) applyEnv() error {
	err := envdecode.Decode(c)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to decode environment: %w", err)
	}
	return nil
}

// Validate rejects configurations the bridge cannot run with.
func (c *Config) Validate() error {
	if c.Bridge.Host == "" {
		return errors.New("bridge host must not be empty")
	}
	if c.Bridge.Port <= 0 || c.Bridge.Port > 65535 {
		return fmt.Errorf("bridge port %d is out of range", c.Bridge.Port)
	}
	if c.Bridge.ConnectAttempts < 1 {
		return fmt.Errorf("connect_attempts must be at least 1, got %d", c.Bridge.ConnectAttempts)
	}
	if c.Bridge.CommandAttempts < 1 {
		return fmt.Errorf("command_attempts must be at least 1, got %d", c.Bridge.CommandAttempts)
	}
	if c.Bridge.SocketTimeout <= 0 {
		return errors.New("socket_timeout must be positive")
	}
	if c.Bridge.ClientTimeout <= 0 {
		return errors.New("client_timeout must be positive")
	}
	if c.Bridge.RetryBackoff < 0 {
		return errors.New("retry_backoff must not be negative")
	}
	return nil
}

// Addr returns the host:port address string.
func (c *BridgeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
