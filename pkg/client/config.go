package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the client configuration file layout
type Config struct {
	Server     ServerSection     `toml:"server"`
	Connection ConnectionSection `toml:"connection"`
	State      StateSection      `toml:"state"`
	Metrics    MetricsSection    `toml:"metrics"`
}

type ServerSection struct {
	Address string `toml:"address"`
}

type ConnectionSection struct {
	RetryDelaySeconds  int `toml:"retry_delay_seconds"`
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
}

type StateSection struct {
	DatabasePath string `toml:"database_path"`
}

type MetricsSection struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerSection{
			Address: "localhost:8475",
		},
		Connection: ConnectionSection{
			RetryDelaySeconds:  3,
			CallTimeoutSeconds: 10,
		},
		State: StateSection{
			DatabasePath: "~/.voclink/voclink.db",
		},
		Metrics: MetricsSection{
			Enabled: false,
			Port:    9091,
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing
// file is not an error; the defaults apply.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	expanded := ExpandPath(path)
	if _, err := os.Stat(expanded); os.IsNotExist(err) {
		return config, nil
	}

	if _, err := toml.DecodeFile(expanded, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file %s: %w", expanded, err)
	}

	return config, nil
}

// RetryDelay returns the configured fixed retry delay
func (c Config) RetryDelay() time.Duration {
	if c.Connection.RetryDelaySeconds <= 0 {
		return DefaultRetryDelay
	}
	return time.Duration(c.Connection.RetryDelaySeconds) * time.Second
}

// CallTimeout returns the configured backend call timeout
func (c Config) CallTimeout() time.Duration {
	if c.Connection.CallTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Connection.CallTimeoutSeconds) * time.Second
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
