package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), config)
	assert.Equal(t, "localhost:8475", config.Server.Address)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
address = "chat.example.com:9000"

[connection]
retry_delay_seconds = 7

[metrics]
enabled = true
port = 9200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "chat.example.com:9000", config.Server.Address)
	assert.Equal(t, 7*time.Second, config.RetryDelay())
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, 9200, config.Metrics.Port)

	// Untouched sections keep their defaults
	assert.Equal(t, "~/.voclink/voclink.db", config.State.DatabasePath)
	assert.Equal(t, 10*time.Second, config.CallTimeout())
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddress ="), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestDurationHelpersClampNonPositiveValues(t *testing.T) {
	config := Config{}
	assert.Equal(t, DefaultRetryDelay, config.RetryDelay())
	assert.Equal(t, 10*time.Second, config.CallTimeout())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".voclink", "voclink.db"), ExpandPath("~/.voclink/voclink.db"))
	assert.Equal(t, "/absolute/path.db", ExpandPath("/absolute/path.db"))
	assert.Equal(t, "relative.db", ExpandPath("relative.db"))
}
