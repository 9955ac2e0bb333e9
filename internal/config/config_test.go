package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Bridge.Host)
	assert.Equal(t, 9876, cfg.Bridge.Port)
	assert.Equal(t, 15*time.Second, cfg.Bridge.SocketTimeout.Std())
	assert.Equal(t, 3, cfg.Bridge.ConnectAttempts)
	assert.Equal(t, 3, cfg.Bridge.CommandAttempts)
	assert.Equal(t, time.Second, cfg.Bridge.RetryBackoff.Std())
	assert.Equal(t, 30*time.Second, cfg.Bridge.ClientTimeout.Std())
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"bridge": {
			"host": "127.0.0.1",
			"port": 9999,
			"socket_timeout": "5s",
			"client_timeout": 2.5
		},
		"log": {"level": "debug"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Bridge.Host)
	assert.Equal(t, 9999, cfg.Bridge.Port)
	assert.Equal(t, 5*time.Second, cfg.Bridge.SocketTimeout.Std())
	assert.Equal(t, 2500*time.Millisecond, cfg.Bridge.ClientTimeout.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	// Fields absent from the file keep defaults.
	assert.Equal(t, 3, cfg.Bridge.CommandAttempts)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bridge": {"port": 9999}}`), 0644))

	t.Setenv("SCENELINK_PORT", "7777")
	t.Setenv("SCENELINK_SOCKET_TIMEOUT", "2")
	t.Setenv("SCENELINK_CONNECT_ATTEMPTS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Bridge.Port)
	assert.Equal(t, 2*time.Second, cfg.Bridge.SocketTimeout.Std())
	assert.Equal(t, 5, cfg.Bridge.ConnectAttempts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Bridge.Host = "" },
		func(c *Config) { c.Bridge.Port = 0 },
		func(c *Config) { c.Bridge.Port = 70000 },
		func(c *Config) { c.Bridge.ConnectAttempts = 0 },
		func(c *Config) { c.Bridge.CommandAttempts = 0 },
		func(c *Config) { c.Bridge.SocketTimeout = 0 },
		func(c *Config) { c.Bridge.ClientTimeout = 0 },
		func(c *Config) { c.Bridge.RetryBackoff = Duration(-time.Second) },
	}

	for i, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Errorf(t, cfg.Validate(), "case %d should fail validation", i)
	}
}

func TestDurationParse(t *testing.T) {
	var d Duration
	require.NoError(t, d.Decode("500ms"))
	assert.Equal(t, 500*time.Millisecond, d.Std())

	require.NoError(t, d.Decode("1.5"))
	assert.Equal(t, 1500*time.Millisecond, d.Std())

	assert.Error(t, d.Decode("soon"))
}

func TestAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost:9876", cfg.Bridge.Addr())
}
