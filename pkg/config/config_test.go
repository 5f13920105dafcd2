package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	t.Setenv("STEADY_API_URL", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "Tasks", cfg.Calendar)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Proxy.Listen)
	assert.Equal(t, "ping", cfg.Proxy.PingMessage)
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("STEADY_API_URL", "")
	t.Setenv("STEADY_CALENDAR", "")
	t.Setenv("STEADY_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	in := &Config{
		APIURL:   "http://localhost:5000/",
		Calendar: "Deadlines",
		LogLevel: "debug",
		Proxy:    ProxyConfig{Listen: ":9000", Upstream: "http://localhost:5000", PingMessage: "pong"},
	}
	require.NoError(t, SaveFile(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", out.APIURL, "trailing slash is trimmed")
	assert.Equal(t, "Deadlines", out.Calendar)
	assert.Equal(t, "debug", out.LogLevel)
	assert.Equal(t, ":9000", out.Proxy.Listen)
	assert.Equal(t, "http://localhost:5000", out.Proxy.Upstream)
	assert.Equal(t, "pong", out.Proxy.PingMessage)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_url": "http://file", "proxy": {"listen": ":1"}}`), 0600))

	t.Setenv("STEADY_API_URL", "http://env")
	t.Setenv("STEADY_PROXY_LISTEN", ":2")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.APIURL)
	assert.Equal(t, ":2", cfg.Proxy.Listen)
}

func TestLoadFileRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestGetXdgHomeOverride(t *testing.T) {
	t.Setenv("STEADY_HOME", "/tmp/steady-test")
	dir, err := GetXdgHome()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/steady-test", dir)
}

func TestSet(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Set("api_url", "http://localhost:5000/"))
	require.NoError(t, cfg.Set("request_timeout", "15"))
	require.NoError(t, cfg.Set("log_json", "true"))
	require.NoError(t, cfg.Set("proxy.upstream", "http://backend:5000"))

	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, 15, cfg.RequestTimeout)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "http://backend:5000", cfg.Proxy.Upstream)

	assert.Error(t, cfg.Set("request_timeout", "-1"))
	assert.Error(t, cfg.Set("log_level", "loud"))
	assert.ErrorContains(t, cfg.Set("colour", "blue"), "unknown setting")
}
