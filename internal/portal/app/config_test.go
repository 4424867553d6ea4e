package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", cfg.APIURL)
	require.Equal(t, "file", cfg.StorageDriver)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 30*time.Second, cfg.ExpiryCheckInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://file.example
storage_driver: sqlite
port: 9000
http_timeout: 5s
log_level: debug
`), 0o600))

	t.Setenv("PORTAL_PORT", "9100")
	t.Setenv("LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	flags.Int("port", 0, "")
	flags.String("log-level", "info", "")
	flags.String("email", "", "")
	require.NoError(t, flags.Parse([]string{"--port=9200", "--email=a@b.com"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	require.Equal(t, "https://file.example", cfg.APIURL, "file beats default, unset flag does not override")
	require.Equal(t, "sqlite", cfg.StorageDriver)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, "warn", cfg.LogLevel, "env beats file")
	require.Equal(t, 9200, cfg.Port, "flag beats env")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [nope"), 0o600))

	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("", nil)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative api url", func(c *Config) { c.APIURL = "/api" }},
		{"ftp api url", func(c *Config) { c.APIURL = "ftp://x" }},
		{"unknown driver", func(c *Config) { c.StorageDriver = "redis" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"zero expiry check", func(c *Config) { c.ExpiryCheckInterval = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
