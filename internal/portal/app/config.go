package app

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	APIURL              string        `koanf:"api_url"`               // Base URL of the dental API (default: http://localhost:5000)
	StorageDriver       string        `koanf:"storage_driver"`        // Token storage: memory, file, sqlite (default: file)
	StoragePath         string        `koanf:"storage_path"`          // File or database path (default: XDG state dir)
	StorageKey          string        `koanf:"storage_key"`           // Optional: secret that seals stored tokens
	Env                 string        `koanf:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        `koanf:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        `koanf:"log_format"`            // Log format (json, text) (default: text)
	Port                int           `koanf:"port"`                  // Portal HTTP port (default: 8080, 0 picks a free port)
	HTTPTimeout         time.Duration `koanf:"http_timeout"`          // Timeout of a single API call (default: 10s)
	ShutdownGracePeriod time.Duration `koanf:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	ExpiryCheckInterval time.Duration `koanf:"expiry_check_interval"` // How often the portal checks token expiry (default: 30s)

	LogOutput io.Writer `koanf:"-"` // Optional: log destination (default: stderr)
}

type setting struct {
	key string
	env string
	def any
}

// settings lists every configuration key, its environment variable and its
// default.
var settings = []setting{
	{"api_url", "DENTAL_API_URL", "http://localhost:5000"},
	{"storage_driver", "DENTAL_STORAGE_DRIVER", "file"},
	{"storage_path", "DENTAL_STORAGE_PATH", ""},
	{"storage_key", "DENTAL_STORAGE_KEY", ""},
	{"env", "ENV", "dev"},
	{"log_level", "LOG_LEVEL", "info"},
	{"log_format", "LOG_FORMAT", "text"},
	{"port", "PORTAL_PORT", 8080},
	{"http_timeout", "HTTP_TIMEOUT", "10s"},
	{"shutdown_grace_period", "SHUTDOWN_GRACE_PERIOD", "10s"},
	{"expiry_check_interval", "EXPIRY_CHECK_INTERVAL", "30s"},
}

// Load layers configuration: defaults, then the YAML file at path (skipped
// when path is empty or missing), then environment variables, then flags
// the user actually set. Flag names map to keys with '-' replaced by '_'.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	for _, s := range settings {
		if err := k.Set(s.key, s.def); err != nil {
			return Config{}, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	for _, s := range settings {
		if v := os.Getenv(s.env); v != "" {
			if err := k.Set(s.key, v); err != nil {
				return Config{}, err
			}
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !known(key) {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func known(key string) bool {
	for _, s := range settings {
		if s.key == key {
			return true
		}
	}
	return false
}

// Validate checks that the configuration is usable.
func (cfg Config) Validate() error {
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api-url must be an absolute http(s) URL, got %q", cfg.APIURL)
	}
	switch cfg.StorageDriver {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("storage-driver must be memory, file or sqlite, got %q", cfg.StorageDriver)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http-timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown-grace-period must be positive, got %s", cfg.ShutdownGracePeriod)
	}
	if cfg.ExpiryCheckInterval <= 0 {
		return fmt.Errorf("expiry-check-interval must be positive, got %s", cfg.ExpiryCheckInterval)
	}
	return nil
}
