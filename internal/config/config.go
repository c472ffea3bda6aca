package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DataDir string `koanf:"data_dir"` // overrides the default location of the state database

	// Transport settings (mpv)
	Transport TransportConfig `koanf:"transport"`

	// Catalog server (track metadata and stream URLs)
	Catalog CatalogConfig `koanf:"catalog"`

	// Local stream server settings
	Stream StreamConfig `koanf:"stream"`
}

// TransportConfig holds mpv process configuration.
type TransportConfig struct {
	MpvPath          string   `koanf:"mpv_path"`          // mpv binary, default "mpv"
	MpvArgs          []string `koanf:"mpv_args"`          // extra args appended to the mpv command line
	ProgressInterval int      `koanf:"progress_interval"` // progress reporting interval in milliseconds (default: 1000)
}

// CatalogConfig holds the remote catalog endpoint.
type CatalogConfig struct {
	URL string `koanf:"url"` // e.g., "http://localhost:3000"
}

// StreamConfig holds the local file stream server settings.
type StreamConfig struct {
	ListenAddr string `koanf:"listen_addr"` // e.g., ":8090"
	MediaDir   string `koanf:"media_dir"`   // root directory served for local tracks
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir != "" {
		cfg.DataDir = expandPath(cfg.DataDir)
	}
	if cfg.Stream.MediaDir != "" {
		cfg.Stream.MediaDir = expandPath(cfg.Stream.MediaDir)
	}

	// Normalize catalog URL (remove trailing slash)
	cfg.Catalog.URL = strings.TrimSuffix(cfg.Catalog.URL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/cadence/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cadence", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// MpvPath returns the configured mpv binary, defaulting to "mpv" on PATH.
func (c *Config) MpvPath() string {
	if c.Transport.MpvPath != "" {
		return c.Transport.MpvPath
	}
	return "mpv"
}

// ProgressInterval returns the progress reporting interval with the
// default applied.
func (c *Config) ProgressInterval() time.Duration {
	if c.Transport.ProgressInterval <= 0 {
		return time.Second
	}
	return time.Duration(c.Transport.ProgressInterval) * time.Millisecond
}

// HasCatalog returns true if a remote catalog is configured.
func (c *Config) HasCatalog() bool {
	return c.Catalog.URL != ""
}

// StreamListenAddr returns the stream server address with the default
// applied.
func (c *Config) StreamListenAddr() string {
	if c.Stream.ListenAddr != "" {
		return c.Stream.ListenAddr
	}
	return ":8090"
}
