// Package config loads ~/.slidedeck/config.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slidedeck-cli/internal/artifact"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"

	FileName = "config.toml"
)

type Config struct {
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	Autosave AutosaveConfig `toml:"autosave" json:"autosave"`
	Export   ExportConfig   `toml:"export" json:"export"`
	Log      LogConfig      `toml:"log" json:"log"`
}

type StorageConfig struct {
	// Backend is one of sqlite, file or redis.
	Backend string `toml:"backend" json:"backend"`
	// Path is the sqlite database or JSON file; relative paths resolve against the
	// config dir. Empty picks a per-backend default.
	Path      string `toml:"path" json:"path,omitempty"`
	RedisAddr string `toml:"redis_addr" json:"redisAddr"`
	RedisKey  string `toml:"redis_key" json:"redisKey"`
}

type AutosaveConfig struct {
	QuietWindow string `toml:"quiet_window" json:"quietWindow"`
}

type ExportConfig struct {
	OutDir    string `toml:"out_dir" json:"outDir"`
	Overwrite bool   `toml:"overwrite" json:"overwrite"`
}

type LogConfig struct {
	Level string `toml:"level" json:"level"`
}

func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:   BackendSQLite,
			RedisAddr: "localhost:6379",
			RedisKey:  "slidedeck.project",
		},
		Autosave: AutosaveConfig{QuietWindow: "30s"},
		Export:   ExportConfig{OutDir: "."},
		Log:      LogConfig{Level: "info"},
	}
}

// Dir is $SLIDEDECK_CONFIG_DIR when set, otherwise ~/.slidedeck.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("SLIDEDECK_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".slidedeck"), nil
}

func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the config in dir. A missing file yields the defaults. Environment
// overrides are applied last.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := Path(dir)
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg.fillDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to dir/config.toml, replacing any existing file.
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("# slidedeck configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return artifact.WriteFileAtomic(Path(dir), buf.Bytes(), 0o600)
}

func (c *Config) fillDefaults() {
	d := Default()
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if strings.TrimSpace(c.Storage.RedisAddr) == "" {
		c.Storage.RedisAddr = d.Storage.RedisAddr
	}
	if strings.TrimSpace(c.Storage.RedisKey) == "" {
		c.Storage.RedisKey = d.Storage.RedisKey
	}
	if strings.TrimSpace(c.Autosave.QuietWindow) == "" {
		c.Autosave.QuietWindow = d.Autosave.QuietWindow
	}
	if strings.TrimSpace(c.Export.OutDir) == "" {
		c.Export.OutDir = d.Export.OutDir
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = d.Log.Level
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("SLIDEDECK_STORAGE")); v != "" {
		c.Storage.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("SLIDEDECK_OUT_DIR")); v != "" {
		c.Export.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv("SLIDEDECK_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Backend)) {
	case BackendSQLite, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q (want sqlite|file|redis)", c.Storage.Backend)
	}
	if _, err := c.QuietWindow(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// QuietWindow parses autosave.quiet_window.
func (c Config) QuietWindow() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(c.Autosave.QuietWindow))
	if err != nil {
		return 0, fmt.Errorf("autosave.quiet_window: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("autosave.quiet_window: must be positive, got %s", d)
	}
	return d, nil
}

// StoragePath resolves storage.path for the configured backend.
func (c Config) StoragePath(dir string) string {
	p := strings.TrimSpace(c.Storage.Path)
	if p == "" {
		switch strings.ToLower(c.Storage.Backend) {
		case BackendFile:
			p = "project.json"
		default:
			p = "slidedeck.sqlite"
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
