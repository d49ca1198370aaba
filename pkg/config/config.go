package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const defaultConfigTmpl = `# Articles configuration file.

# Base URL of the articles server used by the tui and console front-ends.
endpoint = "http://localhost:5000"

# Seconds a status or error line stays on screen.
status_timeout = 4

[server]
# Address the articles server listens on.
addr = ":5000"
# Database driver: "sqlite" or "postgres".
driver = "sqlite"
# Data source name. For sqlite this is a file path.
dsn = %q

[log]
level = "info"
file = %q
`

type Config struct {
	Endpoint      string       `toml:"endpoint"`
	StatusTimeout int          `toml:"status_timeout"`
	Server        ServerConfig `toml:"server"`
	Log           LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Addr   string `toml:"addr"`
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// StatusDuration returns how long transient messages stay visible.
func (c Config) StatusDuration() time.Duration {
	return time.Duration(c.StatusTimeout) * time.Second
}

// Validate checks the settings that have no usable fallback.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint not configured")
	}
	switch c.Server.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Server.Driver)
	}
	if c.Server.DSN == "" {
		return fmt.Errorf("server.dsn not configured")
	}
	return nil
}

// Dir returns the articles configuration directory (~/.articles).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".articles"), nil
}

// Path returns the path to the default config file.
func Path() string {
	dir, _ := Dir()
	return filepath.Join(dir, "articles.toml")
}

// Load reads the config at path, creating a default config file if one
// doesn't exist. An empty path means Path().
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}
	dir := filepath.Dir(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Config{}, fmt.Errorf("could not create config directory: %w", err)
		}
		contents := fmt.Sprintf(defaultConfigTmpl,
			filepath.Join(dir, "articles.db"), filepath.Join(dir, "articles.log"))
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			return Config{}, fmt.Errorf("could not write default config: %w", err)
		}
	}

	cfg := Config{
		StatusTimeout: 4,
		Server:        ServerConfig{Addr: ":5000", Driver: "sqlite"},
		Log:           LogConfig{Level: "info"},
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse %s: %w", path, err)
	}

	var err error
	if cfg.Log.File, err = expandHome(cfg.Log.File); err != nil {
		return Config{}, err
	}
	if cfg.Server.Driver == "sqlite" {
		if cfg.Server.DSN, err = expandHome(cfg.Server.DSN); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// expandHome expands a leading ~/ in p.
func expandHome(p string) (string, error) {
	if len(p) >= 2 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(home, p[2:]), nil
	}
	return p, nil
}
