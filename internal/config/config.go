// Package config handles TOML-based configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Player   string `toml:"player"`
	Quality  string `toml:"quality"`
	History  bool   `toml:"history"`
	Debug    bool   `toml:"debug"`
}

// Default returns the default configuration. Credentials default to empty:
// resolution proceeds unauthenticated unless a username is supplied.
func Default() *Config {
	return &Config{
		Player:  "mpv",
		Quality: "best",
		History: true,
		Debug:   false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "beeb"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "beeb"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if c.Quality != "best" && c.Quality != "worst" && !validQualityLabel(c.Quality) {
		return fmt.Errorf("unsupported quality %q (valid: best, worst, or a label like 720p or 1500k)", c.Quality)
	}

	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("password set without username")
	}

	return nil
}

// validQualityLabel accepts variant labels of the forms "720p" and "1500k".
func validQualityLabel(q string) bool {
	if len(q) < 2 {
		return false
	}
	suffix := q[len(q)-1]
	if suffix != 'p' && suffix != 'k' {
		return false
	}
	for _, r := range q[:len(q)-1] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HistoryPath returns the path to the watch-history database.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "beeb", "history.db"), nil
}
