package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file. Without an explicit path a missing
// file is not an error and the defaults are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix("AUTOLABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".autolabel"))
		}

		// Check /etc
		v.AddConfigPath("/etc/autolabel/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(cfg.Store.Backend)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// qBittorrent defaults
	v.SetDefault("qbittorrent.url", "http://localhost:8080")
	v.SetDefault("qbittorrent.username", "")
	v.SetDefault("qbittorrent.password", "")
	v.SetDefault("qbittorrent.basic_user", "")
	v.SetDefault("qbittorrent.basic_pass", "")
	v.SetDefault("qbittorrent.insecure_skip_verify", false)
	v.SetDefault("qbittorrent.timeout", "30s")
	v.SetDefault("qbittorrent.rate_limit", 0)
	v.SetDefault("qbittorrent.burst", 1)

	// Label defaults
	v.SetDefault("labels.mode", "category")
	v.SetDefault("labels.lowercase", true)

	// Store defaults
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "")
	v.SetDefault("store.format", "json")
	v.SetDefault("store.name", "autolabel")

	// Watcher defaults
	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.interval", "5s")

	// Server defaults
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.listen", "127.0.0.1:7474")
	v.SetDefault("server.api_key", "")

	// Apply defaults
	v.SetDefault("apply.concurrency", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// defaultStorePath returns the per-user location of the rule document
func defaultStorePath(backend string) string {
	base := "."
	if dir, err := os.UserConfigDir(); err == nil {
		base = filepath.Join(dir, "autolabel")
	}
	if backend == "sqlite" {
		return filepath.Join(base, "autolabel.db")
	}
	return base
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.QBittorrent.URL == "" {
		return fmt.Errorf("qbittorrent.url is required")
	}

	if cfg.QBittorrent.Timeout <= 0 {
		return fmt.Errorf("qbittorrent.timeout must be positive")
	}

	if cfg.QBittorrent.RateLimit < 0 {
		return fmt.Errorf("qbittorrent.rate_limit must not be negative")
	}

	if cfg.Labels.Mode != "category" && cfg.Labels.Mode != "tag" {
		return fmt.Errorf("invalid labels.mode: %s (must be 'category' or 'tag')", cfg.Labels.Mode)
	}

	if cfg.Store.Backend != "file" && cfg.Store.Backend != "sqlite" {
		return fmt.Errorf("invalid store.backend: %s (must be 'file' or 'sqlite')", cfg.Store.Backend)
	}

	if cfg.Store.Format != "json" && cfg.Store.Format != "yaml" {
		return fmt.Errorf("invalid store.format: %s (must be 'json' or 'yaml')", cfg.Store.Format)
	}

	if cfg.Store.Name == "" {
		return fmt.Errorf("store.name is required")
	}

	if cfg.Watcher.Enabled && cfg.Watcher.Interval <= 0 {
		return fmt.Errorf("watcher.interval must be positive")
	}

	if cfg.Server.Enabled && cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required when the server is enabled")
	}

	if cfg.Apply.Concurrency < 1 {
		return fmt.Errorf("apply.concurrency must be at least 1")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
