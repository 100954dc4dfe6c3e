package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	QBittorrent QBittorrentConfig `mapstructure:"qbittorrent"`
	Labels      LabelsConfig      `mapstructure:"labels"`
	Store       StoreConfig       `mapstructure:"store"`
	Watcher     WatcherConfig     `mapstructure:"watcher"`
	Server      ServerConfig      `mapstructure:"server"`
	Apply       ApplyConfig       `mapstructure:"apply"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// QBittorrentConfig holds qBittorrent Web API connection details
type QBittorrentConfig struct {
	URL                string        `mapstructure:"url"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	BasicUser          string        `mapstructure:"basic_user"`
	BasicPass          string        `mapstructure:"basic_pass"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second; zero disables limiting
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// LabelsConfig controls how labels are written to qBittorrent
type LabelsConfig struct {
	// Mode is "category" or "tag"
	Mode      string `mapstructure:"mode"`
	Lowercase bool   `mapstructure:"lowercase"`
}

// StoreConfig selects where the rule document is persisted
type StoreConfig struct {
	// Backend is "file" or "sqlite"
	Backend string `mapstructure:"backend"`
	// Path is a directory for the file backend and a database file for sqlite
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
	Name   string `mapstructure:"name"`
}

// WatcherConfig controls polling for new torrents
type WatcherConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	APIKey  string `mapstructure:"api_key"`
}

// ApplyConfig tunes bulk apply
type ApplyConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
