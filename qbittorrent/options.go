package qbittorrent

import (
	"fmt"
	"time"
)

// LabelMode selects how a label is stored in qBittorrent
type LabelMode string

const (
	// LabelModeCategory stores the label as the torrent's category
	LabelModeCategory LabelMode = "category"

	// LabelModeTag stores the label as a tag
	LabelModeTag LabelMode = "tag"
)

// ParseLabelMode converts a config value into a LabelMode
func ParseLabelMode(s string) (LabelMode, error) {
	switch LabelMode(s) {
	case "", LabelModeCategory:
		return LabelModeCategory, nil
	case LabelModeTag:
		return LabelModeTag, nil
	default:
		return "", fmt.Errorf("invalid label mode: %s (must be 'category' or 'tag')", s)
	}
}

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout    time.Duration
	basicUser  string
	basicPass  string
	skipVerify bool
	rateLimit  float64
	burst      int
	mode       LabelMode
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout: 30 * time.Second,
		burst:   1,
		mode:    LabelModeCategory,
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithBasicAuth sets HTTP basic auth credentials for a proxied Web UI.
func WithBasicAuth(user, pass string) Option {
	return func(o *clientOptions) {
		o.basicUser = user
		o.basicPass = pass
	}
}

// WithInsecureSkipVerify disables certificate verification.
// Use with caution and only for development/testing.
func WithInsecureSkipVerify() Option {
	return func(o *clientOptions) {
		o.skipVerify = true
	}
}

// WithRateLimit caps API requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *clientOptions) {
		o.rateLimit = perSecond
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithLabelMode selects categories or tags as labels.
func WithLabelMode(mode LabelMode) Option {
	return func(o *clientOptions) {
		o.mode = mode
	}
}
