package qbittorrent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/s0up4200/autolabel/torrent"
)

// api is the subset of the go-qbittorrent client used here
type api interface {
	LoginCtx(ctx context.Context) error
	GetAppVersionCtx(ctx context.Context) (string, error)
	GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
	GetCategoriesCtx(ctx context.Context) (map[string]qbittorrent.Category, error)
	CreateCategoryCtx(ctx context.Context, category string, path string) error
	SetCategoryCtx(ctx context.Context, hashes []string, category string) error
	GetTagsCtx(ctx context.Context) ([]string, error)
	CreateTagsCtx(ctx context.Context, tags []string) error
	AddTagsCtx(ctx context.Context, hashes []string, tags string) error
	SyncMainDataCtx(ctx context.Context, rid int64) (*qbittorrent.MainData, error)
}

var _ api = (*qbittorrent.Client)(nil)

// Client wraps the qBittorrent API client and exposes it as a label registry
type Client struct {
	client  api
	mode    LabelMode
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates a new qBittorrent client and logs in
func NewClient(url, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:          url,
		Username:      username,
		Password:      password,
		BasicUser:     o.basicUser,
		BasicPass:     o.basicPass,
		TLSSkipVerify: o.skipVerify,
		Timeout:       int(o.timeout.Seconds()),
	})

	c := newClient(client, o, logger)

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	if err := c.client.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

func newClient(client api, o clientOptions, logger zerolog.Logger) *Client {
	c := &Client{
		client: client,
		mode:   o.mode,
		logger: logger,
	}
	if o.rateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.rateLimit), o.burst)
	}
	return c
}

// Mode returns how labels are represented in qBittorrent
func (c *Client) Mode() LabelMode {
	return c.mode
}

// wait blocks until the rate limiter allows another request
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// Version returns the qBittorrent application version
func (c *Client) Version(ctx context.Context) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	version, err := c.client.GetAppVersionCtx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// Torrents retrieves all torrents from qBittorrent
func (c *Client) Torrents(ctx context.Context) ([]torrent.Info, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	results := make([]torrent.Info, 0, len(torrents))
	for _, t := range torrents {
		results = append(results, c.toInfo(t))
	}
	return results, nil
}

// Torrent retrieves a single torrent by hash
func (c *Client) Torrent(ctx context.Context, hash string) (*torrent.Info, error) {
	if hash == "" {
		return nil, ErrInvalidHash
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{
		Hashes: []string{hash},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent: %w", err)
	}
	if len(torrents) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTorrentNotFound, hash)
	}

	info := c.toInfo(torrents[0])
	return &info, nil
}

// Labels lists the categories or tags known to qBittorrent
func (c *Client) Labels(ctx context.Context) ([]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	if c.mode == LabelModeTag {
		tags, err := c.client.GetTagsCtx(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tags: %w", err)
		}
		slices.Sort(tags)
		return tags, nil
	}

	categories, err := c.client.GetCategoriesCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// LabelExists reports whether the category or tag exists, ignoring case
func (c *Client) LabelExists(ctx context.Context, label string) (bool, error) {
	_, ok, err := c.lookupLabel(ctx, label)
	return ok, err
}

// lookupLabel returns the existing spelling of label
func (c *Client) lookupLabel(ctx context.Context, label string) (string, bool, error) {
	labels, err := c.Labels(ctx)
	if err != nil {
		return "", false, err
	}
	i := slices.IndexFunc(labels, func(l string) bool {
		return strings.EqualFold(l, label)
	})
	if i < 0 {
		return "", false, nil
	}
	return labels[i], true, nil
}

// CreateLabel creates a category or tag. An existing label is not an error.
func (c *Client) CreateLabel(ctx context.Context, label string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	if c.mode == LabelModeTag {
		if err := c.client.CreateTagsCtx(ctx, []string{label}); err != nil {
			return fmt.Errorf("failed to create tag: %w", err)
		}
		return nil
	}

	if err := c.client.CreateCategoryCtx(ctx, label, ""); err != nil {
		// qBittorrent answers 409 when the category already exists
		if exists, lookupErr := c.LabelExists(ctx, label); lookupErr == nil && exists {
			return nil
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	c.logger.Debug().Str("label", label).Str("mode", string(c.mode)).Msg("Created label")
	return nil
}

// SetTorrentLabel assigns label to the torrent with the given hash. When a
// label differing only in case exists, that spelling is used.
func (c *Client) SetTorrentLabel(ctx context.Context, hash, label string) error {
	if hash == "" {
		return ErrInvalidHash
	}

	existing, ok, err := c.lookupLabel(ctx, label)
	if err != nil {
		return err
	}
	if ok {
		label = existing
	}

	if err := c.wait(ctx); err != nil {
		return err
	}

	if c.mode == LabelModeTag {
		if err := c.client.AddTagsCtx(ctx, []string{hash}, label); err != nil {
			return fmt.Errorf("failed to add tag: %w", err)
		}
		return nil
	}

	if err := c.client.SetCategoryCtx(ctx, []string{hash}, label); err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}
	return nil
}

// toInfo converts a qBittorrent torrent into the shared torrent view
func (c *Client) toInfo(t qbittorrent.Torrent) torrent.Info {
	info := torrent.Info{
		ID:       t.Hash,
		Name:     t.Name,
		Tags:     splitTags(t.Tags),
		Size:     t.Size,
		Progress: t.Progress,
		State:    string(t.State),
		Tracker:  t.Tracker,
		SavePath: t.SavePath,
	}
	if t.AddedOn > 0 {
		info.AddedOn = time.Unix(t.AddedOn, 0)
	}

	if c.mode == LabelModeTag {
		if len(info.Tags) > 0 {
			info.Label = info.Tags[0]
		}
	} else {
		info.Label = t.Category
	}
	return info
}

// splitTags parses qBittorrent's comma separated tag list
func splitTags(tags string) []string {
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
