package qbittorrent

import (
	"context"
	"slices"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"

	"github.com/s0up4200/autolabel/labeler"
	"github.com/s0up4200/autolabel/torrent"
)

// DefaultPollInterval is how often the watcher asks qBittorrent for changes
const DefaultPollInterval = 5 * time.Second

// Watcher turns qBittorrent's sync/maindata feed into torrent-added events.
// Handlers run sequentially on the polling goroutine.
type Watcher struct {
	client   *Client
	interval time.Duration
	handlers []labeler.Handler
	known    map[string]struct{}
	rid      int64
	seeded   bool
	logger   zerolog.Logger
}

// NewWatcher creates a Watcher that polls every interval
func NewWatcher(client *Client, interval time.Duration, logger zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		client:   client,
		interval: interval,
		known:    make(map[string]struct{}),
		logger:   logger,
	}
}

// Subscribe registers a handler for torrent-added events
func (w *Watcher) Subscribe(h labeler.Handler) {
	w.handlers = append(w.handlers, h)
}

// Run polls until ctx is cancelled. Poll failures are logged and retried on
// the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("Watching qBittorrent for new torrents")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("Failed to poll qBittorrent")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll fetches one sync update and dispatches events for new torrents
func (w *Watcher) Poll(ctx context.Context) error {
	if err := w.client.wait(ctx); err != nil {
		return err
	}

	data, err := w.client.client.SyncMainDataCtx(ctx, w.rid)
	if err != nil {
		return err
	}

	events := w.diff(ctx, data)
	w.rid = data.Rid

	for _, ev := range events {
		w.dispatch(ctx, ev)
	}
	return nil
}

// diff updates the known set and returns events for torrents not seen before.
// The first full update only seeds the set; those torrents are reported as
// loaded from state.
func (w *Watcher) diff(ctx context.Context, data *qbittorrent.MainData) []torrent.Added {
	var events []torrent.Added

	hashes := make([]string, 0, len(data.Torrents))
	for hash := range data.Torrents {
		hashes = append(hashes, hash)
	}
	slices.Sort(hashes)

	if data.FullUpdate {
		fromState := !w.seeded
		current := make(map[string]struct{}, len(hashes))
		for _, hash := range hashes {
			current[hash] = struct{}{}
			if _, ok := w.known[hash]; ok && !fromState {
				continue
			}
			events = append(events, torrent.Added{
				Torrent:   w.info(ctx, hash, data.Torrents[hash]),
				FromState: fromState,
			})
		}
		w.known = current
		w.seeded = true
		return events
	}

	for _, hash := range hashes {
		if _, ok := w.known[hash]; ok {
			continue
		}
		w.known[hash] = struct{}{}
		events = append(events, torrent.Added{Torrent: w.info(ctx, hash, data.Torrents[hash])})
	}

	for _, hash := range data.TorrentsRemoved {
		delete(w.known, hash)
	}

	return events
}

// info converts a sync entry, fetching the full torrent when the partial
// update left out the name
func (w *Watcher) info(ctx context.Context, hash string, t qbittorrent.Torrent) torrent.Info {
	t.Hash = hash
	if t.Name != "" {
		return w.client.toInfo(t)
	}

	full, err := w.client.Torrent(ctx, hash)
	if err != nil {
		w.logger.Debug().Err(err).Str("hash", hash).Msg("Could not fetch torrent details")
		return torrent.Info{ID: hash}
	}
	return *full
}

func (w *Watcher) dispatch(ctx context.Context, ev torrent.Added) {
	for _, h := range w.handlers {
		h(ctx, ev)
	}
}
