package labeler

import (
	"context"

	"github.com/s0up4200/autolabel/torrent"
)

// Handler receives torrent-added events
type Handler func(ctx context.Context, ev torrent.Added)

// EventSource delivers torrent-added events to subscribed handlers.
// Handlers are invoked one at a time.
type EventSource interface {
	Subscribe(h Handler)
	Run(ctx context.Context) error
}

// LabelSink is the torrent client's label registry
type LabelSink interface {
	// LabelExists reports whether label is registered
	LabelExists(ctx context.Context, label string) (bool, error)

	// CreateLabel registers label; calling it for an existing label is not an error
	CreateLabel(ctx context.Context, label string) error

	// SetTorrentLabel assigns label to the torrent with the given id
	SetTorrentLabel(ctx context.Context, id, label string) error

	// Labels lists all registered labels
	Labels(ctx context.Context) ([]string, error)
}

// TorrentSource looks up torrents in the client
type TorrentSource interface {
	Torrent(ctx context.Context, id string) (*torrent.Info, error)
	Torrents(ctx context.Context) ([]torrent.Info, error)
}
