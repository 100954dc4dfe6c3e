package labeler

import (
	"errors"
	"fmt"
)

// ErrNoTorrentSource is returned when an operation needs to look torrents up
// but the labeler was built without a TorrentSource.
var ErrNoTorrentSource = errors.New("no torrent source configured")

// LabelAPIError indicates the torrent client rejected a label operation
type LabelAPIError struct {
	Op        string
	TorrentID string
	Label     string
	Err       error
}

func (e *LabelAPIError) Error() string {
	if e.TorrentID != "" {
		return fmt.Sprintf("label %s failed for %q on torrent %s: %v", e.Op, e.Label, e.TorrentID, e.Err)
	}
	return fmt.Sprintf("label %s failed for %q: %v", e.Op, e.Label, e.Err)
}

func (e *LabelAPIError) Unwrap() error {
	return e.Err
}

// ErrUnknownName is returned when a torrent's name cannot be determined.
var ErrUnknownName = errors.New("torrent name unknown")
