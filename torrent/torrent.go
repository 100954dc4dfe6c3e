// Package torrent holds the host-neutral view of a torrent shared by the
// labeler, the filters and the qBittorrent adapter.
package torrent

import "time"

// Info contains the torrent fields the labeler and filters care about
type Info struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Tags     []string  `json:"tags,omitempty"`
	Size     int64     `json:"size"`
	Progress float64   `json:"progress"`
	State    string    `json:"state"`
	Tracker  string    `json:"tracker,omitempty"`
	SavePath string    `json:"save_path,omitempty"`
	AddedOn  time.Time `json:"added_on"`
}

// HasLabel reports whether the torrent already carries a label
func (t Info) HasLabel() bool {
	return t.Label != ""
}

// Added is emitted when a torrent shows up in the client
type Added struct {
	Torrent Info
	// FromState is set for torrents that already existed when watching began
	FromState bool
}
