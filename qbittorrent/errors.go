package qbittorrent

import "errors"

// Common errors returned by the qBittorrent client.
var (
	// ErrTorrentNotFound is returned when no torrent has the requested hash.
	ErrTorrentNotFound = errors.New("torrent not found")

	// ErrInvalidHash is returned when an empty hash is passed to a label call.
	ErrInvalidHash = errors.New("invalid torrent hash")

	// ErrConnectionFailed is returned when the initial login fails.
	ErrConnectionFailed = errors.New("connection to qBittorrent failed")
)
