package cmd

import (
	"context"
	"errors"
)

var errOffline = errors.New("not connected to qBittorrent")

// offlineSink stands in for the client in rule editing commands
type offlineSink struct{}

func (offlineSink) LabelExists(ctx context.Context, label string) (bool, error) {
	return false, errOffline
}

func (offlineSink) CreateLabel(ctx context.Context, label string) error {
	return errOffline
}

func (offlineSink) SetTorrentLabel(ctx context.Context, id, label string) error {
	return errOffline
}

func (offlineSink) Labels(ctx context.Context) ([]string, error) {
	return nil, errOffline
}
