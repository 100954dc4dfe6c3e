// Package qbittorrent adapts the qBittorrent Web API to the labeler.
//
// The Client wraps autobrr/go-qbittorrent and serves as both the label
// registry (categories or tags, depending on LabelMode) and the torrent
// lookup used by bulk apply. The Watcher polls sync/maindata and emits a
// torrent-added event for every hash it has not seen before.
//
// # Usage
//
//	client, err := qbittorrent.NewClient(url, username, password, logger,
//		qbittorrent.WithLabelMode(qbittorrent.LabelModeCategory),
//		qbittorrent.WithRateLimit(10, 5),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	watcher := qbittorrent.NewWatcher(client, 5*time.Second, logger)
//	l.Listen(watcher)
//	go watcher.Run(ctx)
package qbittorrent
