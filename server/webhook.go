package server

import (
	"context"
	"sync"

	"github.com/s0up4200/autolabel/labeler"
	"github.com/s0up4200/autolabel/torrent"
)

// Webhook is an EventSource fed by POST /api/v1/events/torrent-added.
// Events are delivered on the request goroutine, one at a time.
type Webhook struct {
	mu       sync.Mutex
	handlers []labeler.Handler
}

// NewWebhook creates an empty Webhook
func NewWebhook() *Webhook {
	return &Webhook{}
}

// Subscribe registers a handler for torrent-added events
func (w *Webhook) Subscribe(h labeler.Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Run blocks until ctx is cancelled. Delivery happens in Deliver.
func (w *Webhook) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Deliver hands ev to every subscriber and returns once they are done
func (w *Webhook) Deliver(ctx context.Context, ev torrent.Added) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.handlers {
		h(ctx, ev)
	}
}
