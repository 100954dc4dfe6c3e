package labeler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/s0up4200/autolabel/torrent"
)

var errBoom = errors.New("boom")

type fakeSink struct {
	mu        sync.Mutex
	labels    map[string]bool
	assigned  map[string]string
	created   []string
	failOn    string
	lookupErr error
}

func newFakeSink(labels ...string) *fakeSink {
	s := &fakeSink{
		labels:   make(map[string]bool),
		assigned: make(map[string]string),
	}
	for _, l := range labels {
		s.labels[l] = true
	}
	return s
}

func (s *fakeSink) LabelExists(ctx context.Context, label string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	return s.labels[label], nil
}

func (s *fakeSink) CreateLabel(ctx context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "create" {
		return errBoom
	}
	s.labels[label] = true
	s.created = append(s.created, label)
	return nil
}

func (s *fakeSink) SetTorrentLabel(ctx context.Context, id, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "assign" {
		return errBoom
	}
	s.assigned[id] = label
	return nil
}

func (s *fakeSink) Labels(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "list" {
		return nil, errBoom
	}
	out := make([]string, 0, len(s.labels))
	for l := range s.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeSink) assignment(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.assigned[id]
	return l, ok
}

type fakeTorrents struct {
	torrents []torrent.Info
	err      error
}

func (f *fakeTorrents) Torrent(ctx context.Context, id string) (*torrent.Info, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.torrents {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, errors.New("torrent not found")
}

func (f *fakeTorrents) Torrents(ctx context.Context) ([]torrent.Info, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.torrents, nil
}

type fakeSource struct {
	handlers []Handler
}

func (f *fakeSource) Subscribe(h Handler) {
	f.handlers = append(f.handlers, h)
}

func (f *fakeSource) Run(ctx context.Context) error {
	return nil
}

func (f *fakeSource) emit(ctx context.Context, ev torrent.Added) {
	for _, h := range f.handlers {
		h(ctx, ev)
	}
}
