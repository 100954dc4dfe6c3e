package qbittorrent

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/autobrr/go-qbittorrent"
)

// fakeAPI is an in-memory stand-in for the go-qbittorrent client
type fakeAPI struct {
	mu         sync.Mutex
	torrents   map[string]qbittorrent.Torrent
	categories map[string]qbittorrent.Category
	tags       []string
	syncs      []*qbittorrent.MainData
	rids       []int64

	createCategoryErr error
	getTorrentsErr    error
	calls             []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		torrents:   make(map[string]qbittorrent.Torrent),
		categories: make(map[string]qbittorrent.Category),
	}
}

func (f *fakeAPI) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) LoginCtx(ctx context.Context) error {
	return nil
}

func (f *fakeAPI) GetAppVersionCtx(ctx context.Context) (string, error) {
	return "v4.6.2", nil
}

func (f *fakeAPI) GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("torrents")

	if f.getTorrentsErr != nil {
		return nil, f.getTorrentsErr
	}

	var out []qbittorrent.Torrent
	if len(o.Hashes) > 0 {
		for _, h := range o.Hashes {
			if t, ok := f.torrents[h]; ok {
				out = append(out, t)
			}
		}
		return out, nil
	}
	for _, t := range f.torrents {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeAPI) GetCategoriesCtx(ctx context.Context) (map[string]qbittorrent.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]qbittorrent.Category, len(f.categories))
	for k, v := range f.categories {
		out[k] = v
	}
	return out, nil
}

func (f *fakeAPI) CreateCategoryCtx(ctx context.Context, category string, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_category:" + category)

	if f.createCategoryErr != nil {
		return f.createCategoryErr
	}
	if _, ok := f.categories[category]; ok {
		return errors.New("409 conflict")
	}
	f.categories[category] = qbittorrent.Category{Name: category, SavePath: path}
	return nil
}

func (f *fakeAPI) SetCategoryCtx(ctx context.Context, hashes []string, category string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set_category:" + category)

	for _, h := range hashes {
		t := f.torrents[h]
		t.Category = category
		f.torrents[h] = t
	}
	return nil
}

func (f *fakeAPI) GetTagsCtx(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tags...), nil
}

func (f *fakeAPI) CreateTagsCtx(ctx context.Context, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_tags:" + strings.Join(tags, ","))
	f.tags = append(f.tags, tags...)
	return nil
}

func (f *fakeAPI) AddTagsCtx(ctx context.Context, hashes []string, tags string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("add_tags:" + tags)

	for _, h := range hashes {
		t := f.torrents[h]
		if t.Tags == "" {
			t.Tags = tags
		} else {
			t.Tags += ", " + tags
		}
		f.torrents[h] = t
	}
	return nil
}

func (f *fakeAPI) SyncMainDataCtx(ctx context.Context, rid int64) (*qbittorrent.MainData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rids = append(f.rids, rid)

	if len(f.syncs) == 0 {
		return &qbittorrent.MainData{Rid: rid}, nil
	}
	next := f.syncs[0]
	f.syncs = f.syncs[1:]
	return next, nil
}
