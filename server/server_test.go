package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/autolabel/labeler"
	"github.com/s0up4200/autolabel/rules"
	"github.com/s0up4200/autolabel/store"
	"github.com/s0up4200/autolabel/torrent"
)

type memClient struct {
	mu       sync.Mutex
	labels   map[string]bool
	torrents map[string]torrent.Info
}

func newMemClient(torrents ...torrent.Info) *memClient {
	c := &memClient{
		labels:   make(map[string]bool),
		torrents: make(map[string]torrent.Info),
	}
	for _, t := range torrents {
		c.torrents[t.ID] = t
	}
	return c
}

func (c *memClient) LabelExists(ctx context.Context, label string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.labels[label], nil
}

func (c *memClient) CreateLabel(ctx context.Context, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels[label] = true
	return nil
}

func (c *memClient) SetTorrentLabel(ctx context.Context, id, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.torrents[id]
	t.ID = id
	t.Label = label
	c.torrents[id] = t
	return nil
}

func (c *memClient) Labels(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for l := range c.labels {
		out = append(out, l)
	}
	return out, nil
}

func (c *memClient) Torrent(ctx context.Context, id string) (*torrent.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.torrents[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (c *memClient) Torrents(ctx context.Context) ([]torrent.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]torrent.Info, 0, len(c.torrents))
	for _, t := range c.torrents {
		out = append(out, t)
	}
	return out, nil
}

func (c *memClient) label(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torrents[id].Label
}

type fixture struct {
	srv    *httptest.Server
	client *memClient
	store  *store.RuleStore
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	client := newMemClient(
		torrent.Info{ID: "aaa", Name: "Ubuntu 24.04 Desktop"},
		torrent.Info{ID: "bbb", Name: "Some.Show.S01E01.1080p"},
		torrent.Info{ID: "ccc", Name: "Holiday Photos", Label: "personal"},
	)

	rs := store.NewRuleStore(store.NewMemoryBackend(), store.JSONCodec{}, store.DefaultName, zerolog.Nop())
	l := labeler.New(client, rs.Load(context.Background()), zerolog.Nop(), labeler.WithTorrentSource(client))
	svc := labeler.NewService(l, rs, zerolog.Nop())

	hook := NewWebhook()
	l.Listen(hook)

	s := New(svc, zerolog.Nop(), append([]Option{WithWebhook(hook)}, opts...)...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, client: client, store: rs}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRuleEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/rules", map[string]any{"label": "linux", "pattern": "ubuntu|debian"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 0, decodeBody[map[string]int](t, resp)["index"])

	resp = f.do(t, http.MethodPost, "/api/v1/rules", map[string]any{"label": "tv", "pattern": `S\d+E\d+`, "enabled": false})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/rules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[[]rules.Rule](t, resp)
	assert.Equal(t, []rules.Rule{
		{Label: "linux", Pattern: "ubuntu|debian", Enabled: true},
		{Label: "tv", Pattern: `S\d+E\d+`, Enabled: false},
	}, got)

	resp = f.do(t, http.MethodPatch, "/api/v1/rules/1", map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeBody[rules.Rule](t, resp).Enabled)

	resp = f.do(t, http.MethodPost, "/api/v1/rules/1/move", map[string]any{"to": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decodeBody[[]rules.Rule](t, resp)
	assert.Equal(t, "tv", moved[0].Label)

	resp = f.do(t, http.MethodDelete, "/api/v1/rules/0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tv", decodeBody[rules.Rule](t, resp).Label)

	settings, err := f.store.LoadStrict(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settings.Rules.Len())
}

func TestRuleEndpointErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"invalid pattern", http.MethodPost, "/api/v1/rules", map[string]any{"label": "x", "pattern": "("}, http.StatusBadRequest},
		{"empty label", http.MethodPost, "/api/v1/rules", map[string]any{"label": "", "pattern": "x"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/rules", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"bad index", http.MethodDelete, "/api/v1/rules/first", nil, http.StatusBadRequest},
		{"index out of range", http.MethodDelete, "/api/v1/rules/7", nil, http.StatusNotFound},
		{"move out of range", http.MethodPost, "/api/v1/rules/0/move", map[string]any{"to": 3}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decodeBody[errorResponse](t, resp).Error)
		})
	}
}

func TestRegexEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/regex/validate", map[string]any{"pattern": "("})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decodeBody[validateResponse](t, resp)
	assert.False(t, v.Valid)
	assert.NotEmpty(t, v.Error)

	resp = f.do(t, http.MethodPost, "/api/v1/regex/test", map[string]any{"pattern": `\d+`, "text": "Season 12"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decodeBody[rules.Match](t, resp)
	assert.True(t, m.Matched)
	assert.Equal(t, "12", m.Text)
	assert.Equal(t, 7, m.Start)
	assert.Equal(t, 9, m.End)

	resp = f.do(t, http.MethodPost, "/api/v1/regex/test", map[string]any{"pattern": "[", "text": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfigEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPut, "/api/v1/config", map[string]any{
		"case_insensitive": true,
		"rules":            []map[string]any{{"label": "Linux", "pattern": "UBUNTU"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/config", nil)
	doc := decodeBody[store.Document](t, resp)
	require.NotNil(t, doc.CaseInsensitive)
	assert.True(t, *doc.CaseInsensitive)
	require.Len(t, doc.Rules, 1)
	assert.Equal(t, "Linux", doc.Rules[0].Label)
}

func TestApplyEndpoints(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/v1/rules", map[string]any{"label": "Linux", "pattern": "Ubuntu"})
	f.do(t, http.MethodPost, "/api/v1/rules", map[string]any{"label": "tv", "pattern": `S\d+E\d+`})

	resp := f.do(t, http.MethodPost, "/api/v1/torrents/aaa/apply", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[labeler.Result](t, resp)
	assert.Equal(t, labeler.OutcomeLabeled, res.Outcome)
	assert.Equal(t, "linux", f.client.label("aaa"))

	resp = f.do(t, http.MethodPost, "/api/v1/torrents/zzz/apply", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/torrents/apply", map[string]any{"filter": `icontains(Name, "show")`})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeBody[labeler.Summary](t, resp)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Labeled)
	assert.Equal(t, "tv", f.client.label("bbb"))

	resp = f.do(t, http.MethodPost, "/api/v1/torrents/apply", map[string]any{"filter": "Name +"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLabelEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPut, "/api/v1/torrents/ccc/label", map[string]any{"label": "Archive"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "archive", f.client.label("ccc"))

	resp = f.do(t, http.MethodPut, "/api/v1/torrents/ccc/label", map[string]any{"label": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/labels", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"archive"}, decodeBody[map[string][]string](t, resp)["labels"])
}

func TestTorrentAddedWebhook(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/rules", map[string]any{"label": "iso", "pattern": `\.iso$`})

	resp := f.do(t, http.MethodPost, "/api/v1/events/torrent-added", map[string]any{"id": "new", "name": "debian-12.iso"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "iso", f.client.label("new"))

	// an existing category survives a webhook that only carries the name
	f.do(t, http.MethodPost, "/api/v1/rules", map[string]any{"label": "photos", "pattern": "Photos"})
	resp = f.do(t, http.MethodPost, "/api/v1/events/torrent-added", map[string]any{"id": "ccc", "name": "Holiday Photos"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "personal", f.client.label("ccc"))

	resp = f.do(t, http.MethodPost, "/api/v1/events/torrent-added", map[string]any{"name": "no id"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIKey(t *testing.T) {
	f := newFixture(t, WithAPIKey("secret"))

	resp := f.do(t, http.MethodGet, "/api/v1/rules", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/v1/rules", nil)
	require.NoError(t, err)
	req.Header.Set("X-Api-Key", "secret")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)

	// health stays open for probes
	resp = f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
