package labeler

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/autolabel/rules"
	"github.com/s0up4200/autolabel/store"
	"github.com/s0up4200/autolabel/torrent"
)

func testSettings(r ...rules.Rule) store.Settings {
	s := store.Defaults()
	s.Rules.Rules = r
	return s
}

func added(id, name string) torrent.Added {
	return torrent.Added{Torrent: torrent.Info{ID: id, Name: name}}
}

func TestOnTorrentAddedAssignsFirstMatch(t *testing.T) {
	sink := newFakeSink()
	src := &fakeSource{}
	l := New(sink, testSettings(
		rules.Rule{Label: "ISOs", Pattern: ".*linux.iso.*", Enabled: true},
		rules.Rule{Label: "Other", Pattern: ".*", Enabled: true},
	), zerolog.Nop())
	l.Listen(src)

	src.emit(context.Background(), added("h1", "Ubuntu-24.04-LINUX.ISO"))

	label, ok := sink.assignment("h1")
	require.True(t, ok)
	assert.Equal(t, "isos", label)
	assert.Equal(t, []string{"isos"}, sink.created)
}

func TestOnTorrentAddedNoMatchHasNoSideEffects(t *testing.T) {
	sink := newFakeSink()
	l := New(sink, testSettings(
		rules.Rule{Label: "ISOs", Pattern: ".*linux.iso.*", Enabled: true},
	), zerolog.Nop())

	l.OnTorrentAdded(context.Background(), added("h1", "random-movie.mkv"))

	_, ok := sink.assignment("h1")
	assert.False(t, ok)
	assert.Empty(t, sink.created)
}

func TestOnTorrentAddedExistingLabelIsNotCreated(t *testing.T) {
	sink := newFakeSink("tv")
	l := New(sink, testSettings(rules.Rule{Label: "TV", Pattern: `s\d+e\d+`, Enabled: true}), zerolog.Nop())

	l.OnTorrentAdded(context.Background(), added("h1", "Show.S01E01.mkv"))

	label, _ := sink.assignment("h1")
	assert.Equal(t, "tv", label)
	assert.Empty(t, sink.created)
}

func TestOnTorrentAddedKeepsCaseWhenConfigured(t *testing.T) {
	sink := newFakeSink()
	l := New(sink, testSettings(rules.Rule{Label: "Movies", Pattern: "mkv", Enabled: true}),
		zerolog.Nop(), WithLowercase(false))

	l.OnTorrentAdded(context.Background(), added("h1", "film.mkv"))

	label, _ := sink.assignment("h1")
	assert.Equal(t, "Movies", label)
}

func TestOnTorrentAddedSwallowsSinkErrors(t *testing.T) {
	for _, op := range []string{"create", "assign"} {
		t.Run(op, func(t *testing.T) {
			sink := newFakeSink()
			sink.failOn = op
			l := New(sink, testSettings(rules.Rule{Label: "a", Pattern: ".", Enabled: true}), zerolog.Nop())

			assert.NotPanics(t, func() {
				l.OnTorrentAdded(context.Background(), added("h1", "name"))
			})
			_, ok := sink.assignment("h1")
			assert.False(t, ok)
		})
	}
}

func TestOnTorrentAddedSkips(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*store.Settings)
		event    torrent.Added
		assigned bool
	}{
		{
			name:     "torrent loaded from state",
			event:    torrent.Added{Torrent: torrent.Info{ID: "h1", Name: "x"}, FromState: true},
			assigned: false,
		},
		{
			name:     "apply on add disabled",
			mutate:   func(s *store.Settings) { s.ApplyOnAdd = false },
			event:    added("h1", "x"),
			assigned: false,
		},
		{
			name:     "already labeled",
			event:    torrent.Added{Torrent: torrent.Info{ID: "h1", Name: "x", Label: "existing"}},
			assigned: false,
		},
		{
			name:     "already labeled but skipping disabled",
			mutate:   func(s *store.Settings) { s.SkipIfLabeled = false },
			event:    torrent.Added{Torrent: torrent.Info{ID: "h1", Name: "x", Label: "existing"}},
			assigned: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings(rules.Rule{Label: "all", Pattern: ".", Enabled: true})
			if tt.mutate != nil {
				tt.mutate(&settings)
			}
			sink := newFakeSink()
			l := New(sink, settings, zerolog.Nop())

			l.OnTorrentAdded(context.Background(), tt.event)

			_, ok := sink.assignment("h1")
			assert.Equal(t, tt.assigned, ok)
		})
	}
}

func TestOnTorrentAddedReadsCurrentLabel(t *testing.T) {
	src := &fakeTorrents{torrents: []torrent.Info{
		{ID: "h1", Name: "Ubuntu.iso", Label: "movies"},
		{ID: "h2", Name: "Debian.iso"},
	}}
	settings := testSettings(rules.Rule{Label: "isos", Pattern: `\.iso$`, Enabled: true})

	t.Run("labeled torrent is left alone", func(t *testing.T) {
		sink := newFakeSink()
		l := New(sink, settings, zerolog.Nop(), WithTorrentSource(src))

		l.OnTorrentAdded(context.Background(), added("h1", "Ubuntu.iso"))

		_, ok := sink.assignment("h1")
		assert.False(t, ok)
		assert.Empty(t, sink.created)
	})

	t.Run("unlabeled torrent is labeled", func(t *testing.T) {
		sink := newFakeSink()
		l := New(sink, settings, zerolog.Nop(), WithTorrentSource(src))

		l.OnTorrentAdded(context.Background(), added("h2", "Debian.iso"))

		label, ok := sink.assignment("h2")
		require.True(t, ok)
		assert.Equal(t, "isos", label)
	})

	t.Run("lookup failure falls back to the event", func(t *testing.T) {
		sink := newFakeSink()
		l := New(sink, settings, zerolog.Nop(), WithTorrentSource(&fakeTorrents{err: errBoom}))

		l.OnTorrentAdded(context.Background(), added("h3", "Arch.iso"))

		label, ok := sink.assignment("h3")
		require.True(t, ok)
		assert.Equal(t, "isos", label)
	})

	t.Run("skipping disabled overwrites", func(t *testing.T) {
		sink := newFakeSink()
		overwrite := settings.Clone()
		overwrite.SkipIfLabeled = false
		l := New(sink, overwrite, zerolog.Nop(), WithTorrentSource(src))

		l.OnTorrentAdded(context.Background(), added("h1", "Ubuntu.iso"))

		label, ok := sink.assignment("h1")
		require.True(t, ok)
		assert.Equal(t, "isos", label)
	})
}

func TestApplyLooksUpMissingName(t *testing.T) {
	sink := newFakeSink()
	src := &fakeTorrents{torrents: []torrent.Info{{ID: "h1", Name: "Debian.iso"}}}
	l := New(sink, testSettings(rules.Rule{Label: "iso", Pattern: `\.iso$`, Enabled: true}),
		zerolog.Nop(), WithTorrentSource(src))

	res, err := l.Apply(context.Background(), torrent.Info{ID: "h1"})
	require.NoError(t, err)
	assert.Equal(t, Result{TorrentID: "h1", Name: "Debian.iso", Label: "iso", Rule: 0, Outcome: OutcomeLabeled}, res)

	res, err = l.Apply(context.Background(), torrent.Info{ID: "missing"})
	assert.ErrorIs(t, err, ErrUnknownName)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestApplyReportsLabelAPIError(t *testing.T) {
	sink := newFakeSink()
	sink.lookupErr = errBoom
	l := New(sink, testSettings(rules.Rule{Label: "a", Pattern: ".", Enabled: true}), zerolog.Nop())

	res, err := l.Apply(context.Background(), torrent.Info{ID: "h1", Name: "x"})
	var apiErr *LabelAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "lookup", apiErr.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestSettingsSwapIsAtomic(t *testing.T) {
	sink := newFakeSink()
	a := testSettings(rules.Rule{Label: "a", Pattern: ".", Enabled: true})
	b := testSettings(rules.Rule{Label: "b", Pattern: ".", Enabled: true}, rules.Rule{Label: "c", Pattern: ".", Enabled: true})
	l := New(sink, a, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				l.SetSettings(b)
			} else {
				l.SetSettings(a)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s := l.Settings()
			n := s.Rules.Len()
			assert.True(t, n == 1 || n == 2)
			if n == 1 {
				assert.Equal(t, "a", s.Rules.Rules[0].Label)
			} else {
				assert.Equal(t, "b", s.Rules.Rules[0].Label)
			}
		}
	}()
	wg.Wait()
}
