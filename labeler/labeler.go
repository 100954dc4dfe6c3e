package labeler

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/s0up4200/autolabel/rules"
	"github.com/s0up4200/autolabel/store"
	"github.com/s0up4200/autolabel/torrent"
)

// Outcome describes what happened to a torrent when rules were applied
type Outcome string

const (
	OutcomeLabeled Outcome = "labeled"
	OutcomeSkipped Outcome = "skipped"
	OutcomeNoMatch Outcome = "no_match"
	OutcomeFailed  Outcome = "failed"
)

// Result is the outcome of applying rules to one torrent
type Result struct {
	TorrentID string  `json:"torrent_id"`
	Name      string  `json:"name"`
	Label     string  `json:"label,omitempty"`
	Rule      int     `json:"rule"`
	Outcome   Outcome `json:"outcome"`
}

// Option configures a Labeler
type Option func(*Labeler)

// WithTorrentSource lets the labeler look up torrent names and existing labels
func WithTorrentSource(src TorrentSource) Option {
	return func(l *Labeler) {
		l.torrents = src
	}
}

// WithLowercase controls whether matched labels are lower-cased before use
func WithLowercase(lowercase bool) Option {
	return func(l *Labeler) {
		l.lowercase = lowercase
	}
}

// WithResolver sets a custom resolver
func WithResolver(r *rules.Resolver) Option {
	return func(l *Labeler) {
		l.resolver = r
	}
}

// Labeler applies the configured rules to torrents.
// Settings are swapped atomically, so a resolve in flight always sees a
// complete snapshot.
type Labeler struct {
	sink      LabelSink
	torrents  TorrentSource
	resolver  *rules.Resolver
	lowercase bool
	settings  atomic.Pointer[store.Settings]
	logger    zerolog.Logger
}

// New creates a Labeler that assigns labels through sink
func New(sink LabelSink, settings store.Settings, logger zerolog.Logger, opts ...Option) *Labeler {
	l := &Labeler{
		sink:      sink,
		lowercase: true,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.resolver == nil {
		l.resolver = rules.NewResolver(rules.NewMatcher(), logger)
	}
	l.SetSettings(settings)
	return l
}

// Settings returns the current settings snapshot. Callers must Clone it
// before making changes.
func (l *Labeler) Settings() store.Settings {
	return *l.settings.Load()
}

// SetSettings publishes a new settings snapshot
func (l *Labeler) SetSettings(s store.Settings) {
	snapshot := s.Clone()
	l.settings.Store(&snapshot)
}

// Resolver returns the resolver used to match names
func (l *Labeler) Resolver() *rules.Resolver {
	return l.resolver
}

// Listen subscribes the labeler to src
func (l *Labeler) Listen(src EventSource) {
	src.Subscribe(l.OnTorrentAdded)
}

// OnTorrentAdded handles a torrent-added event. Failures are logged and never
// returned to the caller.
func (l *Labeler) OnTorrentAdded(ctx context.Context, ev torrent.Added) {
	if ev.FromState {
		return
	}
	settings := l.settings.Load()
	if !settings.ApplyOnAdd {
		return
	}

	t := ev.Torrent
	if settings.SkipIfLabeled && !t.HasLabel() {
		// events from a webhook carry no label, so read the current one
		t = l.current(ctx, t)
	}

	res, err := l.Apply(ctx, t)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("hash", ev.Torrent.ID).
			Str("torrent", res.Name).
			Msg("Failed to label torrent")
		return
	}

	switch res.Outcome {
	case OutcomeLabeled:
		l.logger.Info().
			Str("hash", res.TorrentID).
			Str("torrent", res.Name).
			Str("label", res.Label).
			Int("rule", res.Rule).
			Msg("Labeled torrent")
	case OutcomeSkipped:
		l.logger.Debug().
			Str("torrent", res.Name).
			Msg("Torrent already labeled, skipping")
	default:
		l.logger.Debug().
			Str("torrent", res.Name).
			Msg("No rule matched torrent")
	}
}

// Apply runs the rules against a single torrent and assigns the matched label
func (l *Labeler) Apply(ctx context.Context, t torrent.Info) (Result, error) {
	settings := l.settings.Load()

	if t.Name == "" && l.torrents != nil {
		found, err := l.torrents.Torrent(ctx, t.ID)
		if err != nil {
			l.logger.Warn().Err(err).Str("hash", t.ID).Msg("Could not look up torrent")
		} else if found != nil {
			t = *found
		}
	}

	res := Result{TorrentID: t.ID, Name: t.Name, Rule: -1}
	if t.Name == "" {
		res.Outcome = OutcomeFailed
		return res, ErrUnknownName
	}

	if settings.SkipIfLabeled && t.HasLabel() {
		res.Label = t.Label
		res.Outcome = OutcomeSkipped
		return res, nil
	}

	match := l.resolver.ResolveSet(t.Name, settings.Rules)
	if !match.Matched {
		res.Outcome = OutcomeNoMatch
		return res, nil
	}

	res.Rule = match.Index
	res.Label = l.normalize(match.Label)

	if err := l.Assign(ctx, t.ID, res.Label); err != nil {
		res.Outcome = OutcomeFailed
		return res, err
	}

	res.Outcome = OutcomeLabeled
	return res, nil
}

// current refreshes t from the torrent source, keeping t when the lookup fails
func (l *Labeler) current(ctx context.Context, t torrent.Info) torrent.Info {
	if l.torrents == nil || t.ID == "" {
		return t
	}

	found, err := l.torrents.Torrent(ctx, t.ID)
	if err != nil || found == nil {
		l.logger.Debug().Err(err).Str("hash", t.ID).Msg("Could not refresh torrent")
		return t
	}
	if found.Name == "" {
		found.Name = t.Name
	}
	return *found
}

// Assign makes sure label exists and sets it on the torrent
func (l *Labeler) Assign(ctx context.Context, id, label string) error {
	exists, err := l.sink.LabelExists(ctx, label)
	if err != nil {
		return &LabelAPIError{Op: "lookup", Label: label, Err: err}
	}

	if !exists {
		l.logger.Info().Str("label", label).Msg("Creating new label")
		if err := l.sink.CreateLabel(ctx, label); err != nil {
			return &LabelAPIError{Op: "create", Label: label, Err: err}
		}
	}

	if err := l.sink.SetTorrentLabel(ctx, id, label); err != nil {
		return &LabelAPIError{Op: "assign", TorrentID: id, Label: label, Err: err}
	}
	return nil
}

func (l *Labeler) normalize(label string) string {
	if l.lowercase {
		return strings.ToLower(label)
	}
	return label
}
