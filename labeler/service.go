package labeler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/autolabel/filter"
	"github.com/s0up4200/autolabel/rules"
	"github.com/s0up4200/autolabel/store"
	"github.com/s0up4200/autolabel/torrent"
)

// DefaultConcurrency limits parallel label calls during a bulk apply
const DefaultConcurrency = 4

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithConcurrency sets how many torrents are processed at once by ApplyRulesToAll
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// Service is the RPC surface used by the CLI and the HTTP server.
// Mutations are persisted before they are published to the labeler.
type Service struct {
	mu          sync.Mutex
	labeler     *Labeler
	store       *store.RuleStore
	concurrency int
	logger      zerolog.Logger
}

// NewService creates a Service backed by rs
func NewService(l *Labeler, rs *store.RuleStore, logger zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		labeler:     l,
		store:       rs,
		concurrency: DefaultConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary reports the outcome of a bulk apply
type Summary struct {
	Total     int      `json:"total"`
	Labeled   int      `json:"labeled_count"`
	Skipped   int      `json:"skipped_count"`
	Unmatched int      `json:"unmatched_count"`
	Failed    int      `json:"failed_count"`
	Results   []Result `json:"results"`
}

// update clones the current settings, applies fn, saves and publishes
func (s *Service) update(ctx context.Context, fn func(*store.Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.labeler.Settings().Clone()
	if err := fn(&next); err != nil {
		return err
	}

	if err := s.store.Save(ctx, next); err != nil {
		return err
	}

	s.labeler.SetSettings(next)
	return nil
}

// GetConfig returns the current configuration document
func (s *Service) GetConfig() store.Document {
	return store.NewDocument(s.labeler.Settings())
}

// SetConfig replaces the keys present in patch and saves the result
func (s *Service) SetConfig(ctx context.Context, patch store.Document) error {
	err := s.update(ctx, func(cur *store.Settings) error {
		*cur = store.NewDocument(*cur).Merge(patch).Settings()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Msg("Configuration saved")
	return nil
}

// GetRules returns a copy of the ordered rule list
func (s *Service) GetRules() []rules.Rule {
	return s.labeler.Settings().Rules.Clone().Rules
}

// AddRule validates and appends a rule, returning its index
func (s *Service) AddRule(ctx context.Context, label, pattern string, enabled bool) (int, error) {
	if label == "" {
		return -1, rules.ErrEmptyLabel
	}
	if err := s.ValidateRegex(pattern); err != nil {
		return -1, err
	}

	index := -1
	err := s.update(ctx, func(cur *store.Settings) error {
		index = cur.Rules.Add(rules.Rule{Label: label, Pattern: pattern, Enabled: enabled})
		return nil
	})
	if err != nil {
		return -1, err
	}

	s.logger.Info().
		Str("label", label).
		Str("pattern", pattern).
		Int("index", index).
		Msg("Added rule")
	return index, nil
}

// RemoveRule deletes the rule at index
func (s *Service) RemoveRule(ctx context.Context, index int) (rules.Rule, error) {
	var removed rules.Rule
	err := s.update(ctx, func(cur *store.Settings) error {
		var err error
		removed, err = cur.Rules.Remove(index)
		return err
	})
	if err != nil {
		return rules.Rule{}, err
	}

	s.logger.Info().Int("index", index).Msg("Removed rule")
	return removed, nil
}

// UpdateRule edits the rule at index. A changed pattern is validated first.
func (s *Service) UpdateRule(ctx context.Context, index int, u rules.RuleUpdate) (rules.Rule, error) {
	if u.Pattern != nil {
		if err := s.ValidateRegex(*u.Pattern); err != nil {
			return rules.Rule{}, err
		}
	}
	if u.Label != nil && *u.Label == "" {
		return rules.Rule{}, rules.ErrEmptyLabel
	}

	var updated rules.Rule
	err := s.update(ctx, func(cur *store.Settings) error {
		var err error
		updated, err = cur.Rules.Update(index, u)
		return err
	})
	if err != nil {
		return rules.Rule{}, err
	}

	s.logger.Info().Int("index", index).Msg("Updated rule")
	return updated, nil
}

// MoveRule changes the position of a rule
func (s *Service) MoveRule(ctx context.Context, from, to int) error {
	err := s.update(ctx, func(cur *store.Settings) error {
		return cur.Rules.Move(from, to)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int("from", from).Int("to", to).Msg("Moved rule")
	return nil
}

// ValidateRegex checks that pattern compiles
func (s *Service) ValidateRegex(pattern string) error {
	return s.labeler.Resolver().Matcher().Validate(pattern)
}

// TestPattern runs pattern against text using the configured case flag
func (s *Service) TestPattern(pattern, text string) (rules.Match, error) {
	ci := s.labeler.Settings().Rules.CaseInsensitive
	return s.labeler.Resolver().Matcher().Find(pattern, ci, text)
}

// ApplyRulesToTorrent applies the rules to a single torrent by id
func (s *Service) ApplyRulesToTorrent(ctx context.Context, id string) (Result, error) {
	return s.labeler.Apply(ctx, torrent.Info{ID: id})
}

// ApplyRulesToAll applies the rules to every torrent accepted by f.
// A nil filter selects all torrents. Individual failures are counted, not returned.
func (s *Service) ApplyRulesToAll(ctx context.Context, f *filter.Filter) (Summary, error) {
	if s.labeler.torrents == nil {
		return Summary{}, ErrNoTorrentSource
	}

	torrents, err := s.labeler.torrents.Torrents(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list torrents: %w", err)
	}

	selected := make([]torrent.Info, 0, len(torrents))
	for _, t := range torrents {
		if f == nil || f.Match(t) {
			selected = append(selected, t)
		}
	}

	// each worker owns one slot, so results keep the listing order
	results := make([]Result, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, t := range selected {
		g.Go(func() error {
			res, err := s.labeler.Apply(gctx, t)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("hash", t.ID).
					Str("torrent", t.Name).
					Msg("Failed to label torrent")
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(selected), Results: results}
	for _, res := range results {
		switch res.Outcome {
		case OutcomeLabeled:
			summary.Labeled++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeNoMatch:
			summary.Unmatched++
		default:
			summary.Failed++
		}
	}

	s.logger.Info().
		Int("labeled", summary.Labeled).
		Int("total", summary.Total).
		Msg("Applied labels to torrents")
	return summary, nil
}

// SetTorrentLabel assigns label to a torrent, creating the label if needed
func (s *Service) SetTorrentLabel(ctx context.Context, id, label string) error {
	if label == "" {
		return rules.ErrEmptyLabel
	}
	return s.labeler.Assign(ctx, id, s.labeler.normalize(label))
}

// GetAvailableLabels lists the labels known to the torrent client
func (s *Service) GetAvailableLabels(ctx context.Context) ([]string, error) {
	labels, err := s.labeler.sink.Labels(ctx)
	if err != nil {
		return nil, &LabelAPIError{Op: "list", Err: err}
	}
	return labels, nil
}
