package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultName is the document key used for the rule configuration
const DefaultName = "autolabel"

// RuleStore loads and saves Settings through a Backend
type RuleStore struct {
	backend Backend
	codec   Codec
	name    string
	logger  zerolog.Logger
}

// NewRuleStore creates a RuleStore for the document called name
func NewRuleStore(backend Backend, codec Codec, name string, logger zerolog.Logger) *RuleStore {
	if codec == nil {
		codec = JSONCodec{}
	}
	if name == "" {
		name = DefaultName
	}
	return &RuleStore{
		backend: backend,
		codec:   codec,
		name:    name,
		logger:  logger,
	}
}

// Load returns the stored settings. A missing or unreadable document yields
// Defaults(); read and decode failures are logged.
func (s *RuleStore) Load(ctx context.Context) Settings {
	settings, err := s.LoadStrict(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Using default configuration")
		return Defaults()
	}
	return settings
}

// LoadStrict is like Load but reports read and decode failures as *LoadError.
// A missing document is not an error.
func (s *RuleStore) LoadStrict(ctx context.Context) (Settings, error) {
	data, err := s.backend.Get(ctx, s.name)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug().Str("name", s.name).Msg("No stored configuration, using defaults")
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), &LoadError{Name: s.name, Err: err}
	}

	var doc Document
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		return Defaults(), &LoadError{Name: s.name, Err: err}
	}

	settings := doc.Settings()
	s.logger.Debug().
		Str("name", s.name).
		Int("rules", settings.Rules.Len()).
		Msg("Loaded configuration")
	return settings, nil
}

// Save writes the full settings document
func (s *RuleStore) Save(ctx context.Context, settings Settings) error {
	data, err := s.codec.Marshal(NewDocument(settings))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := s.backend.Set(ctx, s.name, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	s.logger.Debug().
		Str("name", s.name).
		Int("rules", settings.Rules.Len()).
		Msg("Configuration saved")
	return nil
}

// Close closes the underlying backend
func (s *RuleStore) Close() error {
	return s.backend.Close()
}
