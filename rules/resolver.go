package rules

import (
	"github.com/rs/zerolog"
)

// Resolver picks the label for a torrent name from an ordered rule list
type Resolver struct {
	matcher *Matcher
	logger  zerolog.Logger
}

// NewResolver creates a Resolver. A nil matcher gets a default one.
func NewResolver(matcher *Matcher, logger zerolog.Logger) *Resolver {
	if matcher == nil {
		matcher = NewMatcher()
	}
	return &Resolver{
		matcher: matcher,
		logger:  logger,
	}
}

// Matcher returns the underlying pattern matcher
func (r *Resolver) Matcher() *Matcher {
	return r.matcher
}

// Resolve returns the label of the first enabled rule whose pattern matches
// name, or NoMatch. Rules with a bad pattern are skipped.
func (r *Resolver) Resolve(name string, rules []Rule, caseInsensitive bool) MatchResult {
	for i, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Label == "" || rule.Pattern == "" {
			continue
		}

		ok, err := r.matcher.Matches(rule.Pattern, caseInsensitive, name)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Int("rule", i).
				Str("pattern", rule.Pattern).
				Msg("Skipping rule with invalid pattern")
			continue
		}
		if ok {
			r.logger.Debug().
				Str("torrent", name).
				Str("pattern", rule.Pattern).
				Str("label", rule.Label).
				Msg("Torrent matched rule")
			return Matched(rule.Label, i)
		}
	}

	return NoMatch
}

// ResolveSet resolves name against a whole rule set
func (r *Resolver) ResolveSet(name string, set RuleSet) MatchResult {
	return r.Resolve(name, set.Rules, set.CaseInsensitive)
}
