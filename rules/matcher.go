package rules

import (
	"errors"
	"time"

	"github.com/dlclark/regexp2"
)

const (
	// DefaultMatchTimeout bounds a single match against a torrent name
	DefaultMatchTimeout = 100 * time.Millisecond

	// DefaultCacheSize is the number of compiled patterns kept around
	DefaultCacheSize = 256
)

// MatcherOption configures a Matcher
type MatcherOption func(*Matcher)

// WithMatchTimeout sets the per-match timeout
func WithMatchTimeout(timeout time.Duration) MatcherOption {
	return func(m *Matcher) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithCacheSize sets how many compiled patterns are cached
func WithCacheSize(size int) MatcherOption {
	return func(m *Matcher) {
		m.cache = newPatternCache(size)
	}
}

// Matcher compiles patterns and evaluates them against names.
// It is safe for concurrent use.
type Matcher struct {
	timeout time.Duration
	cache   *patternCache
}

// NewMatcher creates a Matcher
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		timeout: DefaultMatchTimeout,
		cache:   newPatternCache(DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// compile returns a cached compiled pattern. RE2 syntax is tried first, then
// the Perl-compatible dialect for lookarounds and backreferences.
func (m *Matcher) compile(pattern string, caseInsensitive bool) (*regexp2.Regexp, error) {
	key := "s:" + pattern
	if caseInsensitive {
		key = "i:" + pattern
	}
	if re, ok := m.cache.Get(key); ok {
		return re, nil
	}

	var flags regexp2.RegexOptions
	if caseInsensitive {
		flags |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(pattern, flags|regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, flags)
		if err != nil {
			return nil, &InvalidPatternError{Pattern: pattern, Err: err}
		}
	}
	re.MatchTimeout = m.timeout

	m.cache.Put(key, re)
	return re, nil
}

// Validate reports whether pattern compiles
func (m *Matcher) Validate(pattern string) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	_, err := m.compile(pattern, false)
	return err
}

// Matches reports whether pattern matches anywhere in candidate.
// A match that exceeds the timeout counts as no match.
func (m *Matcher) Matches(pattern string, caseInsensitive bool, candidate string) (bool, error) {
	re, err := m.compile(pattern, caseInsensitive)
	if err != nil {
		return false, err
	}

	ok, err := re.MatchString(candidate)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

// Find returns the leftmost match of pattern in candidate
func (m *Matcher) Find(pattern string, caseInsensitive bool, candidate string) (Match, error) {
	re, err := m.compile(pattern, caseInsensitive)
	if err != nil {
		return Match{}, err
	}

	found, err := re.FindStringMatch(candidate)
	if err != nil || found == nil {
		return Match{}, nil
	}

	return Match{
		Matched: true,
		Text:    found.String(),
		Start:   found.Index,
		End:     found.Index + found.Length,
	}, nil
}

// IsInvalidPattern reports whether err is an InvalidPatternError
func IsInvalidPattern(err error) bool {
	var target *InvalidPatternError
	return errors.As(err, &target)
}
