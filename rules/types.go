package rules

import "slices"

// Rule maps a name pattern to a label
type Rule struct {
	Label   string `json:"label" yaml:"label"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// RuleUpdate carries a partial edit of a rule. Nil fields are left untouched.
type RuleUpdate struct {
	Label   *string `json:"label,omitempty"`
	Pattern *string `json:"pattern,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// RuleSet is the ordered list of rules plus the global case flag.
// The first enabled rule whose pattern matches wins.
type RuleSet struct {
	Rules           []Rule
	CaseInsensitive bool
}

// Len returns the number of rules
func (s *RuleSet) Len() int {
	return len(s.Rules)
}

// Get returns the rule at index i
func (s *RuleSet) Get(i int) (Rule, error) {
	if i < 0 || i >= len(s.Rules) {
		return Rule{}, ErrIndexOutOfRange
	}
	return s.Rules[i], nil
}

// Add appends a rule and returns its index
func (s *RuleSet) Add(rule Rule) int {
	s.Rules = append(s.Rules, rule)
	return len(s.Rules) - 1
}

// Remove deletes the rule at index i, shifting later rules down by one
func (s *RuleSet) Remove(i int) (Rule, error) {
	if i < 0 || i >= len(s.Rules) {
		return Rule{}, ErrIndexOutOfRange
	}
	removed := s.Rules[i]
	s.Rules = slices.Delete(s.Rules, i, i+1)
	return removed, nil
}

// Update applies a partial edit to the rule at index i and returns the result
func (s *RuleSet) Update(i int, u RuleUpdate) (Rule, error) {
	if i < 0 || i >= len(s.Rules) {
		return Rule{}, ErrIndexOutOfRange
	}

	rule := &s.Rules[i]
	if u.Label != nil {
		rule.Label = *u.Label
	}
	if u.Pattern != nil {
		rule.Pattern = *u.Pattern
	}
	if u.Enabled != nil {
		rule.Enabled = *u.Enabled
	}
	return *rule, nil
}

// Move relocates the rule at index from so that it ends up at index to
func (s *RuleSet) Move(from, to int) error {
	if from < 0 || from >= len(s.Rules) || to < 0 || to >= len(s.Rules) {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}

	rule := s.Rules[from]
	s.Rules = slices.Delete(s.Rules, from, from+1)
	s.Rules = slices.Insert(s.Rules, to, rule)
	return nil
}

// Clone returns a deep copy of the rule set
func (s RuleSet) Clone() RuleSet {
	return RuleSet{
		Rules:           slices.Clone(s.Rules),
		CaseInsensitive: s.CaseInsensitive,
	}
}

// MatchResult is the outcome of resolving a name against a rule set
type MatchResult struct {
	Label   string
	Matched bool
	// Index of the rule that matched, -1 when nothing matched
	Index int
}

// NoMatch is returned when no rule matches
var NoMatch = MatchResult{Index: -1}

// Matched builds a MatchResult for the rule at index
func Matched(label string, index int) MatchResult {
	return MatchResult{Label: label, Matched: true, Index: index}
}

// Match describes where a pattern hit inside a candidate string.
// Start and End are rune offsets.
type Match struct {
	Matched bool   `json:"matches"`
	Text    string `json:"matched_text,omitempty"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}
