package store

import (
	"github.com/s0up4200/autolabel/rules"
)

// Document is the persisted shape of the plugin configuration. Pointer fields
// distinguish "missing" from "false" so defaults can be applied on load.
type Document struct {
	Rules           []RuleDocument `json:"rules" yaml:"rules"`
	CaseInsensitive *bool          `json:"case_insensitive,omitempty" yaml:"case_insensitive,omitempty"`
	ApplyOnAdd      *bool          `json:"apply_on_add,omitempty" yaml:"apply_on_add,omitempty"`
	SkipIfLabeled   *bool          `json:"skip_if_labeled,omitempty" yaml:"skip_if_labeled,omitempty"`
}

// RuleDocument is a single stored rule
type RuleDocument struct {
	Label   string `json:"label" yaml:"label"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// Settings is the validated, fully defaulted configuration
type Settings struct {
	Rules         rules.RuleSet
	ApplyOnAdd    bool
	SkipIfLabeled bool
}

// Defaults returns the settings used on first run
func Defaults() Settings {
	return Settings{
		Rules:         rules.RuleSet{Rules: []rules.Rule{}, CaseInsensitive: true},
		ApplyOnAdd:    true,
		SkipIfLabeled: true,
	}
}

// Clone returns a deep copy of the settings
func (s Settings) Clone() Settings {
	return Settings{
		Rules:         s.Rules.Clone(),
		ApplyOnAdd:    s.ApplyOnAdd,
		SkipIfLabeled: s.SkipIfLabeled,
	}
}

// Settings converts the document into Settings, filling in defaults
func (d Document) Settings() Settings {
	s := Defaults()
	s.Rules.CaseInsensitive = boolOr(d.CaseInsensitive, true)
	s.ApplyOnAdd = boolOr(d.ApplyOnAdd, true)
	s.SkipIfLabeled = boolOr(d.SkipIfLabeled, true)

	s.Rules.Rules = make([]rules.Rule, 0, len(d.Rules))
	for _, r := range d.Rules {
		s.Rules.Rules = append(s.Rules.Rules, rules.Rule{
			Label:   r.Label,
			Pattern: r.Pattern,
			Enabled: boolOr(r.Enabled, true),
		})
	}
	return s
}

// Merge overlays the fields present in patch onto d, the way set_config
// replaces keys one at a time.
func (d Document) Merge(patch Document) Document {
	out := d
	if patch.Rules != nil {
		out.Rules = patch.Rules
	}
	if patch.CaseInsensitive != nil {
		out.CaseInsensitive = patch.CaseInsensitive
	}
	if patch.ApplyOnAdd != nil {
		out.ApplyOnAdd = patch.ApplyOnAdd
	}
	if patch.SkipIfLabeled != nil {
		out.SkipIfLabeled = patch.SkipIfLabeled
	}
	return out
}

// NewDocument converts Settings into a fully populated Document
func NewDocument(s Settings) Document {
	d := Document{
		Rules:           make([]RuleDocument, 0, s.Rules.Len()),
		CaseInsensitive: boolPtr(s.Rules.CaseInsensitive),
		ApplyOnAdd:      boolPtr(s.ApplyOnAdd),
		SkipIfLabeled:   boolPtr(s.SkipIfLabeled),
	}
	for _, r := range s.Rules.Rules {
		d.Rules = append(d.Rules, RuleDocument{
			Label:   r.Label,
			Pattern: r.Pattern,
			Enabled: boolPtr(r.Enabled),
		})
	}
	return d
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func boolPtr(v bool) *bool {
	return &v
}
