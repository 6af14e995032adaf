package config

import (
	"fmt"
	"strings"
)

// Loader gathers rulebook input from files and inline values
type Loader struct {
	RulebookPaths []string
	Facts         []string // extra seed facts, e.g. from --fact flags
	RuleTexts     []string // extra rule-text lines, e.g. from --rule flags
}

// Load reads every rulebook in order and appends the inline facts and rules.
func (l *Loader) Load() (*Rulebook, error) {
	merged := &Rulebook{}

	for _, path := range l.RulebookPaths {
		if path == "" {
			continue
		}
		rb, err := LoadRulebook(path)
		if err != nil {
			return nil, fmt.Errorf("load rulebook: %w", err)
		}
		merged.Merge(rb)
	}

	inline := &Rulebook{Facts: l.Facts}
	if len(l.RuleTexts) > 0 {
		inline.Text = strings.Join(l.RuleTexts, "\n") + "\n"
	}
	merged.Merge(inline)

	// Surface malformed rules now rather than at first use
	if _, err := merged.AllRules(); err != nil {
		return nil, err
	}

	return merged, nil
}
