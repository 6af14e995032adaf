package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/sbc/pkg/sbc/inference"
	"github.com/cognicore/sbc/pkg/sbc/internalerr"
	"github.com/cognicore/sbc/pkg/sbc/ruletext"
)

// Rulebook represents a rulebook file: seed facts plus rules, either
// structured or written in rule text.
//
//	facts: [chuva]
//	rules:
//	  - if: [chuva]
//	    then: molhado
//	text: |
//	  SE molhado E frio ENTÃO gelo
type Rulebook struct {
	Facts []string   `yaml:"facts"`
	Rules []RuleSpec `yaml:"rules"`
	Text  string     `yaml:"text"`
}

// RuleSpec is a structured rule entry
type RuleSpec struct {
	If   []string `yaml:"if"`
	Then string   `yaml:"then"`
}

// LoadRulebook loads a rulebook from a YAML file
func LoadRulebook(path string) (*Rulebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rb, err := ParseRulebook(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rb, nil
}

// ParseRulebook decodes rulebook YAML. Unknown keys are rejected.
func ParseRulebook(data []byte) (*Rulebook, error) {
	var rb Rulebook
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rb); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode rulebook: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	return &rb, nil
}

// AllRules returns the structured rules followed by the text rules.
func (rb *Rulebook) AllRules() ([]inference.Rule, error) {
	out := make([]inference.Rule, 0, len(rb.Rules))
	for i, spec := range rb.Rules {
		if spec.Then == "" {
			return nil, fmt.Errorf("rule %d: missing 'then': %w", i+1, internalerr.ErrInvalidConfig)
		}
		out = append(out, inference.Rule{
			Antecedent: append([]inference.Fact(nil), spec.If...),
			Consequent: spec.Then,
		})
	}

	if strings.TrimSpace(rb.Text) != "" {
		textRules, err := ruletext.LoadRules(rb.Text)
		if err != nil {
			return nil, fmt.Errorf("rule text: %w", err)
		}
		out = append(out, textRules...)
	}

	return out, nil
}

// Merge appends other's facts, rules and text to rb.
func (rb *Rulebook) Merge(other *Rulebook) {
	if other == nil {
		return
	}
	rb.Facts = append(rb.Facts, other.Facts...)
	rb.Rules = append(rb.Rules, other.Rules...)
	if other.Text != "" {
		if rb.Text != "" && !strings.HasSuffix(rb.Text, "\n") {
			rb.Text += "\n"
		}
		rb.Text += other.Text
	}
}

// Settings holds runtime configuration for the sbc CLI.
type Settings struct {
	MaxDepth     int             `mapstructure:"max_depth"`
	RuleFallback bool            `mapstructure:"rule_fallback"`
	Log          LogSettings     `mapstructure:"log"`
	Journal      JournalSettings `mapstructure:"journal"`
	Rulebooks    []string        `mapstructure:"rulebooks"`
}

type LogSettings struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json"`
}

type JournalSettings struct {
	Path string `mapstructure:"path"` // empty keeps the journal in memory
}

// EnvPrefix prefixes environment overrides, e.g. SBC_MAX_DEPTH, SBC_LOG_LEVEL.
const EnvPrefix = "SBC"

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("max_depth", 4096)
	v.SetDefault("rule_fallback", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.json", false)
	v.SetDefault("journal.path", "")
	v.SetDefault("rulebooks", []string{})
}

// LoadSettings resolves settings from defaults, an optional config file at
// path, SBC_* environment variables and any flags already bound to v.
func LoadSettings(v *viper.Viper, path string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %v: %w", err, internalerr.ErrInvalidConfig)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings for invalid values.
func (s *Settings) Validate() error {
	if s.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d: %w", s.MaxDepth, internalerr.ErrInvalidConfig)
	}
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("unsupported log level %q: %w", s.Log.Level, internalerr.ErrInvalidConfig)
	}
	return nil
}
