package simple

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/sbc/pkg/sbc/inference"
	"github.com/cognicore/sbc/pkg/sbc/internalerr"
	"github.com/cognicore/sbc/pkg/sbc/ruletext"
)

// DefaultMaxDepth bounds backward-chaining recursion when no limit is configured.
const DefaultMaxDepth = 4096

// Engine is a minimal propositional reasoning engine in pure Go.
// It owns one fact set and one ordered rule sequence.
//
// An Engine is not safe for concurrent use. Every method runs to completion
// before returning; callers sharing an Engine across goroutines must lock.
type Engine struct {
	facts    map[inference.Fact]struct{}
	rules    []inference.Rule
	maxDepth int
	fallback bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the deepest goal chain Prove will follow before giving up
// with internalerr.ErrDepthExceeded. Non-positive values keep the default.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithRuleFallback makes Prove try later rules sharing a consequent when an
// earlier one fails. Off by default: only the first matching rule is tried.
func WithRuleFallback(enabled bool) Option {
	return func(e *Engine) {
		e.fallback = enabled
	}
}

// New creates an empty engine
func New(opts ...Option) *Engine {
	e := &Engine{
		facts:    make(map[inference.Fact]struct{}),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured derivation depth limit.
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

// AddFact adds a fact to the knowledge base
func (e *Engine) AddFact(fact inference.Fact) {
	e.facts[fact] = struct{}{}
}

// AddRule appends a rule. Facts named by the rule don't have to exist yet.
func (e *Engine) AddRule(antecedent []inference.Fact, consequent inference.Fact) error {
	if consequent == "" {
		return fmt.Errorf("add rule: empty consequent: %w", internalerr.ErrInvalidInput)
	}
	e.rules = append(e.rules, inference.Rule{
		Antecedent: append([]inference.Fact(nil), antecedent...),
		Consequent: consequent,
	})
	return nil
}

// LoadRules parses rule text ("SE a E b ENTÃO c", one per line) and appends
// every rule found.
func (e *Engine) LoadRules(text string) error {
	rules, err := ruletext.LoadRules(text)
	if err != nil {
		return err
	}
	for _, r := range rules {
		if err := e.AddRule(r.Antecedent, r.Consequent); err != nil {
			return err
		}
	}
	return nil
}

// IsFact reports whether fact is known
func (e *Engine) IsFact(fact inference.Fact) bool {
	_, ok := e.facts[fact]
	return ok
}

// Facts returns the known facts, sorted
func (e *Engine) Facts() []inference.Fact {
	out := make([]inference.Fact, 0, len(e.facts))
	for f := range e.facts {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Rules returns a copy of the rule sequence in insertion order
func (e *Engine) Rules() []inference.Rule {
	out := make([]inference.Rule, len(e.rules))
	for i, r := range e.rules {
		out[i] = inference.Rule{
			Antecedent: append([]inference.Fact(nil), r.Antecedent...),
			Consequent: r.Consequent,
		}
	}
	return out
}

// derivation is the state of one top-level Prove call. Goals entered during
// the call stay on the path until it returns, unless they get proven.
type derivation struct {
	path map[inference.Fact]struct{}
}

// Prove checks whether goal follows from the facts and rules by backward
// chaining. Every goal proven on the way, including goal itself, becomes a fact.
//
// A false result with a nil error means the goal could not be derived, either
// because no rule leads to it or because every attempt ran into a cycle.
// A non-nil error wraps internalerr.ErrDepthExceeded.
func (e *Engine) Prove(goal inference.Fact) (bool, error) {
	d := &derivation{path: make(map[inference.Fact]struct{})}
	return e.prove(goal, d, 1)
}

func (e *Engine) prove(goal inference.Fact, d *derivation, depth int) (bool, error) {
	if e.IsFact(goal) {
		return true, nil
	}

	if _, onPath := d.path[goal]; onPath {
		return false, nil // cycle detection
	}

	if depth > e.maxDepth {
		return false, fmt.Errorf("prove %q: limit %d: %w", goal, e.maxDepth, internalerr.ErrDepthExceeded)
	}

	d.path[goal] = struct{}{}

	for _, rule := range e.rules {
		if rule.Consequent != goal {
			continue
		}

		ok, err := e.proveAll(rule.Antecedent, d, depth+1)
		if err != nil {
			return false, err
		}
		if ok {
			e.facts[goal] = struct{}{}
			return true, nil
		}

		if !e.fallback {
			return false, nil
		}
	}

	return false, nil
}

// proveAll proves each fact in order and stops at the first failure
func (e *Engine) proveAll(facts []inference.Fact, d *derivation, depth int) (bool, error) {
	for _, f := range facts {
		ok, err := e.prove(f, d, depth)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Saturate applies rules forward until a full pass adds nothing new.
func (e *Engine) Saturate() {
	e.SaturateCount()
}

// SaturateCount saturates the fact set and returns how many facts were added.
func (e *Engine) SaturateCount() int {
	added := 0
	for {
		changed := false
		for _, rule := range e.rules {
			if e.IsFact(rule.Consequent) || !e.allKnown(rule.Antecedent) {
				continue
			}
			e.facts[rule.Consequent] = struct{}{}
			added++
			changed = true
		}
		if !changed {
			return added
		}
	}
}

func (e *Engine) allKnown(facts []inference.Fact) bool {
	for _, f := range facts {
		if !e.IsFact(f) {
			return false
		}
	}
	return true
}

// ProveMixed saturates the fact set, then proves goal by backward chaining.
func (e *Engine) ProveMixed(goal inference.Fact) (bool, error) {
	e.Saturate()
	return e.Prove(goal)
}

// Explain generates a human-readable, one-hop justification for goal.
// The first rule concluding goal is quoted whether or not its antecedent holds.
func (e *Engine) Explain(goal inference.Fact) string {
	if e.IsFact(goal) {
		return fmt.Sprintf("O fato %s já é conhecido.", goal)
	}

	for _, rule := range e.rules {
		if rule.Consequent == goal {
			return "Porque " + strings.Join(rule.Antecedent, " e ") + ", então " + goal
		}
	}

	return fmt.Sprintf("Não há explicação para %s.", goal)
}

var _ inference.Reasoner = (*Engine)(nil)
