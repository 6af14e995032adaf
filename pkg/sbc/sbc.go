package sbc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/sbc/pkg/sbc/config"
	"github.com/cognicore/sbc/pkg/sbc/inference"
	"github.com/cognicore/sbc/pkg/sbc/inference/simple"
	"github.com/cognicore/sbc/pkg/sbc/internalerr"
	"github.com/cognicore/sbc/pkg/sbc/journal"
	"github.com/cognicore/sbc/pkg/sbc/journal/memstore"
	"github.com/cognicore/sbc/pkg/sbc/ruletext"
)

// Session is the knowledge base facade used by the CLI. It wraps one
// reasoner for the lifetime of a session, logging and journaling every
// operation. Like the reasoner it wraps, a Session is not safe for
// concurrent use.
type Session struct {
	id      string
	kb      inference.Reasoner
	journal journal.Store
	logger  *zap.Logger
	entropy *ulid.MonotonicEntropy
	clock   func() time.Time
	seq     int64
}

// Options configures a Session
type Options struct {
	Reasoner inference.Reasoner // defaults to simple.New()
	Journal  journal.Store      // defaults to an in-memory journal
	Logger   *zap.Logger        // defaults to zap.NewNop()
	Clock    func() time.Time   // defaults to time.Now
}

// New starts a session with an empty or caller-provided knowledge base
func New(opts Options) *Session {
	s := &Session{
		kb:      opts.Reasoner,
		journal: opts.Journal,
		logger:  opts.Logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
		clock:   opts.Clock,
	}
	if s.kb == nil {
		s.kb = simple.New()
	}
	if s.journal == nil {
		s.journal = memstore.New()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	s.id = s.newID(s.clock())
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	return s
}

// ID returns the session's ULID
func (s *Session) ID() string {
	return s.id
}

// Close cleanly shuts down the session's journal
func (s *Session) Close() error {
	_ = s.logger.Sync()
	return s.journal.Close()
}

// AddFact asserts a fact. Empty text is ignored and reported as not added.
func (s *Session) AddFact(ctx context.Context, fact inference.Fact) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if fact == "" {
		return false, nil
	}

	s.kb.AddFact(fact)
	s.logger.Debug("fact added", zap.String("fact", fact))
	return true, s.record(ctx, journal.OpAddFact, fact, "", "ok")
}

// AddRule appends a rule to the knowledge base
func (s *Session) AddRule(ctx context.Context, antecedent []inference.Fact, consequent inference.Fact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.kb.AddRule(antecedent, consequent); err != nil {
		s.logger.Debug("rule rejected", zap.Strings("antecedent", antecedent), zap.Error(err))
		return err
	}

	text := ruletext.Format(inference.Rule{Antecedent: antecedent, Consequent: consequent})
	s.logger.Debug("rule added", zap.String("rule", text))
	return s.record(ctx, journal.OpAddRule, text, "", "ok")
}

// AddRuleText parses "SE ... ENTÃO ..." text and adds the rule. Malformed
// text adds nothing and returns ok=false without an error.
func (s *Session) AddRuleText(ctx context.Context, text string) (inference.Rule, bool, error) {
	if err := ctx.Err(); err != nil {
		return inference.Rule{}, false, err
	}

	rule, ok := ruletext.Parse(text)
	if !ok {
		s.logger.Debug("malformed rule text dropped", zap.String("text", text))
		return inference.Rule{}, false, s.record(ctx, journal.OpAddRule, text, "malformed", "rejected")
	}

	if err := s.AddRule(ctx, rule.Antecedent, rule.Consequent); err != nil {
		return inference.Rule{}, false, err
	}
	return rule, true, nil
}

// Prove answers goal by backward chaining
func (s *Session) Prove(ctx context.Context, goal inference.Fact) (bool, error) {
	return s.query(ctx, journal.OpProve, goal, s.kb.Prove)
}

// ProveMixed saturates the knowledge base, then answers goal by backward chaining
func (s *Session) ProveMixed(ctx context.Context, goal inference.Fact) (bool, error) {
	return s.query(ctx, journal.OpProveMixed, goal, s.kb.ProveMixed)
}

func (s *Session) query(ctx context.Context, op journal.Op, goal inference.Fact, prove func(inference.Fact) (bool, error)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	start := s.clock()
	ok, err := prove(goal)
	elapsed := s.clock().Sub(start)

	result := strconv.FormatBool(ok)
	if err != nil {
		result = "error"
		if errors.Is(err, internalerr.ErrDepthExceeded) {
			result = "depth_exceeded"
		}
		s.logger.Warn("proof aborted", zap.String("op", string(op)), zap.String("goal", goal), zap.Error(err))
	} else {
		s.logger.Debug("goal evaluated",
			zap.String("op", string(op)),
			zap.String("goal", goal),
			zap.Bool("proven", ok),
			zap.Duration("elapsed", elapsed))
	}

	if recErr := s.record(ctx, op, goal, "", result); recErr != nil && err == nil {
		err = recErr
	}
	return ok, err
}

// Saturate forward-chains to a fixpoint and returns how many facts were added
func (s *Session) Saturate(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	before := len(s.kb.Facts())
	s.kb.Saturate()
	added := len(s.kb.Facts()) - before

	s.logger.Debug("saturated", zap.Int("added", added))
	return added, s.record(ctx, journal.OpSaturate, "", "", strconv.Itoa(added))
}

// Explain returns the one-hop justification for goal
func (s *Session) Explain(ctx context.Context, goal inference.Fact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := s.kb.Explain(goal)
	return text, s.record(ctx, journal.OpExplain, goal, "", text)
}

// LoadRulebook asserts a rulebook's facts, then appends its rules.
func (s *Session) LoadRulebook(ctx context.Context, rb *config.Rulebook) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rb == nil {
		return nil
	}

	rules, err := rb.AllRules()
	if err != nil {
		return err
	}

	facts := 0
	for _, f := range rb.Facts {
		if f == "" {
			continue
		}
		s.kb.AddFact(f)
		facts++
	}
	for _, r := range rules {
		if err := s.kb.AddRule(r.Antecedent, r.Consequent); err != nil {
			return err
		}
	}

	s.logger.Info("rulebook loaded", zap.Int("facts", facts), zap.Int("rules", len(rules)))
	detail := fmt.Sprintf("facts=%d rules=%d", facts, len(rules))
	return s.record(ctx, journal.OpLoad, "", detail, "ok")
}

// Facts returns the known facts
func (s *Session) Facts() []inference.Fact {
	return s.kb.Facts()
}

// Rules returns the rules in insertion order
func (s *Session) Rules() []inference.Rule {
	return s.kb.Rules()
}

// History returns the session's most recent journal entries
func (s *Session) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	entries, err := s.journal.List(ctx, s.id, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %v: %w", err, internalerr.ErrStoreUnavailable)
	}
	return entries, nil
}

func (s *Session) record(ctx context.Context, op journal.Op, subject, detail, result string) error {
	at := s.clock()
	s.seq++
	entry := journal.Entry{
		ID:        s.newID(at),
		SessionID: s.id,
		Seq:       s.seq,
		Op:        op,
		Subject:   subject,
		Detail:    detail,
		Result:    result,
		At:        at,
	}
	if err := s.journal.Append(ctx, entry); err != nil {
		s.logger.Error("journal append failed", zap.String("op", string(op)), zap.Error(err))
		return fmt.Errorf("journal %s: %v: %w", op, err, internalerr.ErrStoreUnavailable)
	}
	return nil
}

func (s *Session) newID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}
