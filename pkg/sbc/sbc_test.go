package sbc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/sbc/pkg/sbc/config"
	"github.com/cognicore/sbc/pkg/sbc/inference"
	"github.com/cognicore/sbc/pkg/sbc/inference/simple"
	"github.com/cognicore/sbc/pkg/sbc/internalerr"
	"github.com/cognicore/sbc/pkg/sbc/journal"
	"github.com/cognicore/sbc/pkg/sbc/journal/memstore"
)

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s := New(opts)
	t.Cleanup(func() { s.Close() })
	return s
}

func ops(entries []journal.Entry) []journal.Op {
	out := make([]journal.Op, len(entries))
	for i, e := range entries {
		out[i] = e.Op
	}
	return out
}

func TestSessionExampleScenario(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{})

	added, err := s.AddFact(ctx, "chuva")
	require.NoError(t, err)
	assert.True(t, added)

	rule, ok, err := s.AddRuleText(ctx, "SE chuva ENTÃO guarda_chuva")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, inference.Rule{Antecedent: []string{"chuva"}, Consequent: "guarda_chuva"}, rule)

	text, err := s.Explain(ctx, "guarda_chuva")
	require.NoError(t, err)
	assert.Equal(t, "Porque chuva, então guarda_chuva", text)

	proven, err := s.Prove(ctx, "guarda_chuva")
	require.NoError(t, err)
	assert.True(t, proven)
	assert.Contains(t, s.Facts(), "guarda_chuva")

	history, err := s.History(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []journal.Op{journal.OpAddFact, journal.OpAddRule, journal.OpExplain, journal.OpProve}, ops(history))
	assert.Equal(t, "SE chuva ENTÃO guarda_chuva", history[1].Subject)
	assert.Equal(t, "true", history[3].Result)
	for i, e := range history {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, s.ID(), e.SessionID)
		assert.NotEmpty(t, e.ID)
	}
}

func TestSessionIgnoresEmptyFact(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{})

	added, err := s.AddFact(ctx, "")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, s.Facts())

	history, _ := s.History(ctx, 0)
	assert.Empty(t, history)
}

func TestSessionMalformedRuleTextIsDropped(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{})

	_, ok, err := s.AddRuleText(ctx, "chuva então molhado")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Rules())

	history, _ := s.History(ctx, 0)
	require.Len(t, history, 1)
	assert.Equal(t, "rejected", history[0].Result)
}

func TestSessionAddRuleEmptyConsequent(t *testing.T) {
	s := newSession(t, Options{})
	err := s.AddRule(context.Background(), []string{"a"}, "")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestSessionSaturateAndMixed(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{})

	s.AddFact(ctx, "a")
	require.NoError(t, s.AddRule(ctx, []string{"a"}, "b"))
	require.NoError(t, s.AddRule(ctx, []string{"b"}, "c"))

	added, err := s.Saturate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	proven, err := s.ProveMixed(ctx, "c")
	require.NoError(t, err)
	assert.True(t, proven)

	history, _ := s.History(ctx, 2)
	assert.Equal(t, []journal.Op{journal.OpSaturate, journal.OpProveMixed}, ops(history))
	assert.Equal(t, "2", history[0].Result)
}

func TestSessionDepthExceeded(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	s := newSession(t, Options{
		Reasoner: simple.New(simple.WithMaxDepth(2)),
		Logger:   zap.New(core),
	})

	s.AddFact(ctx, "a")
	s.AddRule(ctx, []string{"a"}, "b")
	s.AddRule(ctx, []string{"b"}, "c")
	s.AddRule(ctx, []string{"c"}, "d")

	proven, err := s.Prove(ctx, "d")
	assert.False(t, proven)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrDepthExceeded))

	assert.Equal(t, 1, logs.FilterMessage("proof aborted").Len())

	history, _ := s.History(ctx, 1)
	require.Len(t, history, 1)
	assert.Equal(t, "depth_exceeded", history[0].Result)
}

func TestSessionLoadRulebook(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{})

	rb := &config.Rulebook{
		Facts: []string{"chuva", ""},
		Rules: []config.RuleSpec{{If: []string{"chuva"}, Then: "molhado"}},
		Text:  "SE molhado ENTÃO escorregadio\n",
	}
	require.NoError(t, s.LoadRulebook(ctx, rb))
	assert.Equal(t, []string{"chuva"}, s.Facts())
	assert.Len(t, s.Rules(), 2)

	proven, err := s.Prove(ctx, "escorregadio")
	require.NoError(t, err)
	assert.True(t, proven)

	history, _ := s.History(ctx, 0)
	require.NotEmpty(t, history)
	assert.Equal(t, journal.OpLoad, history[0].Op)
	assert.Equal(t, "facts=1 rules=2", history[0].Detail)

	require.NoError(t, s.LoadRulebook(ctx, nil))
}

func TestSessionLoadRulebookInvalid(t *testing.T) {
	s := newSession(t, Options{})
	err := s.LoadRulebook(context.Background(), &config.Rulebook{Rules: []config.RuleSpec{{If: []string{"a"}}}})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
	assert.Empty(t, s.Rules())
}

func TestSessionCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newSession(t, Options{})

	_, err := s.AddFact(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Prove(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Facts())
}

func TestSessionSharedJournal(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	clock := func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

	first := New(Options{Journal: store, Clock: clock})
	second := New(Options{Journal: store, Clock: clock})
	require.NotEqual(t, first.ID(), second.ID())

	first.AddFact(ctx, "a")
	second.AddFact(ctx, "b")
	second.Explain(ctx, "b")

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	h1, _ := first.History(ctx, 0)
	h2, _ := second.History(ctx, 0)
	assert.Len(t, h1, 1)
	assert.Len(t, h2, 2)
}

type failingJournal struct{ memstore.Store }

func (*failingJournal) Append(ctx context.Context, e journal.Entry) error {
	return errors.New("disk full")
}

func TestSessionJournalFailure(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Options{Journal: &failingJournal{}})

	added, err := s.AddFact(ctx, "a")
	assert.True(t, added, "the fact is asserted even if journaling fails")
	assert.True(t, errors.Is(err, internalerr.ErrStoreUnavailable))

	proven, err := s.Prove(ctx, "a")
	assert.True(t, proven)
	assert.True(t, errors.Is(err, internalerr.ErrStoreUnavailable))
}
