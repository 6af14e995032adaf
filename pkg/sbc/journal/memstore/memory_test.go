package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/sbc/pkg/sbc/journal"
)

func entry(session string, seq int64, op journal.Op, at time.Time) journal.Entry {
	return journal.Entry{
		ID:        session + "-" + string(rune('a'+seq)),
		SessionID: session,
		Seq:       seq,
		Op:        op,
		At:        at,
	}
}

func TestAppendKeepsSeqOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	for _, seq := range []int64{3, 1, 2} {
		if err := s.Append(ctx, entry("s1", seq, journal.OpProve, now)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.List(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, e := range got {
		if e.Seq != int64(i+1) {
			t.Errorf("entry %d: seq = %d, want %d", i, e.Seq, i+1)
		}
	}
}

func TestListLimitReturnsMostRecent(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	for seq := int64(1); seq <= 5; seq++ {
		s.Append(ctx, entry("s1", seq, journal.OpAddFact, now))
	}

	got, _ := s.List(ctx, "s1", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Seq != 4 || got[1].Seq != 5 {
		t.Errorf("expected seqs [4 5], got [%d %d]", got[0].Seq, got[1].Seq)
	}
}

func TestListUnknownSession(t *testing.T) {
	got, err := New().List(context.Background(), "missing", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestAppendIgnoresEmptySession(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Append(ctx, journal.Entry{ID: "x", Op: journal.OpProve})

	sessions, _ := s.Sessions(ctx)
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}
}

func TestSessionsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.Append(ctx, entry("old", 1, journal.OpAddFact, base))
	s.Append(ctx, entry("old", 2, journal.OpProve, base.Add(time.Minute)))
	s.Append(ctx, entry("new", 1, journal.OpExplain, base.Add(time.Hour)))

	sessions, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != "new" {
		t.Errorf("expected newest session first, got %s", sessions[0].SessionID)
	}
	old := sessions[1]
	if old.Entries != 2 {
		t.Errorf("expected 2 entries in old session, got %d", old.Entries)
	}
	if !old.FirstAt.Equal(base) || !old.LastAt.Equal(base.Add(time.Minute)) {
		t.Errorf("unexpected span %v .. %v", old.FirstAt, old.LastAt)
	}
}
