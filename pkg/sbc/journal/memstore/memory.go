package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/sbc/pkg/sbc/journal"
)

// Store is an in-memory implementation of journal.Store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]journal.Entry
}

// New creates a new in-memory journal.
func New() *Store {
	return &Store{
		sessions: make(map[string][]journal.Entry),
	}
}

// Close implements journal.Store.
func (s *Store) Close() error { return nil }

// Append records an entry, keeping each session sorted by Seq.
func (s *Store) Append(ctx context.Context, e journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.SessionID == "" {
		return nil
	}

	entries := append(s.sessions[e.SessionID], e)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})
	s.sessions[e.SessionID] = entries
	return nil
}

// List returns the most recent entries of a session.
func (s *Store) List(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sessions[sessionID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]journal.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Sessions summarizes recorded sessions, most recent first.
func (s *Store) Sessions(ctx context.Context) ([]journal.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]journal.SessionSummary, 0, len(s.sessions))
	for id, entries := range s.sessions {
		if len(entries) == 0 {
			continue
		}
		sum := journal.SessionSummary{
			SessionID: id,
			Entries:   len(entries),
			FirstAt:   entries[0].At,
			LastAt:    entries[0].At,
		}
		for _, e := range entries[1:] {
			if e.At.Before(sum.FirstAt) {
				sum.FirstAt = e.At
			}
			if e.At.After(sum.LastAt) {
				sum.LastAt = e.At
			}
		}
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastAt.Equal(out[j].LastAt) {
			return out[i].SessionID > out[j].SessionID
		}
		return out[i].LastAt.After(out[j].LastAt)
	})
	return out, nil
}
