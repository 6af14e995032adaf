package journal

import (
	"context"
	"time"
)

// Store records what a reasoning session was asked and what it answered.
// It is an audit trail only; knowledge bases are never rebuilt from it.
type Store interface {
	Close() error

	// Append records one entry. Entries of a session are kept in Seq order.
	Append(ctx context.Context, e Entry) error

	// List returns the last limit entries of a session in Seq order.
	// A non-positive limit returns all of them.
	List(ctx context.Context, sessionID string, limit int) ([]Entry, error)

	// Sessions summarizes every recorded session, most recent first.
	Sessions(ctx context.Context) ([]SessionSummary, error)
}

// Op names an engine operation.
type Op string

const (
	OpAddFact    Op = "add_fact"
	OpAddRule    Op = "add_rule"
	OpProve      Op = "prove"
	OpSaturate   Op = "saturate"
	OpProveMixed Op = "prove_mixed"
	OpExplain    Op = "explain"
	OpLoad       Op = "load"
)

// Entry is one journaled operation
type Entry struct {
	ID        string // ULID
	SessionID string
	Seq       int64
	Op        Op
	Subject   string // fact, goal or rule text the operation was about
	Detail    string
	Result    string
	At        time.Time
}

// SessionSummary describes a recorded session
type SessionSummary struct {
	SessionID string
	Entries   int
	FirstAt   time.Time
	LastAt    time.Time
}
