package reconciler

import (
	"sync"
	"time"
)

// Ledger is the per-session dedup state for one live connection. It keeps
// two distinct records, and the distinction matters:
//
//   - shown: alert keys already emitted this session. Purely suppresses
//     repeat toasts across polling cycles; losing it on reconnect only risks
//     a duplicate informational alert.
//   - confirmations: per-task resolution state for timer-expiry prompts,
//     keyed by the timer cycle (the task's startedAt). Only an explicit user
//     action resolves a cycle; a resolved cycle never re-prompts, while a
//     fresh startedAt opens a new cycle that prompts again.
type Ledger struct {
	mu       sync.Mutex
	shown    map[string]struct{}
	pending  map[string]int64
	resolved map[string]int64
}

func NewLedger() *Ledger {
	return &Ledger{
		shown:    make(map[string]struct{}),
		pending:  make(map[string]int64),
		resolved: make(map[string]int64),
	}
}

// MarkShown records the alert key and reports whether this is its first
// emission in the session.
func (l *Ledger) MarkShown(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.shown[key]; seen {
		return false
	}
	l.shown[key] = struct{}{}
	return true
}

// ConfirmationDue reports whether a confirmation prompt should be raised for
// the task's current timer cycle: not already outstanding and not resolved.
func (l *Ledger) ConfirmationDue(taskID string, startedAt time.Time) bool {
	cycle := startedAt.Unix()
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.pending[taskID]; ok && c == cycle {
		return false
	}
	if c, ok := l.resolved[taskID]; ok && c == cycle {
		return false
	}
	return true
}

// MarkPending records that a confirmation was raised for this timer cycle.
func (l *Ledger) MarkPending(taskID string, startedAt time.Time) {
	l.mu.Lock()
	l.pending[taskID] = startedAt.Unix()
	l.mu.Unlock()
}

// Resolve marks the task's outstanding cycle as handled by the user. Without
// an outstanding prompt it is a no-op, so the passage of time alone can
// never resolve anything.
func (l *Ledger) Resolve(taskID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cycle, ok := l.pending[taskID]
	if !ok {
		return
	}
	delete(l.pending, taskID)
	l.resolved[taskID] = cycle
}
