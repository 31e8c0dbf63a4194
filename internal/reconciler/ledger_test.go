package reconciler

import (
	"testing"
	"time"
)

func TestMarkShownDedupes(t *testing.T) {
	l := NewLedger()
	if !l.MarkShown("t1-due-urgent") {
		t.Fatal("first emission must pass")
	}
	if l.MarkShown("t1-due-urgent") {
		t.Fatal("second emission of the same key must be suppressed")
	}
	if !l.MarkShown("t1-due-overdue") {
		t.Fatal("a different band is a fresh key")
	}
}

func TestConfirmationCycle(t *testing.T) {
	l := NewLedger()
	started := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)

	if !l.ConfirmationDue("t1", started) {
		t.Fatal("fresh cycle must be due")
	}
	l.MarkPending("t1", started)
	if l.ConfirmationDue("t1", started) {
		t.Fatal("outstanding prompt must not be raised again")
	}

	l.Resolve("t1")
	if l.ConfirmationDue("t1", started) {
		t.Fatal("resolved cycle must never re-prompt")
	}

	// The task re-enters In Progress with a fresh startedAt: new cycle.
	restarted := started.Add(2 * time.Hour)
	if !l.ConfirmationDue("t1", restarted) {
		t.Fatal("a fresh timer cycle must prompt again")
	}
}

func TestResolveWithoutPendingIsNoop(t *testing.T) {
	l := NewLedger()
	started := time.Now()

	l.Resolve("t1")
	if !l.ConfirmationDue("t1", started) {
		t.Fatal("resolving nothing must not suppress a future prompt")
	}
}
