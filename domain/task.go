package domain

import "time"

// TaskStatus enumerates the lifecycle states of a task.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

// TaskPriority mirrors the priorities exposed to clients.
type TaskPriority string

const (
	PriorityHigh TaskPriority = "High"
	PriorityMid  TaskPriority = "Medium"
	PriorityLow  TaskPriority = "Low"
	PriorityNone TaskPriority = "No Priority"
)

// Task represents a user-owned activity item with optional timing metadata.
//
// Invariants: StartedAt and EstimatedMinutes are set together and only while
// Status is In Progress; CompletedAt is non-nil exactly when Status is Done.
type Task struct {
	ID               string       `json:"id"`
	UserID           string       `json:"user_id"`
	CategoryID       string       `json:"category_id,omitempty"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	Status           TaskStatus   `json:"status"`
	Priority         TaskPriority `json:"priority"`
	Order            int          `json:"order"`
	DueDate          *time.Time   `json:"due_date,omitempty"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	EstimatedMinutes *int         `json:"estimated_minutes,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (t *Task) IsDone() bool {
	return t != nil && t.Status == StatusDone
}

// Start moves the task into In Progress and arms its timer. Both timer fields
// are written together so the estimated deadline stays derivable.
func (t *Task) Start(now time.Time, estimatedMinutes int) error {
	if t == nil {
		return ErrInvalidPayload
	}
	if t.Status == StatusDone {
		return ErrTaskAlreadyDone
	}
	if estimatedMinutes <= 0 {
		return NewError(ErrCodeInvalid, "estimated minutes must be positive")
	}
	t.Status = StatusInProgress
	started := now
	t.StartedAt = &started
	est := estimatedMinutes
	t.EstimatedMinutes = &est
	t.CompletedAt = nil
	return nil
}

// Complete transitions the task into Done and stamps the completion time.
// The timer fields are cleared: they only carry meaning while In Progress.
func (t *Task) Complete(now time.Time) error {
	if t == nil {
		return ErrInvalidPayload
	}
	if t.Status == StatusDone {
		return ErrTaskAlreadyDone
	}
	t.Status = StatusDone
	completed := now
	t.CompletedAt = &completed
	t.StartedAt = nil
	t.EstimatedMinutes = nil
	return nil
}

// Revert returns the task to To Do and disarms its timer. Reverting a Done
// task is not part of the timer engine and is rejected here.
func (t *Task) Revert() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if t.Status == StatusDone {
		return ErrTaskAlreadyDone
	}
	t.Status = StatusToDo
	t.StartedAt = nil
	t.EstimatedMinutes = nil
	t.CompletedAt = nil
	return nil
}

// TaskStats aggregates one user's productivity numbers: lifetime totals, the
// completed share per priority, and completions since the start of the
// current week.
type TaskStats struct {
	TotalTasks          int                  `json:"total_tasks"`
	TotalCompleted      int                  `json:"total_completed"`
	CompletionRate      float64              `json:"completion_rate"`
	CompletedByPriority map[TaskPriority]int `json:"completed_by_priority"`
	CompletedThisWeek   int                  `json:"completed_this_week"`
}

// EstimatedDeadline returns the moment the armed timer runs out. The second
// return is false for tasks that are not In Progress with an armed timer.
func (t *Task) EstimatedDeadline() (time.Time, bool) {
	if t == nil || t.Status != StatusInProgress || t.StartedAt == nil || t.EstimatedMinutes == nil {
		return time.Time{}, false
	}
	return t.StartedAt.Add(time.Duration(*t.EstimatedMinutes) * time.Minute), true
}
