package repository

import (
	"context"
	"time"

	"github.com/tasknest/backend/domain"
)

type TaskFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

// TaskOrder pairs a task with its new position for bulk reordering.
type TaskOrder struct {
	ID    string
	Order int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// ListActive returns the user's non-Done tasks for reconciliation scans.
	ListActive(ctx context.Context, userID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Reorder(ctx context.Context, orders []TaskOrder) error
	Delete(ctx context.Context, id string) error
	// SaveCompletion writes the completed task and the scored user inside a
	// single transaction so a crash can never award points without the task
	// entering Done, or the reverse.
	SaveCompletion(ctx context.Context, task *domain.Task, user *domain.User) error
	// Stats aggregates the user's lifetime and since-weekStart completion
	// numbers in a single query.
	Stats(ctx context.Context, userID string, weekStart time.Time) (*domain.TaskStats, error)
}
