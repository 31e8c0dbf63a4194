package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
	"github.com/tasknest/backend/usecase"
)

// UseCase owns the task lifecycle, including the completion and scoring
// transition. Timing transitions (Start, Complete, Revert) go through here
// so scoring can never be skipped or double-applied by a raw field update.
type UseCase struct {
	tasks     repository.TaskRepository
	users     repository.UserRepository
	buffer    usecase.OperationBuffer
	broadcast usecase.Broadcaster
	logger    *zap.Logger
	now       func() time.Time
}

func New(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	buffer usecase.OperationBuffer,
	broadcast usecase.Broadcaster,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:     tasks,
		users:     users,
		buffer:    buffer,
		broadcast: broadcast,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task) {
			uc.notifyTasksUpdated()
			return task, nil
		}
		return nil, err
	}
	uc.notifyTasksUpdated()
	return created, nil
}

// UpdateTask saves non-timing fields. Status changes are routed through the
// explicit transitions so the timing invariants hold.
func (uc *UseCase) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	current, err := uc.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	// Carry timing fields forward; they only move via Start/Complete/Revert.
	task.Status = current.Status
	task.StartedAt = current.StartedAt
	task.EstimatedMinutes = current.EstimatedMinutes
	task.CompletedAt = current.CompletedAt

	if err := uc.tasks.Update(ctx, task); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task) {
			uc.notifyTasksUpdated()
			return task, nil
		}
		return nil, err
	}
	uc.notifyTasksUpdated()
	return task, nil
}

func (uc *UseCase) Reorder(ctx context.Context, orders []repository.TaskOrder) error {
	if err := uc.tasks.Reorder(ctx, orders); err != nil {
		return err
	}
	uc.notifyTasksUpdated()
	return nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		if err == domain.ErrTaskNotFound {
			return err
		}
		task := &domain.Task{ID: id}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task) {
			uc.notifyTasksUpdated()
			return nil
		}
		return err
	}
	uc.notifyTasksUpdated()
	return nil
}

// Start moves the task into In Progress and arms its estimated timer.
func (uc *UseCase) Start(ctx context.Context, userID, taskID string, estimatedMinutes int) (*domain.Task, error) {
	task, err := uc.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.Start(uc.now(), estimatedMinutes); err != nil {
		return nil, err
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	uc.notifyTasksUpdated()
	return task, nil
}

// Complete applies the task transition into Done together with the scoring
// update as one unit. Completing an already-Done task is a no-op and never
// awards points a second time.
func (uc *UseCase) Complete(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := uc.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsDone() {
		return task, nil
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	if err := task.Complete(now); err != nil {
		return nil, err
	}
	award := domain.ScoreCompletion(user, task, now)
	user.ApplyAward(award, now)

	// Both rows commit or neither: the repository wraps them in one
	// transaction.
	if err := uc.tasks.SaveCompletion(ctx, task, user); err != nil {
		return nil, err
	}

	uc.logger.Info("task completed",
		zap.String("task_id", task.ID),
		zap.String("user_id", userID),
		zap.Int("points_awarded", award.Points),
		zap.Int("streak", award.Streak))

	uc.notifyTasksUpdated()
	return task, nil
}

// Revert returns a timed task to To Do, disarming its timer.
func (uc *UseCase) Revert(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := uc.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.Revert(); err != nil {
		return nil, err
	}
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	uc.notifyTasksUpdated()
	return task, nil
}

// Stats returns the user's personal productivity aggregate. The weekly count
// runs from the most recent Sunday at midnight.
func (uc *UseCase) Stats(ctx context.Context, userID string) (*domain.TaskStats, error) {
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}
	return uc.tasks.Stats(ctx, userID, weekStart(uc.now()))
}

func weekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(now.Weekday()))
}

func (uc *UseCase) ownedTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.NewError(domain.ErrCodeForbidden, "task belongs to another user")
	}
	return task, nil
}

func (uc *UseCase) notifyTasksUpdated() {
	if uc.broadcast != nil {
		uc.broadcast.ToAll(domain.Event{Type: domain.EventTasksUpdated})
	}
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered", zap.String("operation", operation))
	return true
}
