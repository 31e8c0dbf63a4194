package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

const taskColumns = `id, user_id, category_id, title, description, status, priority, order_num,
	due_date, started_at, estimated_minutes, completed_at, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR user_id = $1)
	  AND ($2 = '' OR status = $2)
	ORDER BY order_num ASC, created_at DESC
	LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, filter.UserID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) ListActive(ctx context.Context, userID string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1 AND status <> $2
	ORDER BY order_num ASC`

	rows, err := r.pool.Query(ctx, query, userID, string(domain.StatusDone))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.StatusToDo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityNone
	}

	const query = `
	INSERT INTO tasks (id, user_id, category_id, title, description, status, priority, order_num,
		due_date, started_at, estimated_minutes, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7,
		COALESCE((SELECT MAX(order_num) + 1 FROM tasks WHERE user_id = $2), 0),
		$8, $9, $10, $11)
	RETURNING order_num, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		nullString(task.CategoryID),
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.StartedAt,
		task.EstimatedMinutes,
		task.CompletedAt,
	).Scan(&task.Order, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		status = $4,
		priority = $5,
		due_date = $6,
		started_at = $7,
		estimated_minutes = $8,
		completed_at = $9,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.StartedAt,
		task.EstimatedMinutes,
		task.CompletedAt,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Reorder(ctx context.Context, orders []repository.TaskOrder) error {
	if len(orders) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(`UPDATE tasks SET order_num = $2, updated_at = NOW() WHERE id = $1`, o.ID, o.Order)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range orders {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// SaveCompletion commits the Done transition and the scored user atomically.
func (r *taskRepository) SaveCompletion(ctx context.Context, task *domain.Task, user *domain.User) error {
	if task == nil || user == nil {
		return domain.ErrInvalidPayload
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tasks
			SET status = $2, completed_at = $3,
			    started_at = NULL, estimated_minutes = NULL, updated_at = NOW()
			WHERE id = $1`,
			task.ID, string(task.Status), task.CompletedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTaskNotFound
		}

		tag, err = tx.Exec(ctx, `
			UPDATE users
			SET points = $2, streak = $3, last_completion_date = $4, updated_at = NOW()
			WHERE id = $1`,
			user.ID, user.Points, user.Streak, user.LastCompletionDate,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// Stats folds the per-priority completion breakdown into one aggregate pass
// over the user's tasks, the same shape Leaderboard uses for daily counts.
func (r *taskRepository) Stats(ctx context.Context, userID string, weekStart time.Time) (*domain.TaskStats, error) {
	const query = `
	SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = $2),
		COUNT(*) FILTER (WHERE status = $2 AND priority = $3),
		COUNT(*) FILTER (WHERE status = $2 AND priority = $4),
		COUNT(*) FILTER (WHERE status = $2 AND priority = $5),
		COUNT(*) FILTER (WHERE status = $2 AND priority = $6),
		COUNT(*) FILTER (WHERE status = $2 AND completed_at >= $7)
	FROM tasks
	WHERE user_id = $1
	`

	var stats domain.TaskStats
	var high, mid, low, none int
	err := r.pool.QueryRow(ctx, query,
		userID, string(domain.StatusDone),
		string(domain.PriorityHigh), string(domain.PriorityMid),
		string(domain.PriorityLow), string(domain.PriorityNone),
		weekStart,
	).Scan(&stats.TotalTasks, &stats.TotalCompleted, &high, &mid, &low, &none, &stats.CompletedThisWeek)
	if err != nil {
		return nil, err
	}

	stats.CompletedByPriority = map[domain.TaskPriority]int{
		domain.PriorityHigh: high,
		domain.PriorityMid:  mid,
		domain.PriorityLow:  low,
		domain.PriorityNone: none,
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.TotalCompleted) / float64(stats.TotalTasks) * 100
	}
	return &stats, nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task     domain.Task
		category *string
		status   string
		priority string
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&category,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.Order,
		&task.DueDate,
		&task.StartedAt,
		&task.EstimatedMinutes,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	if category != nil {
		task.CategoryID = *category
	}
	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}
