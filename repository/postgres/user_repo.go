package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
		SELECT id, username, points, streak, last_completion_date, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
		SELECT id, username, points, streak, last_completion_date, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	return r.getOne(ctx, query, username)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	row := r.pool.QueryRow(ctx, query, arg)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Points,
		&user.Streak,
		&user.LastCompletionDate,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (id, username, points, streak, last_completion_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET username = EXCLUDED.username,
		points = EXCLUDED.points,
		streak = EXCLUDED.streak,
		last_completion_date = EXCLUDED.last_completion_date,
		updated_at = NOW()
	RETURNING created_at, updated_at;
	`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Points,
		user.Streak,
		user.LastCompletionDate,
		nullTime(user.CreatedAt),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Search(ctx context.Context, userID, query string, limit int) ([]domain.User, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}

	const sql = `
	SELECT id, username, points, streak, last_completion_date, created_at, updated_at
	FROM users
	WHERE username ILIKE '%' || $2 || '%'
	  AND id <> $1
	  AND id NOT IN (SELECT peer_id FROM friends WHERE user_id = $1)
	ORDER BY username
	LIMIT $3
	`

	rows, err := r.pool.Query(ctx, sql, userID, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Points,
			&user.Streak,
			&user.LastCompletionDate,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateFriendRequest inserts the sent edge and the pending edge in one
// transaction so the graph never holds half a request.
func (r *userRepository) CreateFriendRequest(ctx context.Context, senderID, recipientID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int
		err := tx.QueryRow(ctx,
			`SELECT 1 FROM friends WHERE user_id = $1 AND peer_id = $2`,
			recipientID, senderID,
		).Scan(&exists)
		if err == nil {
			return domain.ErrFriendshipExists
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO friends (user_id, peer_id, status) VALUES ($1, $2, $3)`,
			senderID, recipientID, string(domain.FriendSent),
		); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO friends (user_id, peer_id, status) VALUES ($1, $2, $3)`,
			recipientID, senderID, string(domain.FriendPending),
		)
		return err
	})
}

func (r *userRepository) AcceptFriendRequest(ctx context.Context, recipientID, senderID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE friends SET status = $3 WHERE user_id = $1 AND peer_id = $2 AND status = $4`,
			recipientID, senderID, string(domain.FriendAccepted), string(domain.FriendPending),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		_, err = tx.Exec(ctx,
			`UPDATE friends SET status = $3 WHERE user_id = $1 AND peer_id = $2`,
			senderID, recipientID, string(domain.FriendAccepted),
		)
		return err
	})
}

func (r *userRepository) ListFriends(ctx context.Context, userID string) ([]domain.Friend, error) {
	const query = `
	SELECT f.peer_id, u.username, f.status, f.unread_count
	FROM friends f
	JOIN users u ON u.id = f.peer_id
	WHERE f.user_id = $1
	ORDER BY u.username
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []domain.Friend
	for rows.Next() {
		var (
			f      domain.Friend
			status string
		)
		if err := rows.Scan(&f.PeerID, &f.Username, &status, &f.UnreadCount); err != nil {
			return nil, err
		}
		f.Status = domain.FriendStatus(status)
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// IncrementUnread is a single atomic counter bump, not a read-modify-write.
func (r *userRepository) IncrementUnread(ctx context.Context, userID, peerID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE friends SET unread_count = unread_count + 1 WHERE user_id = $1 AND peer_id = $2`,
		userID, peerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ResetUnread(ctx context.Context, userID, peerID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE friends SET unread_count = 0 WHERE user_id = $1 AND peer_id = $2`,
		userID, peerID,
	)
	return err
}

func (r *userRepository) FriendProgress(ctx context.Context, userID string, dayStart, dayEnd time.Time) ([]domain.FriendProgress, error) {
	const query = `
	SELECT u.id, u.username,
		COUNT(t.id) FILTER (WHERE t.status = $4 AND t.completed_at BETWEEN $2 AND $3)
	FROM friends f
	JOIN users u ON u.id = f.peer_id
	LEFT JOIN tasks t ON t.user_id = u.id
	WHERE f.user_id = $1 AND f.status = $5
	GROUP BY u.id, u.username
	ORDER BY u.username
	`

	rows, err := r.pool.Query(ctx, query,
		userID, dayStart, dayEnd, string(domain.StatusDone), string(domain.FriendAccepted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []domain.FriendProgress
	for rows.Next() {
		var p domain.FriendProgress
		if err := rows.Scan(&p.UserID, &p.Username, &p.CompletedToday); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

func (r *userRepository) Leaderboard(ctx context.Context, limit int, dayStart, dayEnd time.Time) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	const query = `
	SELECT u.id, u.username, u.points,
		COUNT(t.id) FILTER (WHERE t.status = $3 AND t.completed_at BETWEEN $1 AND $2)
	FROM users u
	LEFT JOIN tasks t ON t.user_id = u.id
	GROUP BY u.id, u.username, u.points
	ORDER BY u.points DESC
	LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, dayStart, dayEnd, string(domain.StatusDone), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.CompletedToday); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
