package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository returns a Postgres-backed chat message store.
func NewMessageRepository(pool *pgxpool.Pool) repository.MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message == nil || message.FromUser == "" || message.ToUser == "" || message.Content == "" {
		return domain.ErrInvalidPayload
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO messages (id, from_user, to_user, content)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`

	return r.pool.QueryRow(ctx, query,
		message.ID,
		message.FromUser,
		message.ToUser,
		message.Content,
	).Scan(&message.CreatedAt)
}

func (r *messageRepository) ListConversation(ctx context.Context, userID, peerID string, limit int) ([]domain.Message, error) {
	const query = `
	SELECT id, from_user, to_user, content, created_at
	FROM messages
	WHERE (from_user = $1 AND to_user = $2)
	   OR (from_user = $2 AND to_user = $1)
	ORDER BY created_at ASC
	LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, peerID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.FromUser, &m.ToUser, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
