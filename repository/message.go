package repository

import (
	"context"

	"github.com/tasknest/backend/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	// ListConversation returns the two-party history ordered by creation time.
	ListConversation(ctx context.Context, userID, peerID string, limit int) ([]domain.Message, error)
}
