package repository

import (
	"context"
	"time"

	"github.com/tasknest/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
	// Search finds users by username fragment, excluding the searcher and
	// anyone already present in their friend list.
	Search(ctx context.Context, userID, query string, limit int) ([]domain.User, error)

	// Friend graph. CreateFriendRequest inserts both edges (sent on the
	// sender side, pending on the recipient side) atomically.
	CreateFriendRequest(ctx context.Context, senderID, recipientID string) error
	AcceptFriendRequest(ctx context.Context, recipientID, senderID string) error
	ListFriends(ctx context.Context, userID string) ([]domain.Friend, error)

	// Unread counters. Increment is a single atomic counter update.
	IncrementUnread(ctx context.Context, userID, peerID string) error
	ResetUnread(ctx context.Context, userID, peerID string) error

	FriendProgress(ctx context.Context, userID string, dayStart, dayEnd time.Time) ([]domain.FriendProgress, error)
	Leaderboard(ctx context.Context, limit int, dayStart, dayEnd time.Time) ([]domain.LeaderboardEntry, error)
}
