package social

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// Notifier pushes a social event to a recipient's live connection, if any.
type Notifier interface {
	NotifySocialEvent(to string, event domain.Event)
}

// FriendLists splits a user's friend edges into the views the UI renders.
type FriendLists struct {
	Friends []domain.Friend `json:"friends"`
	Pending []domain.Friend `json:"pending_requests"`
}

// UseCase covers the friend graph, conversation history and the leaderboard.
type UseCase struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	notifier Notifier
	logger   *zap.Logger
}

func New(users repository.UserRepository, messages repository.MessageRepository, notifier Notifier, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		messages: messages,
		notifier: notifier,
		logger:   logger,
	}
}

func (uc *UseCase) Search(ctx context.Context, userID, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return uc.users.Search(ctx, userID, query, 10)
}

// SendRequest creates both friend edges and notifies the recipient if they
// are online. The live toast is best-effort; the pending edge itself is the
// durable record.
func (uc *UseCase) SendRequest(ctx context.Context, senderID, recipientID string) error {
	if senderID == "" || recipientID == "" || senderID == recipientID {
		return domain.ErrInvalidPayload
	}
	if err := uc.users.CreateFriendRequest(ctx, senderID, recipientID); err != nil {
		return err
	}

	if uc.notifier != nil {
		notice := domain.FriendRequestNotice{FromUser: senderID}
		if sender, err := uc.users.GetByID(ctx, senderID); err == nil {
			notice.Username = sender.Username
		}
		uc.notifier.NotifySocialEvent(recipientID, domain.Event{
			Type:    domain.EventFriendRequest,
			Payload: notice,
		})
	}
	return nil
}

func (uc *UseCase) Accept(ctx context.Context, recipientID, senderID string) error {
	return uc.users.AcceptFriendRequest(ctx, recipientID, senderID)
}

func (uc *UseCase) Friends(ctx context.Context, userID string) (*FriendLists, error) {
	edges, err := uc.users.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	lists := &FriendLists{}
	for _, f := range edges {
		switch f.Status {
		case domain.FriendAccepted:
			lists.Friends = append(lists.Friends, f)
		case domain.FriendPending:
			lists.Pending = append(lists.Pending, f)
		}
	}
	return lists, nil
}

func (uc *UseCase) ChatHistory(ctx context.Context, userID, peerID string, limit int) ([]domain.Message, error) {
	return uc.messages.ListConversation(ctx, userID, peerID, limit)
}

func (uc *UseCase) Progress(ctx context.Context, userID string) ([]domain.FriendProgress, error) {
	start, end := dayBounds(time.Now())
	return uc.users.FriendProgress(ctx, userID, start, end)
}

func (uc *UseCase) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	start, end := dayBounds(time.Now())
	return uc.users.Leaderboard(ctx, 10, start, end)
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}
