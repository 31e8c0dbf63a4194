package relay

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/presence"
	"github.com/tasknest/backend/repository"
)

// RoomBroadcaster fans an event out to every member of a conversation room.
type RoomBroadcaster interface {
	ToRoom(room string, event domain.Event)
}

// Service routes chat messages and social events to live connections, and
// accumulates durable unread state for recipients that are offline.
type Service struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	registry *presence.Registry
	rooms    RoomBroadcaster
	logger   *zap.Logger
}

func New(
	messages repository.MessageRepository,
	users repository.UserRepository,
	registry *presence.Registry,
	rooms RoomBroadcaster,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		messages: messages,
		users:    users,
		registry: registry,
		rooms:    rooms,
		logger:   logger,
	}
}

// SendDirectMessage persists the message, then delivers it best-effort.
// Persistence failure aborts the whole send; once the message is durable,
// a failed socket write is swallowed because the recipient recovers it from
// history on next read.
func (s *Service) SendDirectMessage(ctx context.Context, from, to, content, room string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if from == "" || to == "" || content == "" {
		return nil, domain.ErrInvalidPayload
	}

	message := &domain.Message{FromUser: from, ToUser: to, Content: content}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to persist message", err)
	}

	if room != "" && s.rooms != nil {
		s.rooms.ToRoom(room, domain.Event{Type: domain.EventReceiveMessage, Payload: message})
	}

	if handle, online := s.registry.Lookup(to); online {
		notice := domain.ChatNotification{FromUser: from, Content: message.Content}
		if sender, err := s.users.GetByID(ctx, from); err == nil {
			notice.Username = sender.Username
		}
		if err := handle.Send(domain.Event{Type: domain.EventChatNotification, Payload: notice}); err != nil {
			s.logger.Debug("chat notification delivery failed",
				zap.String("to", to), zap.Error(err))
		}
		return message, nil
	}

	// Offline recipient: one atomic counter bump, read back on next open.
	if err := s.users.IncrementUnread(ctx, to, from); err != nil {
		s.logger.Warn("unread counter update failed",
			zap.String("to", to), zap.String("from", from), zap.Error(err))
	}
	return message, nil
}

// NotifySocialEvent delivers a social event only if the recipient is online.
// There is deliberately no offline durability here: the social graph itself
// remains queryable, so a missed live toast is acceptable.
func (s *Service) NotifySocialEvent(to string, event domain.Event) {
	handle, online := s.registry.Lookup(to)
	if !online {
		return
	}
	if err := handle.Send(event); err != nil {
		s.logger.Debug("social event delivery failed",
			zap.String("to", to), zap.String("event", event.Type), zap.Error(err))
	}
}

// MarkRead zeroes the unread counter the user holds against the peer.
func (s *Service) MarkRead(ctx context.Context, userID, peerID string) error {
	return s.users.ResetUnread(ctx, userID, peerID)
}
