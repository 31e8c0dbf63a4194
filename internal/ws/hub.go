package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/presence"
	"github.com/tasknest/backend/internal/reconciler"
)

// Relay is the chat-side surface the hub drives from inbound frames.
type Relay interface {
	SendDirectMessage(ctx context.Context, from, to, content, room string) (*domain.Message, error)
	MarkRead(ctx context.Context, userID, peerID string) error
}

// TimerActions resolves an expired-timer confirmation against the task store.
type TimerActions interface {
	Complete(ctx context.Context, userID, taskID string) (*domain.Task, error)
	Revert(ctx context.Context, userID, taskID string) (*domain.Task, error)
}

const routeTimeout = 10 * time.Second

// Hub owns every live session: the presence registry, the two-party
// conversation rooms, and inbound frame dispatch. The relay and timer
// surfaces are attached after construction because they broadcast back
// through the hub.
type Hub struct {
	registry *presence.Registry
	logger   *zap.Logger

	relay  Relay
	timers TimerActions

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(registry *presence.Registry, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		registry: registry,
		logger:   logger,
		rooms:    make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Attach(relay Relay, timers TimerActions) {
	h.relay = relay
	h.timers = timers
}

func (h *Hub) attach(c *Client) {
	h.registry.Register(c.userID, c)
}

func (h *Hub) detach(c *Client) {
	h.registry.Unregister(c)
	h.mu.Lock()
	for _, room := range c.joinedRooms() {
		if members := h.rooms[room]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()
}

func (h *Hub) join(room string, c *Client) {
	if room == "" {
		return
	}
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	h.mu.Unlock()
	c.trackRoom(room)
}

// ToRoom fans an event out to every member of a conversation room.
func (h *Hub) ToRoom(room string, event domain.Event) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()
	for _, c := range members {
		if err := c.Send(event); err != nil {
			h.logger.Debug("room delivery failed",
				zap.String("room", room), zap.String("user_id", c.userID), zap.Error(err))
		}
	}
}

// ToAll pushes an event to every connected session.
func (h *Hub) ToAll(event domain.Event) {
	for _, handle := range h.registry.Handles() {
		if err := handle.Send(event); err != nil {
			h.logger.Debug("broadcast delivery failed",
				zap.String("user_id", handle.UserID()), zap.Error(err))
		}
	}
}

// Viewers exposes the connected sessions to the deadline reconciler.
func (h *Hub) Viewers() []reconciler.Viewer {
	handles := h.registry.Handles()
	viewers := make([]reconciler.Viewer, 0, len(handles))
	for _, handle := range handles {
		if c, ok := handle.(*Client); ok {
			viewers = append(viewers, c)
		}
	}
	return viewers
}

func (h *Hub) route(c *Client, data []byte) {
	var frame inbound
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Debug("malformed frame", zap.String("user_id", c.userID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
	defer cancel()

	switch frame.Type {
	case "joinRoom":
		var p joinRoomPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		h.join(p.Room, c)

	case "sendMessage":
		var p sendMessagePayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		// The authenticated session, not the frame, decides the sender.
		if _, err := h.relay.SendDirectMessage(ctx, c.userID, p.To, p.Content, p.Room); err != nil {
			h.logger.Warn("message send failed",
				zap.String("from", c.userID), zap.String("to", p.To), zap.Error(err))
			_ = c.Send(domain.Event{
				Type:    domain.EventAdvisory,
				Payload: domain.Advisory{Message: "Message could not be delivered"},
			})
		}

	case "markRead":
		var p markReadPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		if err := h.relay.MarkRead(ctx, c.userID, p.Peer); err != nil {
			h.logger.Warn("mark read failed",
				zap.String("user_id", c.userID), zap.String("peer", p.Peer), zap.Error(err))
		}

	case "resolveConfirmation":
		var p resolveConfirmationPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			return
		}
		h.resolveConfirmation(ctx, c, p)

	default:
		h.logger.Debug("unknown frame type",
			zap.String("user_id", c.userID), zap.String("type", frame.Type))
	}
}

// resolveConfirmation settles an expired-timer prompt. The ledger is marked
// resolved for every action, including dismiss, so the same cycle never
// prompts again; only done and revert touch the task itself.
func (h *Hub) resolveConfirmation(ctx context.Context, c *Client, p resolveConfirmationPayload) {
	var err error
	switch p.Action {
	case "done":
		_, err = h.timers.Complete(ctx, c.userID, p.TaskID)
	case "revert":
		_, err = h.timers.Revert(ctx, c.userID, p.TaskID)
	case "dismiss":
	default:
		h.logger.Debug("unknown confirmation action",
			zap.String("user_id", c.userID), zap.String("action", p.Action))
		return
	}
	if err != nil {
		h.logger.Warn("confirmation action failed",
			zap.String("user_id", c.userID), zap.String("task_id", p.TaskID),
			zap.String("action", p.Action), zap.Error(err))
		return
	}
	c.ledger.Resolve(p.TaskID)
}
