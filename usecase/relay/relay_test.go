package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/presence"
)

type fakeMessageRepo struct {
	created []domain.Message
	failOn  error
}

func (r *fakeMessageRepo) Create(_ context.Context, m *domain.Message) error {
	if r.failOn != nil {
		return r.failOn
	}
	m.ID = "m1"
	m.CreatedAt = time.Now()
	r.created = append(r.created, *m)
	return nil
}

func (r *fakeMessageRepo) ListConversation(context.Context, string, string, int) ([]domain.Message, error) {
	return r.created, nil
}

type fakeUserRepo struct {
	unread map[string]int // key "user|peer"
	users  map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{unread: make(map[string]int), users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (r *fakeUserRepo) Upsert(context.Context, *domain.User) error { return nil }
func (r *fakeUserRepo) Search(context.Context, string, string, int) ([]domain.User, error) {
	return nil, nil
}
func (r *fakeUserRepo) CreateFriendRequest(context.Context, string, string) error { return nil }
func (r *fakeUserRepo) AcceptFriendRequest(context.Context, string, string) error { return nil }
func (r *fakeUserRepo) ListFriends(context.Context, string) ([]domain.Friend, error) {
	return nil, nil
}

func (r *fakeUserRepo) IncrementUnread(_ context.Context, userID, peerID string) error {
	r.unread[userID+"|"+peerID]++
	return nil
}

func (r *fakeUserRepo) ResetUnread(_ context.Context, userID, peerID string) error {
	r.unread[userID+"|"+peerID] = 0
	return nil
}

func (r *fakeUserRepo) FriendProgress(context.Context, string, time.Time, time.Time) ([]domain.FriendProgress, error) {
	return nil, nil
}

func (r *fakeUserRepo) Leaderboard(context.Context, int, time.Time, time.Time) ([]domain.LeaderboardEntry, error) {
	return nil, nil
}

type fakeHandle struct {
	userID  string
	events  []domain.Event
	sendErr error
}

func (h *fakeHandle) UserID() string { return h.userID }

func (h *fakeHandle) Send(ev domain.Event) error {
	if h.sendErr != nil {
		return h.sendErr
	}
	h.events = append(h.events, ev)
	return nil
}

type fakeRooms struct {
	broadcasts map[string][]domain.Event
}

func newFakeRooms() *fakeRooms { return &fakeRooms{broadcasts: make(map[string][]domain.Event)} }

func (f *fakeRooms) ToRoom(room string, ev domain.Event) {
	f.broadcasts[room] = append(f.broadcasts[room], ev)
}

func TestSendDirectMessageOffline(t *testing.T) {
	messages := &fakeMessageRepo{}
	users := newFakeUserRepo()
	registry := presence.NewRegistry()
	rooms := newFakeRooms()
	svc := New(messages, users, registry, rooms, nil)

	msg, err := svc.SendDirectMessage(context.Background(), "alice", "bob", "hi", "alice:bob")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected persisted message")
	}
	if got := users.unread["bob|alice"]; got != 1 {
		t.Fatalf("expected bob's unread counter for alice to be 1, got %d", got)
	}
	// Room broadcast still happens (the sender's own pane), but no live
	// notification can have reached bob.
	if len(rooms.broadcasts["alice:bob"]) != 1 {
		t.Fatalf("expected room broadcast, got %d", len(rooms.broadcasts["alice:bob"]))
	}
}

func TestSendDirectMessageOnline(t *testing.T) {
	messages := &fakeMessageRepo{}
	users := newFakeUserRepo()
	users.users["alice"] = &domain.User{ID: "alice", Username: "alice"}
	registry := presence.NewRegistry()
	bob := &fakeHandle{userID: "bob"}
	registry.Register("bob", bob)
	svc := New(messages, users, registry, newFakeRooms(), nil)

	if _, err := svc.SendDirectMessage(context.Background(), "alice", "bob", "hi", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(bob.events) != 1 || bob.events[0].Type != domain.EventChatNotification {
		t.Fatalf("expected one chatNotification, got %+v", bob.events)
	}
	notice := bob.events[0].Payload.(domain.ChatNotification)
	if notice.Username != "alice" || notice.Content != "hi" {
		t.Fatalf("unexpected notification payload %+v", notice)
	}
	if got := users.unread["bob|alice"]; got != 0 {
		t.Fatalf("online delivery must not touch unread counters, got %d", got)
	}
}

func TestSendDirectMessagePersistenceFailureAborts(t *testing.T) {
	messages := &fakeMessageRepo{failOn: errors.New("db down")}
	users := newFakeUserRepo()
	registry := presence.NewRegistry()
	rooms := newFakeRooms()
	svc := New(messages, users, registry, rooms, nil)

	if _, err := svc.SendDirectMessage(context.Background(), "alice", "bob", "hi", "alice:bob"); err == nil {
		t.Fatal("persistence failure must surface to the sender")
	}
	if len(rooms.broadcasts) != 0 {
		t.Fatal("nothing may be delivered when persistence fails")
	}
	if got := users.unread["bob|alice"]; got != 0 {
		t.Fatal("unread counter must stay untouched on aborted send")
	}
}

func TestSendDirectMessageDeliveryFailureSwallowed(t *testing.T) {
	messages := &fakeMessageRepo{}
	users := newFakeUserRepo()
	registry := presence.NewRegistry()
	registry.Register("bob", &fakeHandle{userID: "bob", sendErr: errors.New("broken pipe")})
	svc := New(messages, users, registry, newFakeRooms(), nil)

	msg, err := svc.SendDirectMessage(context.Background(), "alice", "bob", "hi", "")
	if err != nil {
		t.Fatalf("socket write failure must not fail the send: %v", err)
	}
	if msg == nil {
		t.Fatal("message must still be durable")
	}
}

func TestNotifySocialEventOfflineIsDropped(t *testing.T) {
	svc := New(&fakeMessageRepo{}, newFakeUserRepo(), presence.NewRegistry(), newFakeRooms(), nil)
	// Must not panic or block for an offline recipient.
	svc.NotifySocialEvent("bob", domain.Event{Type: domain.EventFriendRequest})
}

func TestMarkRead(t *testing.T) {
	users := newFakeUserRepo()
	users.unread["bob|alice"] = 4
	svc := New(&fakeMessageRepo{}, users, presence.NewRegistry(), newFakeRooms(), nil)

	if err := svc.MarkRead(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if users.unread["bob|alice"] != 0 {
		t.Fatal("expected unread counter reset")
	}
}
