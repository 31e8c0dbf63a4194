package social

import (
	"context"
	"testing"
	"time"

	"github.com/tasknest/backend/domain"
)

type memUserRepo struct {
	users    map[string]*domain.User
	friends  map[string][]domain.Friend
	requests [][2]string
	accepts  [][2]string
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:   make(map[string]*domain.User),
		friends: make(map[string][]domain.Friend),
	}
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserRepo) Upsert(_ context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) Search(_ context.Context, _, query string, _ int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		if u.Username == query {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUserRepo) CreateFriendRequest(_ context.Context, senderID, recipientID string) error {
	m.requests = append(m.requests, [2]string{senderID, recipientID})
	return nil
}

func (m *memUserRepo) AcceptFriendRequest(_ context.Context, recipientID, senderID string) error {
	m.accepts = append(m.accepts, [2]string{recipientID, senderID})
	return nil
}

func (m *memUserRepo) ListFriends(_ context.Context, userID string) ([]domain.Friend, error) {
	return m.friends[userID], nil
}

func (m *memUserRepo) IncrementUnread(_ context.Context, _, _ string) error { return nil }
func (m *memUserRepo) ResetUnread(_ context.Context, _, _ string) error     { return nil }

func (m *memUserRepo) FriendProgress(_ context.Context, _ string, _, _ time.Time) ([]domain.FriendProgress, error) {
	return nil, nil
}

func (m *memUserRepo) Leaderboard(_ context.Context, _ int, _, _ time.Time) ([]domain.LeaderboardEntry, error) {
	return nil, nil
}

type memMessageRepo struct {
	messages []domain.Message
}

func (m *memMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memMessageRepo) ListConversation(_ context.Context, userID, peerID string, _ int) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range m.messages {
		if (msg.FromUser == userID && msg.ToUser == peerID) || (msg.FromUser == peerID && msg.ToUser == userID) {
			out = append(out, msg)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	to     []string
	events []domain.Event
}

func (r *recordingNotifier) NotifySocialEvent(to string, event domain.Event) {
	r.to = append(r.to, to)
	r.events = append(r.events, event)
}

func TestSendRequestNotifiesRecipient(t *testing.T) {
	users := newMemUserRepo()
	users.users["alice"] = &domain.User{ID: "alice", Username: "alice_a"}
	users.users["bob"] = &domain.User{ID: "bob", Username: "bob_b"}
	notifier := &recordingNotifier{}
	uc := New(users, &memMessageRepo{}, notifier, nil)

	if err := uc.SendRequest(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if len(users.requests) != 1 || users.requests[0] != [2]string{"alice", "bob"} {
		t.Fatalf("requests = %v", users.requests)
	}
	if len(notifier.events) != 1 || notifier.to[0] != "bob" {
		t.Fatalf("expected one notification to bob, got %v", notifier.to)
	}
	if notifier.events[0].Type != domain.EventFriendRequest {
		t.Fatalf("event type = %q", notifier.events[0].Type)
	}
	notice, ok := notifier.events[0].Payload.(domain.FriendRequestNotice)
	if !ok || notice.Username != "alice_a" {
		t.Fatalf("payload = %#v", notifier.events[0].Payload)
	}
}

func TestSendRequestToSelfRejected(t *testing.T) {
	users := newMemUserRepo()
	uc := New(users, &memMessageRepo{}, &recordingNotifier{}, nil)

	if err := uc.SendRequest(context.Background(), "alice", "alice"); err != domain.ErrInvalidPayload {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
	if len(users.requests) != 0 {
		t.Fatal("self request must not reach the repository")
	}
}

func TestFriendsSplitsByStatus(t *testing.T) {
	users := newMemUserRepo()
	users.friends["alice"] = []domain.Friend{
		{PeerID: "bob", Status: domain.FriendAccepted},
		{PeerID: "carol", Status: domain.FriendPending},
		{PeerID: "dave", Status: domain.FriendSent},
	}
	uc := New(users, &memMessageRepo{}, nil, nil)

	lists, err := uc.Friends(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Friends: %v", err)
	}
	if len(lists.Friends) != 1 || lists.Friends[0].PeerID != "bob" {
		t.Fatalf("friends = %v", lists.Friends)
	}
	if len(lists.Pending) != 1 || lists.Pending[0].PeerID != "carol" {
		t.Fatalf("pending = %v", lists.Pending)
	}
}

func TestSearchBlankQueryReturnsNothing(t *testing.T) {
	users := newMemUserRepo()
	users.users["bob"] = &domain.User{ID: "bob", Username: "bob_b"}
	uc := New(users, &memMessageRepo{}, nil, nil)

	found, err := uc.Search(context.Background(), "alice", "   ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("found = %v, want empty", found)
	}
}
