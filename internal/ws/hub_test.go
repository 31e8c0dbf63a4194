package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/presence"
)

type fakeRelay struct {
	sentFrom, sentTo, sentContent, sentRoom string
	readUser, readPeer                      string
}

func (f *fakeRelay) SendDirectMessage(_ context.Context, from, to, content, room string) (*domain.Message, error) {
	f.sentFrom, f.sentTo, f.sentContent, f.sentRoom = from, to, content, room
	return &domain.Message{FromUser: from, ToUser: to, Content: content}, nil
}

func (f *fakeRelay) MarkRead(_ context.Context, userID, peerID string) error {
	f.readUser, f.readPeer = userID, peerID
	return nil
}

type fakeTimers struct {
	completed, reverted []string
}

func (f *fakeTimers) Complete(_ context.Context, _ string, taskID string) (*domain.Task, error) {
	f.completed = append(f.completed, taskID)
	return &domain.Task{ID: taskID}, nil
}

func (f *fakeTimers) Revert(_ context.Context, _ string, taskID string) (*domain.Task, error) {
	f.reverted = append(f.reverted, taskID)
	return &domain.Task{ID: taskID}, nil
}

func frame(t *testing.T, typ string, payload interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	data, err := json.Marshal(inbound{Type: typ, Payload: raw})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return data
}

func drain(t *testing.T, c *Client) domain.Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev domain.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal outbound event: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no outbound event queued")
		return domain.Event{}
	}
}

func newTestHub() (*Hub, *fakeRelay, *fakeTimers) {
	hub := NewHub(presence.NewRegistry(), nil)
	relay := &fakeRelay{}
	timers := &fakeTimers{}
	hub.Attach(relay, timers)
	return hub, relay, timers
}

func TestRouteSendMessageUsesSessionIdentity(t *testing.T) {
	hub, relay, _ := newTestHub()
	client := newClient(hub, nil, "alice")
	hub.attach(client)

	hub.route(client, frame(t, "sendMessage", sendMessagePayload{
		From:    "mallory", // must be ignored
		To:      "bob",
		Content: "hi",
		Room:    "alice:bob",
	}))

	if relay.sentFrom != "alice" {
		t.Fatalf("sender = %q, want session user alice", relay.sentFrom)
	}
	if relay.sentTo != "bob" || relay.sentContent != "hi" || relay.sentRoom != "alice:bob" {
		t.Fatalf("unexpected relay call: %+v", relay)
	}
}

func TestJoinRoomThenToRoomFansOut(t *testing.T) {
	hub, _, _ := newTestHub()
	alice := newClient(hub, nil, "alice")
	bob := newClient(hub, nil, "bob")
	hub.attach(alice)
	hub.attach(bob)

	hub.route(alice, frame(t, "joinRoom", joinRoomPayload{Room: "alice:bob"}))
	hub.route(bob, frame(t, "joinRoom", joinRoomPayload{Room: "alice:bob"}))

	hub.ToRoom("alice:bob", domain.Event{Type: domain.EventReceiveMessage})

	for _, c := range []*Client{alice, bob} {
		if ev := drain(t, c); ev.Type != domain.EventReceiveMessage {
			t.Fatalf("%s got event %q, want %q", c.userID, ev.Type, domain.EventReceiveMessage)
		}
	}
}

func TestDetachLeavesRooms(t *testing.T) {
	hub, _, _ := newTestHub()
	alice := newClient(hub, nil, "alice")
	hub.attach(alice)
	hub.join("alice:bob", alice)

	hub.detach(alice)

	hub.ToRoom("alice:bob", domain.Event{Type: domain.EventReceiveMessage})
	select {
	case <-alice.send:
		t.Fatal("detached client still received room event")
	default:
	}
	if len(hub.Viewers()) != 0 {
		t.Fatalf("viewers = %d after detach, want 0", len(hub.Viewers()))
	}
}

func TestResolveConfirmationSettlesLedgerCycle(t *testing.T) {
	hub, _, timers := newTestHub()
	client := newClient(hub, nil, "alice")
	hub.attach(client)

	startedAt := time.Now().Add(-time.Hour)
	client.ledger.MarkPending("task-1", startedAt)

	hub.route(client, frame(t, "resolveConfirmation", resolveConfirmationPayload{
		TaskID: "task-1",
		Action: "done",
	}))

	if len(timers.completed) != 1 || timers.completed[0] != "task-1" {
		t.Fatalf("completed = %v, want [task-1]", timers.completed)
	}
	if client.ledger.ConfirmationDue("task-1", startedAt) {
		t.Fatal("resolved cycle still reports confirmation due")
	}
}

func TestResolveConfirmationDismissTouchesNoTask(t *testing.T) {
	hub, _, timers := newTestHub()
	client := newClient(hub, nil, "alice")
	hub.attach(client)

	startedAt := time.Now().Add(-time.Hour)
	client.ledger.MarkPending("task-1", startedAt)

	hub.route(client, frame(t, "resolveConfirmation", resolveConfirmationPayload{
		TaskID: "task-1",
		Action: "dismiss",
	}))

	if len(timers.completed) != 0 || len(timers.reverted) != 0 {
		t.Fatal("dismiss must not mutate the task")
	}
	if client.ledger.ConfirmationDue("task-1", startedAt) {
		t.Fatal("dismissed cycle still reports confirmation due")
	}
}

func TestRouteMarkRead(t *testing.T) {
	hub, relay, _ := newTestHub()
	client := newClient(hub, nil, "alice")
	hub.attach(client)

	hub.route(client, frame(t, "markRead", markReadPayload{Peer: "bob"}))

	if relay.readUser != "alice" || relay.readPeer != "bob" {
		t.Fatalf("mark read routed as (%q, %q)", relay.readUser, relay.readPeer)
	}
}

func TestMalformedFrameIsIgnored(t *testing.T) {
	hub, relay, _ := newTestHub()
	client := newClient(hub, nil, "alice")
	hub.attach(client)

	hub.route(client, []byte("not json"))
	hub.route(client, frame(t, "sendMessage", "wrong shape"))

	if relay.sentTo != "" {
		t.Fatal("malformed frame reached the relay")
	}
}
