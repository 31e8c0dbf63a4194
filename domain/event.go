package domain

// Event names pushed to live connections. tasksUpdated carries no payload:
// it is a coarse invalidation signal, clients refetch what they display.
const (
	EventReceiveMessage      = "receiveMessage"
	EventChatNotification    = "chatNotification"
	EventFriendRequest       = "friendRequest"
	EventTasksUpdated        = "tasksUpdated"
	EventTaskAlert           = "taskAlert"
	EventConfirmationRequest = "confirmationRequest"
	EventAdvisory            = "advisory"
)

// Event is the envelope written to a live connection.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ChatNotification is pushed to an online recipient of a direct message.
type ChatNotification struct {
	FromUser string `json:"from_user"`
	Username string `json:"username,omitempty"`
	Content  string `json:"content"`
}

// FriendRequestNotice is pushed to an online recipient of a friend request.
// There is no offline durability for this class of event: pending requests
// remain queryable through the social graph itself.
type FriendRequestNotice struct {
	FromUser string `json:"from_user"`
	Username string `json:"username,omitempty"`
}

// TaskAlert is an informational deadline or timer notice.
type TaskAlert struct {
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
	Band      string `json:"band"`
	Message   string `json:"message"`
}

// ConfirmationRequest asks whether a timed task is actually finished. It is
// derived from task state on every reconciliation pass, never stored.
type ConfirmationRequest struct {
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
	StartedAt int64  `json:"started_at"`
}

// Advisory is the single user-visible failure message for an operation.
type Advisory struct {
	Message string `json:"message"`
}
