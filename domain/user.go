package domain

import "time"

// FriendStatus tracks the state of one side of a friend edge.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendSent     FriendStatus = "sent"
	FriendAccepted FriendStatus = "accepted"
)

// Friend is one entry in a user's friend list. UnreadCount accumulates chat
// messages received from the peer while the owner was offline or away.
type Friend struct {
	PeerID      string       `json:"peer_id"`
	Username    string       `json:"username,omitempty"`
	Status      FriendStatus `json:"status"`
	UnreadCount int          `json:"unread_count"`
}

// User represents an account with its gamification state.
type User struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Points             int        `json:"points"`
	Streak             int        `json:"streak"`
	LastCompletionDate *time.Time `json:"last_completion_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// LeaderboardEntry is a ranked row on the points leaderboard.
type LeaderboardEntry struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Points         int    `json:"points"`
	CompletedToday int    `json:"completed_today"`
}

// FriendProgress reports how many tasks a friend completed today.
type FriendProgress struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	CompletedToday int    `json:"completed_today"`
}
