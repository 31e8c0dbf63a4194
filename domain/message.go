package domain

import "time"

// Message is a direct chat message between two users. Messages are immutable
// once created; CreatedAt is the conversation ordering key.
type Message struct {
	ID        string    `json:"id"`
	FromUser  string    `json:"from_user"`
	ToUser    string    `json:"to_user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
