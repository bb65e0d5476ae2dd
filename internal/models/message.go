package models

import "time"

// Message is a single chat message between two users. Messages are immutable once stored.
type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
