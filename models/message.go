package models

import "time"

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int       `json:"conversation_id"`
	SenderID       int       `json:"sender_id"`
	Content        string    `json:"content"`
	ClientToken    *string   `json:"client_token,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Per-viewer fields, filled on listing.
	SenderName   string  `json:"sender_name,omitempty"`
	SenderAvatar *string `json:"sender_avatar,omitempty"`
	IsMe         bool    `json:"is_me"`
	IsRead       bool    `json:"is_read"`
}
