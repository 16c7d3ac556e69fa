package models

import (
	"fmt"
	"time"
)

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

const (
	DefaultGroupName      = "New group"
	ConversationStartText = "Chat started"
)

type Conversation struct {
	ID              int              `json:"id"`
	Type            ConversationType `json:"type"`
	Name            *string          `json:"name,omitempty"`
	ImageURL        *string          `json:"image_url,omitempty"`
	CreatedBy       int              `json:"created_by"`
	DirectKey       *string          `json:"-"`
	LastMessage     *string          `json:"last_message,omitempty"`
	LastMessageTime time.Time        `json:"last_message_time"`
	CreatedAt       time.Time        `json:"created_at"`
}

// DirectKey builds the order-independent key identifying the direct conversation of two users.
func DirectKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

type ConversationParticipant struct {
	ConversationID    int          `json:"conversation_id"`
	UserID            int          `json:"user_id"`
	LastReadMessageID int64        `json:"last_read_message_id"`
	JoinedAt          time.Time    `json:"joined_at"`
	User              *UserSummary `json:"user,omitempty"`
}

// ConversationSummary is one row of the viewer's inbox.
type ConversationSummary struct {
	ID              int              `json:"id"`
	Type            ConversationType `json:"type"`
	Title           string           `json:"title"`
	AvatarURL       string           `json:"avatar_url"`
	LastMessage     string           `json:"last_message"`
	LastMessageTime time.Time        `json:"last_message_time"`
	UnreadCount     int              `json:"unread_count"`
	// OtherUserID is set for direct conversations only.
	OtherUserID *int `json:"other_user_id,omitempty"`
}

type ConversationDetails struct {
	Conversation *Conversation              `json:"conversation"`
	Participants []*ConversationParticipant `json:"participants"`
}
