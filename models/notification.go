package models

import "time"

type NotificationType string

const (
	NotificationInvite NotificationType = "invite"
	NotificationSystem NotificationType = "system"
	NotificationAlert  NotificationType = "alert"
)

type NotificationFilter string

const (
	FilterAll     NotificationFilter = "all"
	FilterInvites NotificationFilter = "invites"
	FilterSystem  NotificationFilter = "system"
)

func (f NotificationFilter) Valid() bool {
	switch f {
	case FilterAll, FilterInvites, FilterSystem:
		return true
	}
	return false
}

const (
	InviteTitle          = "Match invite"
	DefaultInviteMessage = "invited you to a match"
)

type Notification struct {
	ID        int              `json:"id"`
	UserID    int              `json:"user_id"`
	SenderID  *int             `json:"sender_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	RelatedID *int             `json:"related_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`

	Sender *UserSummary `json:"sender,omitempty"`
}
