package models

import "time"

const ParticipantStatusJoined = "joined"

type EventParticipant struct {
	EventID     int          `json:"event_id"`
	UserID      int          `json:"user_id"`
	Status      string       `json:"status"`
	Position    *string      `json:"position,omitempty"`
	JoinedAt    time.Time    `json:"joined_at"`
	IsOrganizer bool         `json:"is_organizer"`
	User        *UserSummary `json:"user,omitempty"`
}
