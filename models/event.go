package models

import "time"

type EventStatus string

const (
	StatusUpcoming EventStatus = "upcoming"
	StatusPast     EventStatus = "past"
)

const (
	DefaultEventCategory = "Futbol"
	DefaultEventType     = "friendly"
	DefaultMaxPlayers    = 10
)

type Event struct {
	ID              int         `json:"id"`
	OrganizerID     int         `json:"organizer_id"`
	Title           string      `json:"title"`
	Subtitle        *string     `json:"subtitle,omitempty"`
	Category        string      `json:"category"`
	Type            string      `json:"type"`
	EventDate       time.Time   `json:"event_date"`
	Location        string      `json:"location"`
	Description     string      `json:"description"`
	Price           float64     `json:"price"`
	MaxParticipants int         `json:"max_participants"`
	BadgeText       *string     `json:"badge_text,omitempty"`
	Icon            *string     `json:"icon,omitempty"`
	ImageURL        *string     `json:"image_url,omitempty"`
	Status          EventStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}

// EventDetails is the full view of one event for a given viewer.
type EventDetails struct {
	Event        *Event              `json:"event"`
	Organizer    *UserSummary        `json:"organizer,omitempty"`
	Participants []*EventParticipant `json:"participants"`
	Result       *MatchResult        `json:"result,omitempty"`
	IsJoined     bool                `json:"is_joined"`
	IsOrganizer  bool                `json:"is_organizer"`
}

// EventCard is an event row with participation counters, used by explore and dashboard.
type EventCard struct {
	ID                  int       `json:"id"`
	Title               string    `json:"title"`
	Subtitle            *string   `json:"subtitle,omitempty"`
	Category            string    `json:"category"`
	Type                string    `json:"type"`
	EventDate           time.Time `json:"event_date"`
	Location            string    `json:"location"`
	Price               float64   `json:"price"`
	BadgeText           *string   `json:"badge_text,omitempty"`
	Icon                *string   `json:"icon,omitempty"`
	ImageURL            *string   `json:"image_url,omitempty"`
	CurrentParticipants int       `json:"current_participants"`
	MaxParticipants     int       `json:"max_participants"`
	Progress            int       `json:"progress"`
	IsJoined            bool      `json:"is_joined"`
}

// FillProgress computes the rounded join percentage; 0 when the event has no limit.
func (c *EventCard) FillProgress() {
	if c.MaxParticipants <= 0 {
		c.Progress = 0
		return
	}
	c.Progress = int(float64(c.CurrentParticipants)*100/float64(c.MaxParticipants) + 0.5)
}

// MatchSummary is an event from the perspective of one user in "my matches".
type MatchSummary struct {
	ID                  int         `json:"id"`
	Title               string      `json:"title"`
	Category            string      `json:"category"`
	EventDate           time.Time   `json:"event_date"`
	Location            string      `json:"location"`
	Status              EventStatus `json:"status"`
	Role                string      `json:"role"`
	CurrentParticipants int         `json:"current_participants"`
	MaxParticipants     int         `json:"max_participants"`
	Score               *string     `json:"score,omitempty"`
	Result              *string     `json:"result,omitempty"`
}

const (
	RoleOrganizer   = "organizer"
	RoleParticipant = "participant"
)

type Matches struct {
	Upcoming []MatchSummary `json:"upcoming"`
	Past     []MatchSummary `json:"past"`
}
