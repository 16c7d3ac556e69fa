package models

type Dashboard struct {
	UnreadNotifications int             `json:"unread_notifications"`
	LookingForPlayers   []EventCard     `json:"looking_for_players"`
	Activities          []*Notification `json:"activities"`
	UpcomingEvents      []EventCard     `json:"upcoming_events"`
}
