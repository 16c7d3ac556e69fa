package models

import "time"

const (
	TeamRoleCaptain = "Captain"
	TeamRolePlayer  = "Player"
)

type Team struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	CaptainID   int       `json:"captain_id"`
	Description string    `json:"description"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`

	Members []*TeamMember `json:"members,omitempty"`
}

type TeamMember struct {
	TeamID   int          `json:"team_id"`
	UserID   int          `json:"user_id"`
	Role     string       `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
	User     *UserSummary `json:"user,omitempty"`
}
