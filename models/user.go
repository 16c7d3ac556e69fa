package models

import "time"

const (
	DefaultUserLevel  = "beginner"
	DefaultUserStatus = "approved"
)

type User struct {
	ID            int       `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"full_name"`
	Position      *string   `json:"position,omitempty"`
	Level         string    `json:"level"`
	Status        string    `json:"status"`
	Bio           *string   `json:"bio,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	BirthDate     *string   `json:"birth_date,omitempty"`
	Gender        *string   `json:"gender,omitempty"`
	Instagram     *string   `json:"instagram,omitempty"`
	Twitter       *string   `json:"twitter,omitempty"`
	TikTok        *string   `json:"tiktok,omitempty"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	CoverURL      *string   `json:"cover_url,omitempty"`
	MatchesPlayed int       `json:"matches_played"`
	Goals         int       `json:"goals"`
	Assists       int       `json:"assists"`
	FairplayScore float64   `json:"fairplay_score"`
	PushToken     *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserSummary is the compact form embedded in participant and member lists.
type UserSummary struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// ProfileUpdate carries only the fields the caller wants to change; nil means "leave as is".
type ProfileUpdate struct {
	FullName  *string `json:"full_name"`
	Username  *string `json:"username"`
	Position  *string `json:"position"`
	Level     *string `json:"level"`
	Bio       *string `json:"bio"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender"`
	Instagram *string `json:"instagram"`
	Twitter   *string `json:"twitter"`
	TikTok    *string `json:"tiktok"`
	AvatarURL *string `json:"avatar_url"`
	CoverURL  *string `json:"cover_url"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.FullName == nil && p.Username == nil && p.Position == nil && p.Level == nil &&
		p.Bio == nil && p.Phone == nil && p.BirthDate == nil && p.Gender == nil &&
		p.Instagram == nil && p.Twitter == nil && p.TikTok == nil &&
		p.AvatarURL == nil && p.CoverURL == nil
}

type Profile struct {
	User    *User          `json:"user"`
	History []MatchSummary `json:"history"`
}
