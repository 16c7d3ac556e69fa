package models

import "time"

const DefaultMatchResult = "DRAW"

type MatchResult struct {
	EventID    int       `json:"event_id"`
	Score      string    `json:"score"`
	Result     string    `json:"result"`
	Details    string    `json:"details"`
	RecordedAt time.Time `json:"recorded_at"`
}
