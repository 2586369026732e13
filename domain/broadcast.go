package domain

import "time"

// Broadcast records an administrator announcement. Records are append-only.
type Broadcast struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Recipients int       `json:"recipients"`
	Urgent     bool      `json:"urgent"`
}

// Settings is the bot configuration document maintained from the dashboard.
type Settings struct {
	MorningTime string `json:"morningTime,omitempty"`
	EveningTime string `json:"eveningTime,omitempty"`
	MaxStrikes  int    `json:"maxStrikes,omitempty"`
}
