package transport

import (
	"time"

	"github.com/fastygo/taskbot/domain"
)

type BroadcastRequest struct {
	Message           string `json:"message"`
	Urgent            bool   `json:"urgent"`
	IncludeMotivation bool   `json:"includeMotivation"`
}

type StatusRequest struct {
	Active *bool `json:"isActive"`
}

type SettingsRequest struct {
	MorningTime string `json:"morningTime"`
	EveningTime string `json:"eveningTime"`
	MaxStrikes  int    `json:"maxStrikes"`
}

func (r SettingsRequest) Settings() *domain.Settings {
	return &domain.Settings{
		MorningTime: r.MorningTime,
		EveningTime: r.EveningTime,
		MaxStrikes:  r.MaxStrikes,
	}
}

// WebhookReply is returned to the gateway for every accepted inbound message.
type WebhookReply struct {
	MessageID string `json:"messageId,omitempty"`
	To        string `json:"to,omitempty"`
	Reply     string `json:"reply,omitempty"`
	Ignored   string `json:"ignored,omitempty"`
}

type StrikeResponse struct {
	UserID  string `json:"userId"`
	Strikes int    `json:"strikes"`
}

// Validate checks the optional HH:MM times and the strike limit.
func (r SettingsRequest) Validate() error {
	for _, value := range []string{r.MorningTime, r.EveningTime} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("15:04", value); err != nil {
			return domain.ErrInvalidFormat
		}
	}
	if r.MaxStrikes < 0 {
		return domain.ErrInvalidFormat
	}
	return nil
}
