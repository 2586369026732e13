package usecase

import (
	"context"
	"time"

	"github.com/fastygo/taskbot/domain"
)

// Sender delivers one text message to a handle.
type Sender interface {
	Send(ctx context.Context, handle, text string) error
}

// Clock supplies wall time in the bot's configured location.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c Clock) Time() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if c.Location == nil {
		return now()
	}
	return now().In(c.Location)
}

// Today returns the current calendar date used for daily grouping.
func (c Clock) Today() string {
	return c.Time().Format(domain.DateLayout)
}
