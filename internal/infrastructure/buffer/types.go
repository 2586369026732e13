package buffer

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an outbound message and decides its drain priority.
type Kind string

const (
	KindReply     Kind = "reply"
	KindReminder  Kind = "reminder"
	KindBroadcast Kind = "broadcast"
)

var priorities = map[Kind]int{
	KindReply:     1,
	KindReminder:  3,
	KindBroadcast: 4,
}

// Item is an outbound chat message waiting for the gateway to come back.
type Item struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	Kind      Kind      `json:"kind"`
	Priority  int       `json:"priority"`
	Retries   int       `json:"retries"`
	LastError string    `json:"last_error,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Kind == "" {
		i.Kind = KindReply
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = priorities[i.Kind]
		if i.Priority == 0 {
			i.Priority = 3
		}
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
