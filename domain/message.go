package domain

import "strings"

// Message is a normalized inbound chat message.
type Message struct {
	ID       string
	Sender   string
	Text     string
	PushName string
	FromSelf bool
	Group    bool
}

// Processable reports whether the core should handle the message at all.
func (m Message) Processable() bool {
	return !m.FromSelf && !m.Group && m.Sender != "" && strings.TrimSpace(m.Text) != ""
}
