package transport

import (
	"encoding/json"
	"strings"

	"github.com/fastygo/taskbot/domain"
)

const groupSuffix = "@g.us"

// baileysMessage is the shape emitted by Baileys-based gateways.
type baileysMessage struct {
	Key struct {
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	Message *struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage *struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
	PushName string `json:"pushName"`
}

// flatMessage is the minimal shape for gateways that pre-digest messages.
type flatMessage struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	Text     string `json:"text"`
	FromMe   bool   `json:"fromMe"`
	PushName string `json:"pushName"`
}

// NormalizeInbound decodes either accepted webhook shape. The sender handle
// is the address without its server suffix; group addresses keep it so they
// can be recognized and dropped.
func NormalizeInbound(body []byte) (domain.Message, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(body, &shape); err != nil {
		return domain.Message{}, domain.ErrInvalidPayload
	}

	if _, ok := shape["key"]; ok {
		var m baileysMessage
		if err := json.Unmarshal(body, &m); err != nil {
			return domain.Message{}, domain.ErrInvalidPayload
		}
		text := ""
		if m.Message != nil {
			text = m.Message.Conversation
			if text == "" && m.Message.ExtendedTextMessage != nil {
				text = m.Message.ExtendedTextMessage.Text
			}
		}
		return build(m.Key.ID, m.Key.RemoteJID, text, m.PushName, m.Key.FromMe), nil
	}

	var m flatMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return domain.Message{}, domain.ErrInvalidPayload
	}
	if m.From == "" {
		return domain.Message{}, domain.ErrInvalidPayload
	}
	return build(m.ID, m.From, m.Text, m.PushName, m.FromMe), nil
}

func build(id, address, text, pushName string, fromSelf bool) domain.Message {
	address = strings.TrimSpace(address)
	group := strings.HasSuffix(address, groupSuffix)
	sender := address
	if !group {
		if at := strings.IndexByte(address, '@'); at >= 0 {
			sender = address[:at]
		}
		// Multi-device addresses carry ":<device>" before the server part.
		if colon := strings.IndexByte(sender, ':'); colon >= 0 {
			sender = sender[:colon]
		}
	}
	return domain.Message{
		ID:       id,
		Sender:   sender,
		Text:     text,
		PushName: pushName,
		FromSelf: fromSelf,
		Group:    group,
	}
}
