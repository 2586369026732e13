package services

import (
	"context"

	"github.com/fastygo/taskbot/internal/infrastructure/buffer"
	"github.com/fastygo/taskbot/usecase"
)

// kindSender tags every message it sends so buffered retries keep their priority.
type kindSender struct {
	outbox *Outbox
	kind   buffer.Kind
}

// As returns a Sender whose messages are buffered with the given kind.
func (o *Outbox) As(kind buffer.Kind) usecase.Sender {
	return &kindSender{outbox: o, kind: kind}
}

func (s *kindSender) Send(ctx context.Context, handle, text string) error {
	return s.outbox.Deliver(ctx, buffer.Item{Recipient: handle, Text: text, Kind: s.kind})
}

var (
	_ usecase.Sender = (*Outbox)(nil)
	_ usecase.Sender = (*kindSender)(nil)
)
