package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskbot/api/transport"
	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/pkg/httpcontext"
	appLogger "github.com/fastygo/taskbot/pkg/logger"
	"github.com/fastygo/taskbot/repository"
	"github.com/fastygo/taskbot/usecase"
	"github.com/fastygo/taskbot/usecase/session"
)

const headerWebhookToken = "X-Webhook-Token"

// Conversation is the part of the session engine the webhook drives.
type Conversation interface {
	Handle(ctx context.Context, msg domain.Message) (session.Reply, error)
}

type WebhookHandler struct {
	baseHandler
	engine Conversation
	sender usecase.Sender
	dedup  repository.DeliveryLog
	token  string
}

// NewWebhookHandler builds the inbound message endpoint. dedup may be nil and
// an empty token disables the header check.
func NewWebhookHandler(engine Conversation, sender usecase.Sender, dedup repository.DeliveryLog, token string, adapter *httpcontext.Adapter, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		baseHandler: newBaseHandler(adapter, logger),
		engine:      engine,
		sender:      sender,
		dedup:       dedup,
		token:       token,
	}
}

// @Summary Receive an inbound chat message
// @Tags webhook
// @Router /api/v1/webhook/messages [post]
func (h *WebhookHandler) Receive(ctx *fasthttp.RequestCtx) {
	if !h.authorized(ctx) {
		h.respondError(ctx, domain.ErrUnauthorized)
		return
	}

	msg, err := transport.NormalizeInbound(ctx.PostBody())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	stdCtx = appLogger.ContextWithUser(stdCtx, msg.Sender)
	log := appLogger.WithRequestID(stdCtx, h.logger)

	if h.duplicate(stdCtx, msg, log) {
		h.respondSuccess(ctx, http.StatusOK, transport.WebhookReply{MessageID: msg.ID, Ignored: "duplicate"})
		return
	}

	reply, err := h.engine.Handle(stdCtx, msg)
	if err == nil || errors.Is(err, session.ErrNotProcessable) {
		h.record(stdCtx, msg, log)
	}
	if errors.Is(err, session.ErrNotProcessable) {
		h.respondSuccess(ctx, http.StatusOK, transport.WebhookReply{MessageID: msg.ID, Ignored: ignoredReason(msg)})
		return
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if err := h.sender.Send(stdCtx, reply.To, reply.Text); err != nil {
		log.Error("reply not delivered", zap.Error(err))
	}
	h.respondSuccess(ctx, http.StatusOK, transport.WebhookReply{
		MessageID: msg.ID,
		To:        reply.To,
		Reply:     reply.Text,
	})
}

func (h *WebhookHandler) authorized(ctx *fasthttp.RequestCtx) bool {
	if h.token == "" {
		return true
	}
	got := ctx.Request.Header.Peek(headerWebhookToken)
	return subtle.ConstantTimeCompare(got, []byte(h.token)) == 1
}

func (h *WebhookHandler) duplicate(ctx context.Context, msg domain.Message, log *zap.Logger) bool {
	if h.dedup == nil || msg.ID == "" {
		return false
	}
	seen, err := h.dedup.Seen(ctx, msg.ID)
	if err != nil {
		log.Warn("duplicate check failed", zap.String("message_id", msg.ID), zap.Error(err))
		return false
	}
	return seen
}

// record runs after the engine so a failed attempt stays eligible for redelivery.
func (h *WebhookHandler) record(ctx context.Context, msg domain.Message, log *zap.Logger) {
	if h.dedup == nil || msg.ID == "" {
		return
	}
	if err := h.dedup.Record(ctx, msg.ID); err != nil {
		log.Warn("delivery not recorded", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

func ignoredReason(msg domain.Message) string {
	switch {
	case msg.FromSelf:
		return "self"
	case msg.Group:
		return "group"
	default:
		return "empty"
	}
}
