package handler

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskbot/api/transport"
	"github.com/fastygo/taskbot/domain"
	"github.com/fastygo/taskbot/internal/services"
	"github.com/fastygo/taskbot/pkg/httpcontext"
	"github.com/fastygo/taskbot/repository"
	broadcastUC "github.com/fastygo/taskbot/usecase/broadcast"
	profileUC "github.com/fastygo/taskbot/usecase/profile"
	statsUC "github.com/fastygo/taskbot/usecase/stats"
	taskUC "github.com/fastygo/taskbot/usecase/task"
)

// AdminDeps groups what the dashboard endpoints act on.
type AdminDeps struct {
	Stats      *statsUC.UseCase
	Broadcasts *broadcastUC.UseCase
	Tasks      *taskUC.UseCase
	Profiles   *profileUC.UseCase
	Scheduler  *services.Scheduler
	Settings   repository.SettingsRepository
}

type AdminHandler struct {
	baseHandler
	deps AdminDeps
}

func NewAdminHandler(deps AdminDeps, adapter *httpcontext.Adapter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(adapter, logger),
		deps:        deps,
	}
}

// @Summary Leaderboard
// @Tags admin
// @Router /api/v1/admin/leaderboard [get]
func (h *AdminHandler) Leaderboard(ctx *fasthttp.RequestCtx) {
	period := domain.ParsePeriod(string(ctx.QueryArgs().Peek("period")))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.deps.Stats.Leaderboard(stdCtx, period)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}

// @Summary Team statistics
// @Tags admin
// @Router /api/v1/admin/stats [get]
func (h *AdminHandler) TeamStats(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.deps.Stats.TeamStats(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

// @Summary Team members
// @Tags admin
// @Router /api/v1/admin/members [get]
func (h *AdminHandler) Members(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	members, err := h.deps.Stats.TeamMembers(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, members)
}

// @Summary List broadcasts
// @Tags admin
// @Router /api/v1/admin/broadcasts [get]
func (h *AdminHandler) ListBroadcasts(ctx *fasthttp.RequestCtx) {
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 20)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	records, err := h.deps.Broadcasts.List(stdCtx, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(records, transport.ListMeta{Count: len(records), Limit: limit}))
}

// @Summary Send a broadcast
// @Tags admin
// @Router /api/v1/admin/broadcasts [post]
func (h *AdminHandler) SendBroadcast(ctx *fasthttp.RequestCtx) {
	var req transport.BroadcastRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	record, err := h.deps.Broadcasts.Start(stdCtx, req.Message, broadcastUC.Options{
		Urgent:            req.Urgent,
		IncludeMotivation: req.IncludeMotivation,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, record)
}

// @Summary Add a strike
// @Tags admin
// @Router /api/v1/admin/users/{handle}/strikes [post]
func (h *AdminHandler) AddStrike(ctx *fasthttp.RequestCtx) {
	handle := pathParam(ctx, "handle")
	if handle == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	strikes, err := h.deps.Tasks.AddStrike(stdCtx, handle)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.StrikeResponse{UserID: handle, Strikes: strikes})
}

// @Summary Activate or deactivate a user
// @Tags admin
// @Router /api/v1/admin/users/{handle}/status [put]
func (h *AdminHandler) SetStatus(ctx *fasthttp.RequestCtx) {
	handle := pathParam(ctx, "handle")
	var req transport.StatusRequest
	if !h.decode(ctx, &req) {
		return
	}
	if handle == "" || req.Active == nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	profile, err := h.deps.Profiles.SetActive(stdCtx, handle, *req.Active)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, profile)
}

// @Summary Trigger a scheduled job
// @Tags admin
// @Router /api/v1/admin/jobs/{name} [post]
func (h *AdminHandler) TriggerJob(ctx *fasthttp.RequestCtx) {
	name := pathParam(ctx, "name")
	if err := h.deps.Scheduler.Trigger(name); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, map[string]string{"job": name})
}

// @Summary Bot settings
// @Tags admin
// @Router /api/v1/admin/settings [get]
func (h *AdminHandler) GetSettings(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	settings, err := h.deps.Settings.Get(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, settings)
}

// @Summary Update bot settings
// @Tags admin
// @Router /api/v1/admin/settings [put]
func (h *AdminHandler) UpdateSettings(ctx *fasthttp.RequestCtx) {
	var req transport.SettingsRequest
	if !h.decode(ctx, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.deps.Settings.Save(stdCtx, req.Settings()); err != nil {
		h.respondError(ctx, err)
		return
	}
	settings, err := h.deps.Settings.Get(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.logger.Info("settings updated; schedule changes apply on restart")
	h.respondSuccess(ctx, http.StatusOK, settings)
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	value, _ := ctx.UserValue(name).(string)
	return strings.TrimSpace(value)
}
