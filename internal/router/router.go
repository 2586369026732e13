package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/taskbot/api/handler"
)

type Handlers struct {
	Webhook *apiHandler.WebhookHandler
	Admin   *apiHandler.AdminHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, enablePprof bool) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Gateway callbacks
	r.POST("/api/v1/webhook/messages", handlers.Webhook.Receive)

	// Dashboard routes
	admin := r.Group("/api/v1/admin")
	admin.GET("/leaderboard", authMiddleware(handlers.Admin.Leaderboard))
	admin.GET("/stats", authMiddleware(handlers.Admin.TeamStats))
	admin.GET("/members", authMiddleware(handlers.Admin.Members))

	admin.GET("/broadcasts", authMiddleware(handlers.Admin.ListBroadcasts))
	admin.POST("/broadcasts", authMiddleware(handlers.Admin.SendBroadcast))

	admin.POST("/users/{handle}/strikes", authMiddleware(handlers.Admin.AddStrike))
	admin.PUT("/users/{handle}/status", authMiddleware(handlers.Admin.SetStatus))

	admin.POST("/jobs/{name}", authMiddleware(handlers.Admin.TriggerJob))

	admin.GET("/settings", authMiddleware(handlers.Admin.GetSettings))
	admin.PUT("/settings", authMiddleware(handlers.Admin.UpdateSettings))

	if enablePprof {
		r.GET("/debug/pprof/{profile:*}", authMiddleware(pprofhandler.PprofHandler))
	}

	return r
}
