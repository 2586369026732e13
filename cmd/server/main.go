package main

import (
	"context"
	"log"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskbot/api/handler"
	"github.com/fastygo/taskbot/internal/config"
	"github.com/fastygo/taskbot/internal/infrastructure/buffer"
	"github.com/fastygo/taskbot/internal/infrastructure/gateway"
	"github.com/fastygo/taskbot/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskbot/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskbot/internal/infrastructure/redis"
	"github.com/fastygo/taskbot/internal/keylock"
	"github.com/fastygo/taskbot/internal/middleware"
	"github.com/fastygo/taskbot/internal/router"
	"github.com/fastygo/taskbot/internal/services"
	"github.com/fastygo/taskbot/internal/services/lifecycle"
	"github.com/fastygo/taskbot/pkg/httpcontext"
	"github.com/fastygo/taskbot/pkg/ids"
	"github.com/fastygo/taskbot/pkg/logger"
	"github.com/fastygo/taskbot/repository"
	boltRepo "github.com/fastygo/taskbot/repository/bolt"
	"github.com/fastygo/taskbot/repository/document"
	"github.com/fastygo/taskbot/repository/postgres"
	redisRepo "github.com/fastygo/taskbot/repository/redis"
	"github.com/fastygo/taskbot/usecase"
	broadcastUC "github.com/fastygo/taskbot/usecase/broadcast"
	profileUC "github.com/fastygo/taskbot/usecase/profile"
	"github.com/fastygo/taskbot/usecase/session"
	statsUC "github.com/fastygo/taskbot/usecase/stats"
	taskUC "github.com/fastygo/taskbot/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
		Env:      cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	if err := ids.SetNode(cfg.Bot.SnowflakeNode); err != nil {
		zapLogger.Fatal("snowflake node", zap.Error(err))
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Context(context.Background())
	defer cancel()

	store := openStore(appCtx, cfg, manager, zapLogger)

	pingCtx, pingCancel := context.WithTimeout(appCtx, cfg.Context.RequestTimeout)
	if err := store.Ping(pingCtx); err != nil {
		zapLogger.Fatal("document store unreachable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	pingCancel()

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	if redisClient != nil {
		manager.RegisterCloser("redis", redisClient.Close)
	}

	clock := usecase.Clock{Location: cfg.Location()}

	userRepo := document.NewProfileRepository(store, zapLogger)
	taskRepo := document.NewTaskRepository(store, zapLogger)
	broadcastRepo := document.NewBroadcastRepository(store, zapLogger)
	settingsRepo := document.NewSettingsRepository(store)

	var sessionRepo repository.SessionRepository
	var deliveryLog repository.DeliveryLog
	if redisClient != nil {
		deliveryLog = redisRepo.NewDeliveryLog(redisClient, cfg.Redis.DedupTTL)
	}
	if cfg.Bot.SessionBackend == "redis" && redisClient != nil {
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.Bot.SessionTTL)
	} else {
		sessionRepo = document.NewSessionRepository(store)
	}

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.RegisterCloser("buffer", bufferStore.Close)

	gatewayClient := gateway.New(cfg.Gateway)

	mon := monitor.New(monitor.Targets{
		Store:   store,
		Redis:   redisPinger(redisClient),
		Gateway: gatewayClient,
		Buffer:  bufferStore,
	}, 10*time.Second, zapLogger)
	mon.Refresh()
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	outbox := services.NewOutbox(bufferStore, gatewayClient, mon, zapLogger, services.OutboxConfig{
		Interval:   cfg.Buffer.SyncInterval,
		BatchSize:  50,
		MaxRetries: cfg.Buffer.MaxRetry,
		Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,

		MaxBuffered: cfg.Buffer.MaxSize,
	})
	outbox.Start()
	manager.Register("outbox", func(ctx context.Context) error {
		outbox.Stop(ctx)
		return nil
	})

	// Profile mutations from chat, scheduler and dashboard share one lock.
	profileLocks := keylock.New()
	profileUseCase := profileUC.New(userRepo, profileLocks, clock, zapLogger)
	taskUseCase := taskUC.New(taskRepo, userRepo, profileLocks, clock, zapLogger)
	statsUseCase := statsUC.New(userRepo, taskRepo, clock, zapLogger)
	broadcastUseCase := broadcastUC.New(userRepo, broadcastRepo, outbox.As(buffer.KindBroadcast), clock, zapLogger, broadcastUC.Config{
		Concurrency: cfg.Bot.Broadcast.Concurrency,
		Timeout:     cfg.Bot.Broadcast.Timeout,
	})
	manager.Register("broadcasts", broadcastUseCase.Wait)

	engine := session.New(session.Deps{
		Sessions:    sessionRepo,
		Profiles:    profileUseCase,
		Tasks:       taskUseCase,
		Stats:       statsUseCase,
		Broadcasts:  broadcastUseCase,
		Clock:       clock,
		AdminHandle: cfg.Bot.AdminHandle,
	}, zapLogger)

	scheduler := services.NewScheduler(userRepo, taskUseCase, settingsRepo, outbox.As(buffer.KindReminder), clock, zapLogger, services.SchedulerConfig{
		Location:    cfg.Location(),
		MorningSpec: cfg.Bot.MorningCron,
		EveningSpec: cfg.Bot.EveningCron,
		WeeklySpec:  cfg.Bot.WeeklyCron,
	})
	if cfg.Bot.SchedulerOn {
		if err := scheduler.Start(appCtx); err != nil {
			zapLogger.Fatal("scheduler start failed", zap.Error(err))
		}
	}
	manager.Register("scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Webhook: apiHandler.NewWebhookHandler(engine, outbox, deliveryLog, cfg.Bot.WebhookToken, ctxAdapter, zapLogger),
		Admin: apiHandler.NewAdminHandler(apiHandler.AdminDeps{
			Stats:      statsUseCase,
			Broadcasts: broadcastUseCase,
			Tasks:      taskUseCase,
			Profiles:   profileUseCase,
			Scheduler:  scheduler,
			Settings:   settingsRepo,
		}, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware, cfg.HTTP.EnablePprof)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxConnsPerIP:      cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Driver),
			zap.Strings("commands", engine.Commands()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

// openStore connects the configured document store driver and registers its
// shutdown hook.
func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) repository.DocumentStore {
	switch cfg.Store.Driver {
	case "bolt":
		store, err := boltRepo.Open(cfg.Store.BoltPath)
		if err != nil {
			zapLogger.Fatal("failed to open bolt store", zap.String("path", cfg.Store.BoltPath), zap.Error(err))
		}
		manager.RegisterCloser("bolt", store.Close)
		return store
	default:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		return postgres.NewDocumentStore(pool)
	}
}

func redisPinger(client *goRedis.Client) monitor.Pinger {
	if client == nil {
		return nil
	}
	return monitor.PingFunc(redisInfra.Ping(client))
}
