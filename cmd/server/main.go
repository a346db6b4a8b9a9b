// Command server runs the engagement monitoring service: event ingestion,
// flag and achievement evaluation, notification fan-out, content workflow,
// and the admin API, all in one process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/compass-cohort/compass-engagement/config"
	"github.com/compass-cohort/compass-engagement/internal/application/command"
	"github.com/compass-cohort/compass-engagement/internal/application/eventhandler"
	"github.com/compass-cohort/compass-engagement/internal/application/evaluator"
	"github.com/compass-cohort/compass-engagement/internal/application/query"
	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/external/generator"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/external/mailer"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/messaging"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/metrics"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/persistence/postgres"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/persistence/redis"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/scheduler"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/scheduler/jobs"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/service"
	httpiface "github.com/compass-cohort/compass-engagement/internal/interface/http"
	"github.com/compass-cohort/compass-engagement/internal/interface/http/handlers"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
	"github.com/compass-cohort/compass-engagement/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:     cfg.Observability.LogLevel,
		Format:    cfg.Observability.LogFormat,
		Service:   cfg.App.Name,
		Version:   cfg.App.Version,
		AddSource: cfg.App.Debug,
	})
	slog.SetDefault(log)

	log.Info("starting",
		"environment", cfg.App.Environment,
		"timezone", cfg.App.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}

	// ── Storage ────────────────────────────────────────────────────────────

	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err = redis.NewCache(redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
	} else {
		log.Warn("redis disabled; caching and live fan-out are off")
	}

	clock := dayclock.New(cfg.App.Location)

	snapshotRepo := postgres.NewSnapshotRepository(conn, cfg.App.Location)
	flagRepo := postgres.NewFlagRepository(conn)
	achievementRepo := postgres.NewAchievementRepository(conn)
	contentRepo := postgres.NewContentRepository(conn)
	programRepo := postgres.NewProgramRepository(conn)
	commitments := service.NewCommitmentProvider(conn)

	var notificationRepo notification.Repository = postgres.NewNotificationRepository(conn)
	if cache != nil {
		notificationRepo = redis.NewUnreadCountCache(notificationRepo, cache, log)
	}

	// ── Event bus ──────────────────────────────────────────────────────────

	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.Metrics = m
	bus := messaging.NewInMemoryEventBus(busCfg)

	dispatcherCfg := messaging.DefaultDispatcherConfig(bus)
	dispatcherCfg.Logger = log
	dispatcherCfg.Metrics = m
	dispatcher := messaging.NewDispatcher(dispatcherCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	var fanout *redis.Fanout
	var handlerFanout eventhandler.Fanout
	if cache != nil {
		fanout = redis.NewFanout(cache, log)
		handlerFanout = fanout
	}

	onFlagRaised := eventhandler.NewOnFlagRaised(notificationRepo, handlerFanout, bus, log)
	if err := dispatcher.Register(shared.EventFlagRaised, "on_flag_raised", onFlagRaised.Handle); err != nil {
		return fmt.Errorf("register on_flag_raised: %w", err)
	}

	onAchievement := eventhandler.NewOnAchievementUnlocked(notificationRepo, handlerFanout, bus, log)
	if err := dispatcher.Register(shared.EventAchievementUnlocked, "on_achievement_unlocked", onAchievement.Handle); err != nil {
		return fmt.Errorf("register on_achievement_unlocked: %w", err)
	}

	if m != nil {
		err := dispatcher.Register(shared.EventNotificationCreated, "notification_metrics", func(event shared.Event) error {
			if e, ok := event.(shared.NotificationCreatedEvent); ok {
				m.NotificationsCreated.WithLabelValues(e.Kind).Inc()
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("register notification_metrics: %w", err)
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}

	// ── Evaluation pipeline ────────────────────────────────────────────────

	policy := flag.Policy{
		LookbackDays:          cfg.Flags.LookbackDays,
		RedInactiveDays:       cfg.Flags.RedInactiveDays,
		RedMissedCommitments:  cfg.Flags.RedMissedCommitments,
		YellowLurkDays:        cfg.Flags.YellowLurkDays,
		YellowDeclineRatio:    cfg.Flags.YellowDeclineRatio,
		YellowDeclineMinPrior: cfg.Flags.YellowDeclineMinPrior,
		GreenSilenceDays:      cfg.Flags.GreenSilenceDays,
		GreenBurstFactor:      cfg.Flags.GreenBurstFactor,
	}

	flagEngine := evaluator.NewFlagEngine(snapshotRepo, flagRepo, commitments, bus, policy, clock, log)
	achievementEngine := evaluator.NewAchievementEngine(snapshotRepo, achievementRepo, bus, clock, log)
	evalService := evaluator.NewService(flagEngine, achievementEngine, cfg.Evaluation.Timeout, log)

	evalQueue := messaging.NewEvaluationQueue(messaging.EvaluationQueueConfig{
		Service:   evalService,
		QueueSize: cfg.Evaluation.QueueSize,
		Workers:   cfg.Evaluation.Workers,
		Logger:    log,
		Metrics:   m,
	})

	// ── External services ──────────────────────────────────────────────────

	genCfg := generator.DefaultClientConfig(cfg.Content.GeneratorURL)
	genCfg.APIKey = cfg.Content.GeneratorKey
	genCfg.Timeout = cfg.Content.RequestTimeout
	genCfg.MaxRetries = cfg.Content.MaxRetries
	genCfg.RetryBaseDelay = cfg.Content.RetryBaseDelay
	genCfg.RetryMaxDelay = cfg.Content.RetryMaxDelay
	genCfg.BreakerThreshold = cfg.Content.BreakerThreshold
	genCfg.BreakerTimeout = cfg.Content.BreakerTimeout
	genCfg.BreakerHalfOpenMax = cfg.Content.BreakerHalfOpenMax
	genCfg.Logger = log
	genCfg.Metrics = m
	generatorClient := generator.NewClient(genCfg)

	mailCfg := mailer.DefaultClientConfig(cfg.Content.MailerURL, cfg.Content.MailerFrom)
	mailCfg.Logger = log
	mailCfg.Metrics = m
	mailerClient := mailer.NewClient(mailCfg)

	// ── Application handlers ───────────────────────────────────────────────

	var contextCache query.ContextCache
	if cache != nil {
		contextCache = redis.NewContextCache(cache)
	}

	communityContext := query.NewCommunityContextHandler(
		snapshotRepo, programRepo, contextCache, clock,
		query.CommunityContextConfig{
			DiscussionWindow:  cfg.Content.DiscussionWindow,
			DiscussionLimit:   cfg.Content.DiscussionLimit,
			ActiveUserDays:    cfg.Content.ActiveUserDays,
			UpcomingEventsMax: cfg.Content.UpcomingEventsMax,
			CacheTTL:          cfg.Content.ContextCacheTTL,
		}, log)

	overview := query.NewEngagementOverviewHandler(snapshotRepo, flagRepo, clock, log)

	recordEvent := command.NewRecordEventHandler(snapshotRepo, bus, evalQueue, clock, log)
	sendReport := command.NewSendReportHandler(overview, mailerClient, cfg.Content.ReportEmailTo, log)

	deps := httpiface.Dependencies{
		RecordEvent:     recordEvent,
		RecordBatch:     command.NewRecordBatchHandler(recordEvent),
		ResolveFlag:     command.NewResolveFlagHandler(flagRepo, bus, log),
		GenerateContent: command.NewGenerateContentHandler(contentRepo, communityContext, generatorClient, bus, log),
		ApproveContent:  command.NewApproveContentHandler(contentRepo, bus, log),
		RejectContent:   command.NewRejectContentHandler(contentRepo),
		MarkRead:        command.NewMarkNotificationReadHandler(notificationRepo),
		MarkAllRead:     command.NewMarkAllNotificationsReadHandler(notificationRepo),
		SendReport:      sendReport,

		GetStreaks:         query.NewGetStreaksHandler(snapshotRepo, clock),
		ListFlags:          query.NewListFlagsHandler(flagRepo),
		GetAchievements:    query.NewGetAchievementsHandler(achievementRepo),
		ListNotifications:  query.NewListNotificationsHandler(notificationRepo),
		UnreadCount:        query.NewUnreadCountHandler(notificationRepo),
		GetActiveContent:   query.NewGetActiveContentHandler(contentRepo),
		ListPendingContent: query.NewListPendingContentHandler(contentRepo),
		CommunityContext:   communityContext,
		Overview:           overview,

		Logger: log,
	}

	if fanout != nil {
		deps.Streamer = fanoutStreamer{fanout: fanout}
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewPingCheck(conn))
	if cache != nil {
		health.AddCheck("cache", handlers.NewPingCheck(cache))
	}
	deps.HealthChecker = health

	if m != nil {
		deps.Metrics = m
		deps.MetricsHandler = m.Handler()
	}

	// ── Scheduled jobs ─────────────────────────────────────────────────────

	sched := scheduler.NewScheduler(scheduler.Config{
		DefaultTimeout: 5 * time.Minute,
		Logger:         log,
		Metrics:        m,
	})

	sweep := jobs.NewDailySweep(snapshotRepo, evalQueue, clock, cfg.Flags.LookbackDays, log)
	if err := sched.Register(sweep, scheduler.DailyAt(2, 30, cfg.App.Location), 15*time.Minute); err != nil {
		return fmt.Errorf("register daily sweep: %w", err)
	}

	refresh := jobs.NewRefreshContext(communityContext, log)
	if err := sched.Register(refresh, scheduler.Every(cfg.Content.ContextCacheTTL), time.Minute); err != nil {
		return fmt.Errorf("register context refresh: %w", err)
	}

	if cfg.Content.MailerURL != "" && len(cfg.Content.ReportEmailTo) > 0 {
		report := jobs.NewWeeklyReport(sendReport, log)
		if err := sched.Register(report, scheduler.WeeklyAt(time.Monday, 8, 0, cfg.App.Location), 5*time.Minute); err != nil {
			return fmt.Errorf("register weekly report: %w", err)
		}
	} else {
		log.Info("weekly report disabled; mailer URL or recipients not configured")
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// ── HTTP server ────────────────────────────────────────────────────────

	serverCfg := httpiface.DefaultConfig()
	serverCfg.Host = cfg.App.HTTPHost
	serverCfg.Port = cfg.App.HTTPPort
	serverCfg.AdminAPIKeys = cfg.App.AdminAPIKeys
	if len(cfg.App.AllowedOrigins) > 0 {
		serverCfg.AllowedOrigins = cfg.App.AllowedOrigins
	}
	serverCfg.RateLimitPerMinute = cfg.App.RateLimitPerMinute

	server := httpiface.NewServer(serverCfg, deps)

	errCh := server.StartAsync()
	log.Info("http server listening", "address", serverCfg.Address())

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Drain in dependency order: stop intake first, then the pipeline
	// behind it, then close connections.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}

	sched.Stop()
	evalQueue.Close()

	if err := dispatcher.Stop(); err != nil {
		log.Error("dispatcher stop failed", "error", err)
	}
	if err := bus.Close(); err != nil {
		log.Error("event bus close failed", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}

// fanoutStreamer adapts the Redis fan-out to the SSE endpoint's interface.
type fanoutStreamer struct {
	fanout *redis.Fanout
}

func (s fanoutStreamer) Subscribe(ctx context.Context, userID string) (httpiface.NotificationSubscription, error) {
	return s.fanout.Subscribe(ctx, userID)
}
