package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/detailops/engagement-core/internal/config"
	"github.com/detailops/engagement-core/internal/genai"
	"github.com/detailops/engagement-core/internal/healthcheck"
	"github.com/detailops/engagement-core/internal/ingestion"
	"github.com/detailops/engagement-core/internal/jetstream"
	"github.com/detailops/engagement-core/internal/notify"
	"github.com/detailops/engagement-core/internal/observer"
	"github.com/detailops/engagement-core/internal/scheduler"
	"github.com/detailops/engagement-core/internal/storage"
	"github.com/detailops/engagement-core/internal/usecase"
	"github.com/detailops/engagement-core/pkg/logger"
)

func main() {
	// Set timezone to UTC
	time.Local = time.UTC

	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(cfg.Metrics.Enabled)

	logger.Log.Info("Starting Engagement Core",
		zap.String("environment", cfg.Environment),
		zap.String("nats_url", cfg.NATS.URL),
	)

	postgresRepo, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize Postgres repository", zap.Error(err))
	}

	jsClient, err := jetstream.NewClient(cfg.NATS.URL)
	if err != nil {
		logger.Log.Fatal("Failed to initialize JetStream client", zap.Error(err))
	}

	// Delivery transports. SMS and AI are optional: the service degrades
	// to logged skips and template-only composition respectively.
	var smsSender usecase.SMSSender
	if twilioSender, err := notify.NewTwilioSender(cfg.Notifications.TwilioFrom); err != nil {
		logger.Log.Warn("Twilio not configured, SMS delivery disabled", zap.Error(err))
	} else {
		smsSender = twilioSender
	}

	var pushSender usecase.PushSender
	if cfg.Notifications.PushGatewayURL != "" {
		pushSender = notify.NewPushClient(cfg.Notifications.PushGatewayURL, cfg.Notifications.PushTimeout)
	} else {
		logger.Log.Warn("Push gateway URL not configured, push delivery disabled")
	}

	var completionProvider usecase.CompletionProvider
	if aiClient, err := genai.NewClient(cfg.AI.Model, cfg.AI.MaxTokens, cfg.AI.Timeout); err != nil {
		logger.Log.Warn("AI provider not configured, reminders use templates only", zap.Error(err))
	} else {
		completionProvider = aiClient
	}

	// Repository views
	conversationRepo := postgresRepo.Conversations()
	customerRepo := postgresRepo.Customers()
	escalationRepo := postgresRepo.Escalations()
	reminderRepo := postgresRepo.Reminders()
	tenantRegistry := postgresRepo.Tenants()

	// Services
	notifier := usecase.NewNotifier(
		smsSender, pushSender, customerRepo,
		cfg.Notifications.OwnerPhone,
		cfg.Notifications.SMSTimeout,
		cfg.Notifications.PushTimeout,
	)
	escalationService := usecase.NewEscalationService(
		conversationRepo, customerRepo, escalationRepo, tenantRegistry,
		notifier, cfg.Escalation.TTL, cfg.Escalation.SummaryDepth,
	)
	reminderEngine := usecase.NewReminderEngine(reminderRepo, customerRepo)
	composer := usecase.NewComposer(
		completionProvider, cfg.AI.MaxChars,
		cfg.Reminders.BookingURL, cfg.Reminders.ActionBaseURL,
	)
	reminderScheduler, err := usecase.NewReminderScheduler(
		reminderEngine, composer, reminderRepo, customerRepo, tenantRegistry, smsSender,
		usecase.SchedulerPoolConfig{
			PoolSize:   cfg.WorkerPools.Reminder.PoolSize,
			QueueSize:  cfg.WorkerPools.Reminder.QueueSize,
			ExpiryTime: cfg.WorkerPools.Reminder.ExpiryTime,
		},
		0,
	)
	if err != nil {
		logger.Log.Fatal("Failed to initialize reminder scheduler", zap.Error(err))
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Ingestion: the reactive escalation path.
	consumer := ingestion.NewConsumer(jsClient, escalationService, ingestion.Config{
		Stream:        cfg.NATS.Stream,
		Consumer:      cfg.NATS.Consumer,
		Subject:       cfg.NATS.Subject,
		AckWait:       cfg.NATS.AckWait,
		MaxAckPending: cfg.NATS.MaxAckPending,
		MaxAgeDays:    cfg.NATS.MaxAgeDays,
	})
	if err := consumer.Start(rootCtx); err != nil {
		logger.Log.Fatal("Failed to start ingestion consumer", zap.Error(err))
	}

	// Proactive passes on their own intervals.
	tickScheduler := scheduler.New("reminder-tick", cfg.Reminders.TickInterval, reminderScheduler.TickAllTenants)
	dispatchScheduler := scheduler.New("reminder-dispatch", cfg.Reminders.DispatchInterval, reminderScheduler.DispatchAllTenants)
	sweepScheduler := scheduler.New("escalation-sweep", cfg.Escalation.SweepInterval, escalationService.SweepAllTenants)
	tickScheduler.Start(rootCtx)
	dispatchScheduler.Start(rootCtx)
	sweepScheduler.Start(rootCtx)

	healthServer := healthcheck.NewServer(strconv.Itoa(cfg.Server.Port), logger.Log, postgresRepo.Ping)
	if cfg.Metrics.Enabled {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
	}
	healthServer.Start()

	logger.Log.Info("Engagement Core started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Shutdown order: stop intake first, then the periodic passes, then
	// drain the pool and close shared resources.
	rootCancel()
	consumer.Stop()
	tickScheduler.Stop()
	dispatchScheduler.Stop()
	sweepScheduler.Stop()
	reminderScheduler.Release()
	jsClient.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Log.Error("Failed to stop health server cleanly", zap.Error(err))
	}
	if err := postgresRepo.Close(shutdownCtx); err != nil {
		logger.Log.Error("Failed to close database cleanly", zap.Error(err))
	}

	logger.Log.Info("Engagement Core stopped")
}
