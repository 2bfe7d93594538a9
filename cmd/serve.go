package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pixeldesk/ai"
	"pixeldesk/api"
	"pixeldesk/config"
	"pixeldesk/database"
	"pixeldesk/events"
	"pixeldesk/infrastructure"
	"pixeldesk/infrastructure/observability"
	"pixeldesk/notification"
	"pixeldesk/repository"
	"pixeldesk/scheduler"
	"pixeldesk/service"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the sweep schedule",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	configureLogging(cfg)
	log.WithField("environment", cfg.Environment).Info("Starting PixelDesk...")

	if serveMigrate {
		if err := database.MigrateUp(cfg.GetDatabaseURL()); err != nil {
			return err
		}
	}

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to shut down metrics provider")
		}
	}()
	observability.RegisterSubscriptions(eventBus, metrics)

	if err := registerNotifications(eventBus, cfg); err != nil {
		return err
	}

	if cfg.NATSServers != "" {
		natsClient, err := connectEventMirror(ctx, eventBus, cfg, metrics)
		if err != nil {
			return err
		}
		defer natsClient.Close()
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	configProvider := service.NewWorkstationConfigProvider(uowFactory, service.UTCNow)
	userService := service.NewUserService(uowFactory, service.UTCNow)
	bindingService := service.NewBindingService(uowFactory, configProvider, service.UTCNow)
	pointsService := service.NewPointsService(uowFactory)
	sweepService := service.NewSweepService(uowFactory, service.UTCNow)
	httpClient := &http.Client{Timeout: 60 * time.Second}
	chatService := service.NewChatService(uowFactory, configProvider, func(ctx context.Context, aiCfg ai.Config) (ai.Provider, error) {
		return ai.NewProvider(ctx, aiCfg, httpClient)
	}, cfg.AIDailyLimit, service.UTCNow)
	log.Info("Services initialized successfully")

	coordinator := scheduler.NewCoordinator(sweepService, cfg.SweepLazyInterval, service.UTCNow)
	stopSchedule, err := coordinator.Start(ctx, cfg.SweepCron)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Dependencies{
		Users:       userService,
		Bindings:    bindingService,
		Points:      pointsService,
		Sweeper:     sweepService,
		Coordinator: coordinator,
		Config:      configProvider,
		Chat:        chatService,
		Health:      db.Ping,
		Recorder:    metrics,
	}, api.Options{JWTSecret: cfg.JWTSecret, CronSecret: cfg.CronSecret})

	serveErr := api.NewServer(cfg.HTTPAddr, router).Run(ctx)

	log.Info("Shutting down...")
	stopSchedule()
	eventBus.Wait()
	log.Info("Shutdown completed")

	return serveErr
}

func registerNotifications(eventBus *events.Bus, cfg *config.Config) error {
	var webhook *notification.OpsWebhook
	if cfg.DiscordWebhookURL != "" {
		var err error
		webhook, err = notification.NewOpsWebhook(cfg.DiscordWebhookURL)
		if err != nil {
			return fmt.Errorf("failed to configure ops webhook: %w", err)
		}
	}

	notification.RegisterSubscriptions(eventBus, notification.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom), webhook)
	return nil
}

func connectEventMirror(ctx context.Context, eventBus *events.Bus, cfg *config.Config, metrics *observability.MetricsProvider) (*infrastructure.NATSClient, error) {
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers, cfg.ServiceName)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := natsClient.Connect(connectCtx); err != nil {
		return nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := natsClient.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
		natsClient.Close()
		return nil, err
	}

	infrastructure.NewNATSEventMirror(natsClient, mapper, cfg.ServiceName, metrics).Register(eventBus)
	log.Info("Mirroring domain events to NATS")
	return natsClient, nil
}
