package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketlive/internal/config"
	"marketlive/internal/delivery/http/handler"
	"marketlive/internal/domain/outbox"
	"marketlive/internal/infrastructure/database/postgres"
	"marketlive/internal/infrastructure/esign"
	"marketlive/internal/infrastructure/identityhook"
	"marketlive/internal/infrastructure/kafka"
	"marketlive/internal/infrastructure/ratelookup"
	"marketlive/internal/infrastructure/resilience"
	"marketlive/internal/infrastructure/stripe"
	"marketlive/internal/ingestion"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	"marketlive/internal/notify"
	"marketlive/internal/routes"
	"marketlive/internal/usecase/admin"
	"marketlive/internal/usecase/booking"
	"marketlive/internal/usecase/compliance"
	"marketlive/internal/usecase/document"
	notificationUC "marketlive/internal/usecase/notification"
	"marketlive/internal/usecase/payment"
	"marketlive/internal/usecase/quote"
	"marketlive/internal/usecase/shipment"
	"marketlive/internal/usecase/user"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	m := metrics.New()

	// Repositories
	quoteRepo := postgres.NewQuoteRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	shipmentRepo := postgres.NewShipmentRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	complianceRepo := postgres.NewComplianceRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	userRepo := postgres.NewUserRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Notification dispatch
	dispatcher := notify.NewDispatcher(outboxRepo, m, cfg.Outbox.MaxAttempts)
	hub := notify.NewHub(cfg.CORS.AllowedOrigins)
	sinks := map[outbox.Kind]notify.Sink{
		outbox.KindEmail:    notify.NewEmailSink(notify.NewEmailSender(cfg.SMTP)),
		outbox.KindInApp:    notify.NewInAppSink(notificationRepo, hub),
		outbox.KindWorkflow: kafka.LogSink{},
	}
	if len(cfg.Kafka.Brokers) > 0 {
		writer := kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.WorkflowTopic)
		defer writer.Close()
		sinks[outbox.KindWorkflow] = kafka.NewWorkflowSink(writer, cfg.Kafka.WorkflowTopic)
	}
	worker := notify.NewWorker(outboxRepo, sinks, m, notify.WorkerConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
	})

	// Vendors. Unconfigured vendors stay nil interfaces so the use cases report them as such.
	var signer document.Signer
	if client, err := esign.NewClient(cfg.DocuSign, resilience.NewBreaker(resilience.DefaultBreakerConfig("docusign"), m)); err == nil {
		signer = client
	} else if !errors.Is(err, esign.ErrNotConfigured) {
		logger.Fatal("Failed to configure e-signature client", zap.Error(err))
	} else {
		logger.Warn("E-signature provider is not configured")
	}

	var processor payment.Processor
	if cfg.Stripe.SecretKey != "" {
		processor = stripe.NewClient(cfg.Stripe, cfg.Server.AppURL, resilience.NewBreaker(resilience.DefaultBreakerConfig("stripe"), m))
	} else {
		logger.Warn("Stripe is not configured")
	}

	var prober admin.RateProber
	if cfg.Freightos.APIKey != "" {
		prober = ratelookup.NewFreightosClient(cfg.Freightos, resilience.NewBreaker(resilience.DefaultBreakerConfig("freightos"), m))
	}

	var verifier user.WebhookVerifier
	if cfg.Identity.WebhookSecret != "" {
		v, err := identityhook.NewVerifier(cfg.Identity.WebhookSecret)
		if err != nil {
			logger.Fatal("Invalid identity webhook secret", zap.Error(err))
		}
		verifier = v
	}

	// Use cases
	bookingService := booking.NewService(bookingRepo, quoteRepo, paymentRepo, auditRepo, dispatcher, m, booking.Config{
		EnforceOfferExpiry: cfg.Booking.EnforceOfferExpiry,
		AppURL:             cfg.Server.AppURL,
	})
	quoteService := quote.NewService(quoteRepo, bookingService, m)
	shipmentService := shipment.NewService(shipmentRepo, auditRepo, dispatcher, m, shipment.Config{
		DedupEvents: cfg.Tracking.DedupEvents,
	})
	documentService := document.NewService(documentRepo, signer, m, document.Config{AppURL: cfg.Server.AppURL})
	complianceService := compliance.NewService(complianceRepo, auditRepo, m)
	paymentService := payment.NewService(paymentRepo, userRepo, orgRepo, auditRepo, processor, m)
	userService := user.NewService(userRepo, orgRepo, verifier)
	adminService := admin.NewService(bookingRepo, shipmentRepo, userRepo, auditRepo, outboxRepo, prober)
	notificationService := notificationUC.NewService(notificationRepo)

	feed := ingestion.NewProcessor(shipmentService, m, ingestion.ProcessorConfig{
		Workers:    cfg.MQTT.Workers,
		BufferSize: cfg.MQTT.BufferSize,
	})

	router := routes.SetupRoutes(cfg, routes.Dependencies{
		DB:      db,
		Metrics: m,
		Roles:   userService,
		Handlers: routes.Handlers{
			Quote:        handler.NewQuoteHandler(quoteService),
			Booking:      handler.NewBookingHandler(bookingService),
			Shipment:     handler.NewShipmentHandler(shipmentService),
			Document:     handler.NewDocumentHandler(documentService),
			Compliance:   handler.NewComplianceHandler(complianceService),
			Payment:      handler.NewPaymentHandler(paymentService),
			User:         handler.NewUserHandler(userService),
			Admin:        handler.NewAdminHandler(adminService),
			Notification: handler.NewNotificationHandler(notificationService, hub),
		},
		Components: map[string]func() interface{}{
			"outbox":       func() interface{} { return worker.Stats() },
			"carrier_feed": func() interface{} { return feed.Stats() },
		},
	})

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown Server ...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		hub.Close()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return worker.Run(gctx)
	})

	g.Go(func() error {
		return feed.Run(gctx)
	})

	if cfg.MQTT.Broker != "" {
		client, err := ingestion.NewFeedClient(cfg.MQTT, feed)
		if err != nil {
			logger.Fatal("Failed to configure carrier feed", zap.Error(err))
		}
		g.Go(func() error {
			return client.Run(gctx)
		})
	} else {
		logger.Warn("MQTT broker is not configured, carrier feed disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server exited properly")
}
