package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gearshare/internal/app/commands"
	availabilityapp "gearshare/internal/app/handlers/availability"
	itemapp "gearshare/internal/app/handlers/item"
	paymentapp "gearshare/internal/app/handlers/payment"
	rentalapp "gearshare/internal/app/handlers/rental"
	"gearshare/internal/app/middleware"
	appoutbox "gearshare/internal/app/outbox"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/schedule"
	"gearshare/internal/app/uow"
	"gearshare/internal/infra/broker/kafka"
	"gearshare/internal/infra/config"
	mongodb "gearshare/internal/infra/db/mongo"
	ginserver "gearshare/internal/infra/http/gin"
	infrainbox "gearshare/internal/infra/inbox"
	"gearshare/internal/infra/notify"
	"gearshare/internal/infra/obs"
	infraoutbox "gearshare/internal/infra/outbox"
	"gearshare/internal/infra/provider"
	"gearshare/internal/infra/storage/memory"
	"gearshare/internal/infra/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		// Dev fallback: no Mongo/Kafka means an in-memory stack, which is
		// enough for local exploration but loses events on restart.
		logger.Warn("using in-memory fallback configuration", "error", err)
		cfg = devConfig(env)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, run := range app.workers {
		go func(run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "error", err)
			}
		}(run)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	workers  []func(context.Context) error
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory  uow.UoWFactory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
		workers     []func(context.Context) error
		ready       = func() error { return nil }
	)

	if cfg.MongoURI != "" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		rentalsRepo := mongodb.NewRentalRepository(client.DB)
		paymentsRepo := mongodb.NewPaymentRepository(client.DB)
		windowsRepo := mongodb.NewWindowRepository(client.DB)
		if err := rentalsRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("rental index creation failed", "error", err)
		}
		if err := paymentsRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("payment index creation failed", "error", err)
		}
		if err := windowsRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("window index creation failed", "error", err)
		}

		uowFactory = mongodb.Factory{
			DB:           client.DB,
			ItemsRepo:    mongodb.NewItemRepository(client.DB),
			WindowsRepo:  windowsRepo,
			RentalsRepo:  rentalsRepo,
			PaymentsRepo: paymentsRepo,
			DepositsRepo: mongodb.NewDepositRepository(client.DB),
			Inbox:        infrainbox.NewStore(client.DB, "payments-reconcile", cfg.IdempotencyTTL),
		}
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		idStore = mongodb.NewIdempotencyStore(client.DB)

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Source:      "gearshare",
				Backoff:     cfg.RetryBackoff,
			}
			workers = append(workers, worker.Run)
		}
	} else {
		uowFactory = memory.NewFactory()
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	}

	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
	notifier := notify.LogNotifier{Logger: logger}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, itemapp.CreateItemCommand{}.Key(), &itemapp.CreateItemHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, itemapp.SetItemActiveCommand{}.Key(), &itemapp.SetItemActiveHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, availabilityapp.AddWindowCommand{}.Key(), &availabilityapp.AddWindowHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, availabilityapp.RemoveWindowCommand{}.Key(), &availabilityapp.RemoveWindowHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, rentalapp.RequestRentalCommand{}.Key(), &rentalapp.RequestRentalHandler{
		UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, rentalapp.DecideRentalCommand{}.Key(), &rentalapp.DecideRentalHandler{
		UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Notifier: notifier,
	})
	commands.RegisterHandler(commandBus, rentalapp.CancelRentalCommand{}.Key(), &rentalapp.CancelRentalHandler{
		UoWFactory: uowFactory, Provider: providerClient, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, rentalapp.CompleteRentalCommand{}.Key(), &rentalapp.CompleteRentalHandler{
		UoWFactory: uowFactory, Provider: providerClient, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, rentalapp.ExpireRentalsCommand{}.Key(), &rentalapp.ExpireRentalsHandler{
		UoWFactory: uowFactory, Provider: providerClient, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, paymentapp.CreateHoldCommand{}.Key(), &paymentapp.CreateHoldHandler{
		UoWFactory: uowFactory, Provider: providerClient, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, paymentapp.ReconcileCommand{}.Key(), &paymentapp.ReconcileHandler{
		UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Notifier: notifier, Logger: logger,
	})
	commands.RegisterHandler(commandBus, paymentapp.RetryPaymentCommand{}.Key(), &paymentapp.RetryPaymentHandler{
		UoWFactory: uowFactory, Provider: providerClient, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, paymentapp.RefundPaymentCommand{}.Key(), &paymentapp.RefundPaymentHandler{
		UoWFactory: uowFactory, Provider: providerClient, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, paymentapp.ChargeDepositCommand{}.Key(), &paymentapp.ChargeDepositHandler{
		UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, paymentapp.ReleaseDepositCommand{}.Key(), &paymentapp.ReleaseDepositHandler{
		UoWFactory: uowFactory, Provider: providerClient, Outbox: outboxStore, Encoder: encoder,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, rentalapp.ListRentalsQuery{}.Key(), &rentalapp.ListRentalsHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	expiry := &schedule.ExpiryWorker{
		Bus:      commandBusWithMiddleware,
		Window:   cfg.PendingExpiry,
		Interval: cfg.ExpirySweepEvery,
		Logger:   logger,
	}
	workers = append(workers, expiry.Run)

	handlers := ginserver.Handlers{
		Item:   ginserver.ItemHandler{Commands: commandBusWithMiddleware},
		Rental: ginserver.RentalHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, FeeRate: cfg.PlatformFeeRate},
		Availability: ginserver.AvailabilityHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Payment: ginserver.PaymentHandler{Commands: commandBusWithMiddleware, MaxAttempts: cfg.PaymentMaxAttempts},
		Webhook: ginserver.WebhookHandler{
			Commands: commandBusWithMiddleware,
			Verifier: webhook.Verifier{Secret: []byte(cfg.WebhookSecret), ReplayWindow: cfg.WebhookReplayWindow},
			Logger:   logger,
		},
		AuthMiddleware: ginserver.GatewayAuth(),
	}

	return application{handlers: handlers, workers: workers, ready: ready}, nil
}

func devConfig(env string) config.Config {
	return config.Config{
		Env:                 env,
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		WebhookSecret:       getenv("WEBHOOK_SECRET", "dev-secret"),
		WebhookReplayWindow: 5 * time.Minute,
		PlatformFeeRate:     0.10,
		PaymentMaxAttempts:  3,
		PendingExpiry:       30 * time.Minute,
		ExpirySweepEvery:    time.Minute,
		ProviderBaseURL:     getenv("PROVIDER_BASE_URL", "https://api.payments.example.com"),
		ProviderTimeout:     10 * time.Second,
		IdempotencyTTL:      168 * time.Hour,
		OutboxPollInterval:  500 * time.Millisecond,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
