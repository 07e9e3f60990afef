package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/saastools-backend/api/routes"
	"github.com/angelmondragon/saastools-backend/internal/analytics"
	"github.com/angelmondragon/saastools-backend/internal/auth"
	"github.com/angelmondragon/saastools-backend/internal/billing"
	"github.com/angelmondragon/saastools-backend/internal/content"
	"github.com/angelmondragon/saastools-backend/internal/email"
	"github.com/angelmondragon/saastools-backend/internal/invoices"
	"github.com/angelmondragon/saastools-backend/internal/keywords"
	"github.com/angelmondragon/saastools-backend/internal/subscriptions"
	"github.com/angelmondragon/saastools-backend/internal/tools"
	"github.com/angelmondragon/saastools-backend/internal/usage"
	"github.com/angelmondragon/saastools-backend/internal/users"
	razorpaywebhook "github.com/angelmondragon/saastools-backend/internal/webhooks/razorpay"
	"github.com/angelmondragon/saastools-backend/pkg/auth/session"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
	"github.com/angelmondragon/saastools-backend/pkg/migrate"
	"github.com/angelmondragon/saastools-backend/pkg/razorpay"
	"github.com/angelmondragon/saastools-backend/pkg/redis"
	"github.com/angelmondragon/saastools-backend/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap invoice storage", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	billingMetrics := metrics.NewBillingMetrics(registry)

	deps, err := buildDeps(cfg, logg, dbClient, redisClient, store, billingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	deps.Gatherer = registry
	if _, ok := store.(*storage.Local); ok {
		deps.InvoiceFiles = http.FileServer(http.Dir(cfg.Storage.LocalDir))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"razorpay": cfg.Razorpay.Enabled(),
		"storage":  cfg.Storage.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(*deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}

func buildDeps(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	store storage.Store,
	billingMetrics *metrics.BillingMetrics,
) (*routes.Deps, error) {
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	toolRepo := tools.NewRepository(conn)
	billingRepo := billing.NewRepository(conn)
	usageRepo := usage.NewRepository(conn)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, err
	}

	mailer, err := email.NewService(email.NewRepository(conn), email.NewSMTPSender(cfg.SMTP), logg)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Password:       &cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return nil, err
	}
	registerService, err := auth.NewDBRegisterService(dbClient, auth.RegisterServiceParams{
		PasswordConfig: cfg.Password,
		AppConfig:      cfg.App,
		Mailer:         mailer,
		Logger:         logg,
	})
	if err != nil {
		return nil, err
	}
	resetService, err := auth.NewPasswordResetService(auth.PasswordResetParams{
		UserRepo:       userRepo,
		Tokens:         redisClient,
		Mailer:         mailer,
		PasswordConfig: cfg.Password,
		AppConfig:      cfg.App,
		Logger:         logg,
	})
	if err != nil {
		return nil, err
	}

	toolService, err := tools.NewService(toolRepo, billingRepo)
	if err != nil {
		return nil, err
	}

	invoiceService, err := invoices.NewService(store, billingRepo)
	if err != nil {
		return nil, err
	}

	activator, err := subscriptions.NewActivator(subscriptions.ActivatorParams{
		Repo:     billingRepo,
		Mailer:   mailer,
		Invoices: invoiceService,
		Metrics:  billingMetrics,
		Logger:   logg,
		AppURL:   cfg.App.URL,
	})
	if err != nil {
		return nil, err
	}

	gateway := razorpay.NewClient(cfg.Razorpay)
	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		BillingRepo:       billingRepo,
		Tools:             toolRepo,
		Gateway:           gateway,
		Activator:         activator,
		TransactionRunner: dbClient,
		Metrics:           billingMetrics,
		Logger:            logg,
	})
	if err != nil {
		return nil, err
	}

	keywordService, err := keywords.NewService(keywords.ServiceParams{
		Tools:         toolRepo,
		Subscriptions: billingRepo,
		Usage:         usageRepo,
		Logger:        logg,
	})
	if err != nil {
		return nil, err
	}

	userService, err := users.NewService(userRepo)
	if err != nil {
		return nil, err
	}
	usageService, err := usage.NewService(usageRepo)
	if err != nil {
		return nil, err
	}
	contentService, err := content.NewService(content.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		Subscriptions: billingRepo,
		Users:         userRepo,
		Usage:         usageRepo,
		Tools:         toolRepo,
	})
	if err != nil {
		return nil, err
	}

	guard, err := razorpaywebhook.NewIdempotencyGuard(redisClient, cfg.Razorpay.WebhookTTL, "razorpay-webhook")
	if err != nil {
		return nil, err
	}
	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		BillingRepo: billingRepo,
		Verifier:    gateway,
		Activator:   activator,
		Invoices:    invoiceService,
		Guard:       guard,
		Metrics:     billingMetrics,
		Logger:      logg,
	})
	if err != nil {
		return nil, err
	}

	return &routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Cache:         redisClient,
		Sessions:      sessionManager,
		Auth:          authService,
		Register:      registerService,
		PasswordReset: resetService,
		Tools:         toolService,
		Keywords:      keywordService,
		Subscriptions: subscriptionService,
		Invoices:      invoiceService,
		Users:         userService,
		Usage:         usageService,
		Content:       contentService,
		Analytics:     analyticsService,
		Webhooks:      webhookService,
	}, nil
}
