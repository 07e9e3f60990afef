package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/saastools-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/saastools-backend/api/controllers/webhooks"
	"github.com/angelmondragon/saastools-backend/api/middleware"
	"github.com/angelmondragon/saastools-backend/internal/analytics"
	"github.com/angelmondragon/saastools-backend/internal/auth"
	"github.com/angelmondragon/saastools-backend/internal/subscriptions"
	"github.com/angelmondragon/saastools-backend/internal/tools"
	"github.com/angelmondragon/saastools-backend/internal/users"
	"github.com/angelmondragon/saastools-backend/pkg/auth/session"
	"github.com/angelmondragon/saastools-backend/pkg/config"
	"github.com/angelmondragon/saastools-backend/pkg/db"
	"github.com/angelmondragon/saastools-backend/pkg/enums"
	"github.com/angelmondragon/saastools-backend/pkg/logger"
	"github.com/angelmondragon/saastools-backend/pkg/metrics"
	"github.com/angelmondragon/saastools-backend/pkg/redis"
)

// Cache is the Redis surface the HTTP layer needs.
type Cache interface {
	redis.Pinger
	redis.IdempotencyStore
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	middleware.WindowLimiter
}

// Deps carries every service the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Cache    Cache
	Sessions session.AccessSessionChecker

	Auth          auth.Service
	Register      auth.RegisterService
	PasswordReset auth.PasswordResetService
	Tools         tools.Service
	Keywords      controllers.KeywordResearcher
	Subscriptions subscriptions.Service
	Invoices      controllers.InvoiceService
	Users         users.Service
	Usage         controllers.UsageLister
	Content       controllers.ContentSections
	Analytics     analytics.Service
	Webhooks      webhookcontrollers.RazorpayWebhookService

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
	// InvoiceFiles serves locally stored invoices under Config.Storage.PublicURL.
	InvoiceFiles http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.App.URL),
	)

	limits := cfg.AuthRateLimit
	loginPolicy := middleware.RateLimitPolicy{Name: "login", Window: limits.LoginWindow, PerIP: limits.LoginIPLimit, PerEmail: limits.LoginEmailLimit}
	registerPolicy := middleware.RateLimitPolicy{Name: "register", Window: limits.RegisterWindow, PerIP: limits.RegisterIPLimit, PerEmail: limits.RegisterEmailLimit}
	forgotPolicy := registerPolicy
	forgotPolicy.Name = "forgot-password"

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	requireAdmin := middleware.RequireRole(logg, enums.UserRoleAdmin)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Cache))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	if prefix := strings.TrimRight(cfg.Storage.PublicURL, "/"); d.InvoiceFiles != nil && strings.HasPrefix(prefix, "/") {
		r.Handle(prefix+"/*", http.StripPrefix(prefix, d.InvoiceFiles))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/razorpay", webhookcontrollers.RazorpayWebhook(d.Webhooks, logg))
		r.Get("/content/{section}", controllers.ContentSection(d.Content, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(registerPolicy, d.Cache, logg)).Post("/register", controllers.AuthRegister(d.Register, logg))
			r.With(middleware.RateLimit(loginPolicy, d.Cache, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.Post("/verify", controllers.AuthVerify(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
			r.With(middleware.RateLimit(forgotPolicy, d.Cache, logg)).Post("/forgot-password", controllers.AuthForgotPassword(d.PasswordReset, logg))
			r.Post("/reset-password", controllers.AuthResetPassword(d.PasswordReset, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/tools", controllers.ToolList(d.Tools, logg))
			r.Get("/tools/{toolId}", controllers.ToolGet(d.Tools, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.Idempotency(d.Cache, logg))

			r.With(requireAdmin).Post("/tools", controllers.AdminToolCreate(d.Tools, logg))
			r.Post("/tools/{toolId}/subscribe", controllers.ToolSubscribe(d.Subscriptions, logg))
			r.Post("/tools/keyword-research", controllers.KeywordResearch(d.Keywords, logg))
			r.Post("/tools/keyword-research/export", controllers.KeywordExport(d.Keywords, logg))

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/verify-payment", controllers.SubscriptionVerifyPayment(d.Subscriptions, logg))
				r.Get("/{subscriptionId}/invoice", controllers.SubscriptionInvoice(d.Invoices, logg))
			})

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", controllers.UserProfile(d.Users, logg))
				r.Put("/profile", controllers.UserProfileUpdate(d.Users, logg))
				r.Get("/subscriptions", controllers.UserSubscriptions(d.Subscriptions, logg))
				r.Get("/usage", controllers.UserUsage(d.Usage, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(requireAdmin)
		r.Use(middleware.Idempotency(d.Cache, logg))

		r.Get("/analytics", controllers.AdminAnalytics(d.Analytics, logg))
		r.Get("/users", controllers.AdminUsers(d.Analytics, logg))
		r.Get("/tools", controllers.AdminToolList(d.Tools, logg))
		r.Post("/tools", controllers.AdminToolCreate(d.Tools, logg))
		r.Put("/tools/{toolId}", controllers.AdminToolUpdate(d.Tools, logg))
		r.Post("/invoices", controllers.AdminInvoiceGenerate(d.Invoices, logg))
	})

	return r
}
