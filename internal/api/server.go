// Package api exposes the HTTP surface: dashboard endpoints, inbound
// reply webhooks, health, and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/monitor"
	"github.com/logguard-ai/logguard/internal/notifier"
	"github.com/logguard-ai/logguard/internal/replies"
	"github.com/logguard-ai/logguard/internal/store"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// Options configures the Server.
type Options struct {
	Addr       string
	JWTSecret  []byte
	TokenTTL   time.Duration
	APIKeyHash string // bcrypt hash of the dashboard API key

	Store      *store.Store
	Monitor    *monitor.Monitor
	Correlator *replies.Correlator
	Dispatcher *notifier.Dispatcher
	Graylog    monitor.ConnectionTester
	AI         monitor.ConnectionTester
	Recorder   *metrics.Recorder

	// OnConfigUpdate is invoked after a new configuration is persisted.
	OnConfigUpdate func(models.AppConfig)

	// WebhookRatePerSecond bounds inbound webhook traffic per client IP.
	WebhookRatePerSecond float64
	WebhookBurst         int
}

// Server is the HTTP server.
type Server struct {
	opts       Options
	jwt        *JWTService
	httpServer *http.Server
	runCtx     context.Context
	log        *log.Entry
}

// NewServer creates the server. runCtx is the application lifetime
// context; monitoring started over HTTP runs under it, not under the
// request context.
func NewServer(runCtx context.Context, opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.WebhookRatePerSecond <= 0 {
		opts.WebhookRatePerSecond = 5
	}
	if opts.WebhookBurst <= 0 {
		opts.WebhookBurst = 10
	}

	s := &Server{
		opts:   opts,
		jwt:    NewJWTService(opts.JWTSecret, opts.TokenTTL),
		runCtx: runCtx,
		log:    logger.Component("api"),
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	webhookLimiter := NewIPRateLimiter(s.opts.WebhookRatePerSecond, s.opts.WebhookBurst)
	loginLimiter := NewIPRateLimiter(1, 5)

	r.Use(RequestLogger)
	r.Use(Metrics)
	r.Use(Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RateLimitByIP(loginLimiter))
			r.Post("/auth/login", s.handleLogin)
		})

		// Channel providers cannot carry dashboard tokens, so the
		// inbound webhooks are public but rate limited.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitByIP(webhookLimiter))
			r.Post("/webhooks/telegram", s.handleTelegramWebhook)
			r.Post("/webhooks/email", s.handleEmailWebhook)
		})

		r.Group(func(r chi.Router) {
			r.Use(JWTAuth(s.jwt))

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", s.handleListAlerts)
				r.Get("/stats", s.handleAlertStats)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAlert)
					r.Post("/acknowledge", s.handleAcknowledgeAlert)
					r.Post("/resolve", s.handleResolveAlert)
					r.Get("/responses", s.handleAlertResponses)
				})
			})

			r.Route("/monitor", func(r chi.Router) {
				r.Post("/start", s.handleMonitorStart)
				r.Post("/stop", s.handleMonitorStop)
				r.Get("/status", s.handleMonitorStatus)
			})

			r.Route("/config", func(r chi.Router) {
				r.Get("/", s.handleGetConfig)
				r.Put("/", s.handlePutConfig)
			})

			r.Route("/replies", func(r chi.Router) {
				r.Get("/messages", s.handleListMessages)
				r.Get("/responses", s.handleListResponses)
			})

			r.Get("/metrics/summary", s.handleMetricsSummary)
			r.Get("/notifications/stats", s.handleNotificationStats)
		})
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start begins serving. Blocks until the listener fails or Shutdown.
func (s *Server) Start() error {
	s.log.WithField("addr", s.opts.Addr).Info("HTTP server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
