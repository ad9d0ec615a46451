package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/logguard-ai/logguard/internal/ai"
	"github.com/logguard-ai/logguard/internal/api"
	"github.com/logguard-ai/logguard/internal/graylog"
	"github.com/logguard-ai/logguard/internal/metrics"
	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/internal/monitor"
	"github.com/logguard-ai/logguard/internal/notifier"
	"github.com/logguard-ai/logguard/internal/replies"
	"github.com/logguard-ai/logguard/internal/store"
	"github.com/logguard-ai/logguard/internal/stream"
	"github.com/logguard-ai/logguard/pkg/config"
	"github.com/logguard-ai/logguard/pkg/logger"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "logguard-server",
	Short: "LogGuard AI - Intelligent log monitoring with AI-powered alerting",
	Long: `LogGuard AI polls a Graylog-compatible log store, classifies new
entries with a language model, and routes anomalies to Telegram and
email with a conversational reply loop.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("logguard-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the configured log store and AI endpoints",
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*Config, error) {
	var cfg *Config
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gl := graylog.NewClient(cfg.App.Graylog, nil)
	aiClient := ai.NewClient(cfg.App.AI, nil)

	ok := true
	if gl.TestConnection(ctx) {
		fmt.Printf("graylog %-40s OK\n", cfg.App.Graylog.URL)
	} else {
		fmt.Printf("graylog %-40s FAILED\n", cfg.App.Graylog.URL)
		ok = false
	}
	if aiClient.TestConnection(ctx) {
		fmt.Printf("ai      %-40s OK\n", cfg.App.AI.URL)
	} else {
		fmt.Printf("ai      %-40s FAILED\n", cfg.App.AI.URL)
		ok = false
	}
	if !ok {
		return fmt.Errorf("one or more connectivity checks failed")
	}
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Setup(cfg.Logging.Level)
	mainLog := logger.Component("main")
	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	// The persisted runtime config wins over the file; the file only
	// seeds the first boot.
	var appCfg models.AppConfig
	err = st.Get(ctx, store.KeyConfig, &appCfg)
	if errors.Is(err, store.ErrNotFound) {
		appCfg = cfg.App
		if err := st.Put(ctx, store.KeyConfig, appCfg); err != nil {
			return fmt.Errorf("seed config: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("load persisted config: %w", err)
	}

	recorder := metrics.NewRecorder(0)
	gl := graylog.NewClient(appCfg.Graylog, recorder)
	aiClient := ai.NewClient(appCfg.AI, recorder)
	classifier := ai.NewClassifier(aiClient)
	responder := ai.NewResponder(aiClient)

	telegram := notifier.NewTelegramNotifier(recorder)
	var transport notifier.MailTransport
	if cfg.SMTP != nil {
		transport, err = notifier.NewSMTPTransport(*cfg.SMTP)
		if err != nil {
			return err
		}
	} else {
		transport = notifier.NewLogTransport()
		mainLog.Info("no SMTP relay configured, email notifications are logged only")
	}
	email := notifier.NewEmailNotifier(transport)

	dispatcher := notifier.NewDispatcherWithRateLimit(appCfg.Notifications, telegram, email, notifier.RateLimitConfig{
		MaxPerWindow: cfg.Monitor.RateLimit.MaxPerMinute,
		Window:       time.Minute,
		Enabled:      cfg.Monitor.RateLimit.Enabled,
	})

	var appCfgMu sync.RWMutex
	currentNotifications := func() models.NotificationConfig {
		appCfgMu.RLock()
		defer appCfgMu.RUnlock()
		return appCfg.Notifications
	}
	applyConfig := func(newCfg models.AppConfig) {
		appCfgMu.Lock()
		appCfg = newCfg
		appCfgMu.Unlock()
		gl.SetConfig(newCfg.Graylog)
		aiClient.SetConfig(newCfg.AI)
		dispatcher.UpdateConfig(newCfg.Notifications)
		mainLog.Info("runtime configuration applied")
	}

	correlator := replies.NewCorrelator(st, responder, replies.NewChannelRelay(telegram, email, currentNotifications))
	if err := correlator.Load(ctx); err != nil {
		return fmt.Errorf("load reply history: %w", err)
	}

	poller := stream.NewPoller(gl, &stream.Options{
		Query:         cfg.Monitor.Query,
		Window:        cfg.Monitor.Window,
		PollInterval:  cfg.Monitor.PollInterval,
		RetryInterval: cfg.Monitor.RetryInterval,
	})
	mon := monitor.New(poller, classifier, dispatcher, monitor.NewRegistry(), gl, aiClient)

	jwtSecret := cfg.Server.JWTSecret
	if jwtSecret == "" {
		jwtSecret = uuid.New().String()
		mainLog.Warn("no JWT secret configured, tokens will not survive a restart")
	}
	apiKeyHash := cfg.Server.APIKeyHash
	if apiKeyHash == "" && cfg.Server.APIKey != "" {
		apiKeyHash, err = api.HashAPIKey(cfg.Server.APIKey)
		if err != nil {
			return err
		}
	}
	if apiKeyHash == "" {
		mainLog.Warn("no API key configured, dashboard login is disabled")
	}

	srv := api.NewServer(ctx, api.Options{
		Addr:                 cfg.Server.Address,
		JWTSecret:            []byte(jwtSecret),
		TokenTTL:             cfg.Server.TokenTTL,
		APIKeyHash:           apiKeyHash,
		Store:                st,
		Monitor:              mon,
		Correlator:           correlator,
		Dispatcher:           dispatcher,
		Graylog:              gl,
		AI:                   aiClient,
		Recorder:             recorder,
		OnConfigUpdate:       applyConfig,
		WebhookRatePerSecond: cfg.Server.WebhookRatePerSec,
		WebhookBurst:         cfg.Server.WebhookBurst,
	})

	if configFile != "" {
		stopWatch, err := watchConfig(configFile, func(next *Config) {
			logger.Setup(next.Logging.Level)
			mainLog.WithField("level", next.Logging.Level).Info("config file reloaded")
		})
		if err != nil {
			mainLog.WithError(err).Warn("config file watch unavailable")
		} else {
			defer stopWatch()
		}
	}

	if cfg.Monitor.AutoStart {
		if err := mon.Start(ctx); err != nil {
			mainLog.WithError(err).Warn("automatic monitoring start failed")
		}
	}

	mainLog.WithFields(log.Fields{
		"version": config.Version,
		"addr":    cfg.Server.Address,
	}).Info("logguard-server starting")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		mainLog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	mon.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	mainLog.Info("server stopped")
	return nil
}
