package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/zealsham/appointment-ai-agent/internal/api/router"
	"github.com/zealsham/appointment-ai-agent/internal/appointments"
	appconfig "github.com/zealsham/appointment-ai-agent/internal/config"
	"github.com/zealsham/appointment-ai-agent/internal/conversation"
	"github.com/zealsham/appointment-ai-agent/internal/notify"
	"github.com/zealsham/appointment-ai-agent/internal/observability/metrics"
	"github.com/zealsham/appointment-ai-agent/internal/profile"
	"github.com/zealsham/appointment-ai-agent/internal/schedule"
	"github.com/zealsham/appointment-ai-agent/internal/session"
	"github.com/zealsham/appointment-ai-agent/internal/webchat"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting appointment agent API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	archiveDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open archive db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = archiveDB.Close() }()

	sessionStore := newSessionStore(cfg, logger)

	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		logger.Error("failed to load profile", "error", err, "path", cfg.ProfilePath)
		os.Exit(1)
	}
	if prof != nil {
		logger.Info("identity profile loaded", "name", prof.Name())
	} else {
		logger.Info("no identity profile, anonymous capture enabled", "path", cfg.ProfilePath)
	}

	notifyService := notify.NewService(newEmailSender(cfg, logger), cfg.NotifyRecipient, logger.Component("notify"))

	repo := appointments.NewRepository(pool)
	manager := appointments.NewManager(repo, notifyService, schedule.Validator{}, logger.Component("appointments"))

	llmClient := conversation.NewOpenAIClient(conversation.OpenAIConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	})

	engine := conversation.NewEngine(conversation.EngineConfig{
		Store:       sessionStore,
		LLM:         llmClient,
		Manager:     manager,
		Profile:     prof,
		Reconciler:  conversation.Reconciler{Fallback: schedule.FallbackParser{DefaultYear: cfg.DefaultYear}},
		Archive:     conversation.NewArchiveStore(archiveDB),
		Metrics:     metrics.NewConversationMetrics(nil),
		Logger:      logger.Component("conversation"),
		Model:       cfg.LLMModel,
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: cfg.LLMTemperature,
	})

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(engine, repo, logger.Component("http")),
		WebchatHandler:      webchat.NewHandler(webchat.EngineAdapter{Engine: engine}, logger.Component("webchat")),
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newSessionStore(cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if cfg.UseMemorySessions || cfg.RedisAddr == "" {
		logger.Info("using in-memory session store")
		return session.NewMemoryStore()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	return session.NewRedisStore(client, cfg.SessionTTL)
}

func newEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but not configured, falling back to stub sender")
	case "smtp":
		port, _ := strconv.Atoi(cfg.SMTPPort)
		if sender := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     port,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFromEmail,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("smtp selected but not configured, falling back to stub sender")
	}
	return notify.NewStubEmailSender(logger)
}
