// triaged is the upper-GI triage orchestrator: it ingests endoscopy report
// PDFs posted to Room-1, drives the two-stage LLM pipeline, routes doctor
// and scheduler decisions, and posts the periodic supervisor summary — all
// the pieces wired together in internal/worker, internal/httpapi, and
// internal/summary.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/carlosapgomes/eda-triage/ent/user"
	"github.com/carlosapgomes/eda-triage/internal/admin"
	"github.com/carlosapgomes/eda-triage/internal/cleanup"
	"github.com/carlosapgomes/eda-triage/internal/clock"
	"github.com/carlosapgomes/eda-triage/internal/config"
	"github.com/carlosapgomes/eda-triage/internal/handlers"
	"github.com/carlosapgomes/eda-triage/internal/httpapi"
	"github.com/carlosapgomes/eda-triage/internal/inbound"
	"github.com/carlosapgomes/eda-triage/internal/inboundapi"
	"github.com/carlosapgomes/eda-triage/internal/llmclient"
	"github.com/carlosapgomes/eda-triage/internal/llmclient/deterministic"
	"github.com/carlosapgomes/eda-triage/internal/llmclient/provider"
	"github.com/carlosapgomes/eda-triage/internal/llmpipeline"
	"github.com/carlosapgomes/eda-triage/internal/messaging/slackadapter"
	"github.com/carlosapgomes/eda-triage/internal/pdfextract"
	"github.com/carlosapgomes/eda-triage/internal/promptstore"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/carlosapgomes/eda-triage/internal/recovery"
	"github.com/carlosapgomes/eda-triage/internal/store"
	"github.com/carlosapgomes/eda-triage/internal/summary"
	"github.com/carlosapgomes/eda-triage/internal/worker"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment", "path", envPath)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := store.NewClient(ctx, store.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("error closing database client", "error", err)
		}
	}()
	slog.Info("connected to database")

	q := queue.New(dbClient.Client, clock.SystemClock{})

	location, err := time.LoadLocation(cfg.SupervisorSummaryTimezone)
	if err != nil {
		slog.Error("failed to load supervisor summary timezone", "timezone", cfg.SupervisorSummaryTimezone, "error", err)
		os.Exit(1)
	}

	tokens := admin.NewTokenService()
	authService := admin.NewAuthService(dbClient.Client, tokens)
	userService := admin.NewUserService(dbClient.Client)
	if err := bootstrapAdmin(ctx, userService, cfg); err != nil {
		slog.Error("failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	prompts := promptstore.New(dbClient.Client)

	llm := buildLLMClient(cfg)
	pipeline := llmpipeline.New(dbClient.Client, llm, prompts)

	downloader := pdfextract.NewHTTPDownloader(30 * time.Second)
	extractor := pdfextract.NewPopplerExtractor()

	chat := slackadapter.New(cfg.MatrixAccessToken)
	cleanupService := cleanup.New(dbClient.Client, chat)

	summaryScheduler := summary.New(dbClient.Client, q, summary.Config{
		Room4ID:      cfg.Room4ID,
		Location:     location,
		MorningHour:  cfg.SupervisorSummaryMorningHour,
		EveningHour:  cfg.SupervisorSummaryEveningHour,
		TimezoneName: cfg.SupervisorSummaryTimezone,
	})
	summaryRuntime := summary.NewRuntime(summaryScheduler, 5*time.Minute)

	rooms := handlers.Rooms{Room1ID: cfg.Room1ID, Room2ID: cfg.Room2ID, Room3ID: cfg.Room3ID, Room4ID: cfg.Room4ID}
	jobHandlers := handlers.New(dbClient.Client, q, rooms, chat, downloader, extractor, pipeline, cleanupService, summaryScheduler, location)

	finalizer := worker.NewFinalizer(dbClient.Client, q)
	pool := worker.NewPool(worker.DefaultConfig(), q, finalizer, jobHandlers.Build())

	recoveryService := recovery.New(dbClient.Client, q)
	recoveryResult, err := recoveryService.Run(ctx)
	if err != nil {
		slog.Error("startup recovery scan failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup recovery scan complete",
		"reset_jobs", recoveryResult.ResetJobs,
		"scanned_cases", recoveryResult.ScannedCases,
		"enqueued_jobs", recoveryResult.EnqueuedJobs)

	pool.Start(ctx)
	defer pool.Stop()
	summaryRuntime.Start(ctx)
	defer summaryRuntime.Stop()

	server := httpapi.NewServer(httpapi.Config{
		Client:        dbClient.Client,
		Auth:          authService,
		Users:         userService,
		Prompts:       prompts,
		WebhookSecret: cfg.WebhookHMACSecret,
	})
	if err := server.ValidateWiring(); err != nil {
		slog.Error("server wiring incomplete", "error", err)
		os.Exit(1)
	}

	ingest := inbound.NewIngest(dbClient.Client, q)
	decisions := httpapi.NewDecisionUseCase(dbClient.Client)
	schedulerDecision := inbound.NewSchedulerDecision(dbClient.Client)
	cleanupTrigger := inbound.NewCleanupTrigger(dbClient.Client, q)
	router := inbound.NewRouter(cfg.Room1ID, cfg.Room2ID, cfg.Room3ID, decisions, schedulerDecision, cleanupTrigger)
	inboundapi.New(ingest, router, cfg.WebhookHMACSecret).Register(server.Echo())

	httpPort := getEnv("HTTP_PORT", "8080")
	slog.Info("starting triaged", "http_port", httpPort)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(":" + httpPort); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("http server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error shutting down http server", "error", err)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// bootstrapAdmin creates the configured operator account if it does not
// already exist, so a fresh deployment always has one admin login.
func bootstrapAdmin(ctx context.Context, users *admin.UserService, cfg *config.Settings) error {
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		return nil
	}

	existing, err := users.List(ctx)
	if err != nil {
		return err
	}
	for _, u := range existing {
		if u.Email == cfg.BootstrapAdminEmail {
			return nil
		}
	}

	_, err = users.CreateUser(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, string(user.RoleAdmin))
	if err != nil {
		return err
	}
	slog.Info("bootstrapped admin account", "email", cfg.BootstrapAdminEmail)
	return nil
}

// buildLLMClient selects the LLM provider binding by LLM_RUNTIME_MODE (§6):
// "provider" calls a real OpenAI-compatible endpoint, "deterministic" runs
// entirely against scripted fixture responses so a full end-to-end pass
// needs no external LLM account.
func buildLLMClient(cfg *config.Settings) llmclient.Client {
	if cfg.LLMRuntimeMode == "provider" {
		return provider.New(provider.Config{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModelLLM1,
			Timeout: time.Duration(cfg.OpenAITimeoutSec * float64(time.Second)),
		})
	}
	return deterministic.NewFixtureClient()
}
