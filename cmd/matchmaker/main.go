// cmd/matchmaker/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mentormatch/internal/api"
	"mentormatch/internal/common/config"
	"mentormatch/internal/common/database"
	"mentormatch/internal/common/geocode"
	"mentormatch/internal/common/interests"
	"mentormatch/internal/common/llm"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/common/observability"
	"mentormatch/internal/workflow"
	"mentormatch/pkg/registry"

	ei "mentormatch/internal/workers/cv-analysis/extract-interests"
	cm "mentormatch/internal/workers/matching/calculate-matches"
	gp "mentormatch/internal/workers/matching/geocode-postcodes"
	vr "mentormatch/internal/workers/matching/validate-request"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matchmaker service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Workflow store ---
	store := workflow.NewPostgresStore(pg.DB)
	if err := store.Migrate(ctx); err != nil {
		zapLog.Fatal("workflow store migration failed", zap.Error(err))
	}
	zapLog.Info("Workflow store ready")

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Data.RegistryPath)
	if err != nil {
		zapLog.Fatal("failed to load activity registry", zap.Error(err))
	}
	validator, err := registry.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("failed to compile registry schemas", zap.Error(err))
	}
	zapLog.Info("Activity registry loaded", zap.Int("activities", len(reg.Activities)))

	// --- Interest vocabulary ---
	vocab, err := interests.Load(cfg.Data.InterestsCSVPath)
	if err != nil {
		zapLog.Fatal("failed to load interest vocabulary", zap.Error(err))
	}
	zapLog.Info("Interest vocabulary loaded", zap.Int("tags", vocab.Len()))

	// --- External service clients ---
	nominatim := geocode.NewNominatimClient(
		cfg.APIs.Nominatim.BaseURL,
		cfg.APIs.Nominatim.UserAgent,
		cfg.APIs.Nominatim.CountryName,
		cfg.APIs.Nominatim.CountryCode,
		time.Duration(cfg.APIs.Nominatim.TimeoutMS)*time.Millisecond,
	)
	resolver := geocode.NewResolver(
		nominatim,
		rdb.Client,
		time.Duration(cfg.APIs.Nominatim.RateDelayMS)*time.Millisecond,
		log,
	)

	llmClient := llm.NewClient(
		cfg.APIs.LLM.BaseURL,
		cfg.APIs.LLM.APIKey,
		cfg.APIs.LLM.Model,
		time.Duration(cfg.APIs.LLM.TimeoutMS)*time.Millisecond,
	)
	zapLog.Info("External service clients initialized", zap.String("model", llmClient.Model()))

	// --- Workflow engine and workers ---
	engine := workflow.NewEngine(store, validator, log)

	extractHandler := ei.NewHandler(ei.LoadConfig(), llmClient, vocab, log)
	validateHandler := vr.NewHandler(vr.LoadConfig(), log)
	geocodeHandler := gp.NewHandler(gp.LoadConfig(), resolver, log)
	calculateHandler := cm.NewHandler(cm.LoadConfig(), llmClient, log)

	cvWorkflow := workflow.NewCVAnalysisWorkflow(engine, extractHandler.Activity(), log)
	matchingWorkflow := workflow.NewMatchingWorkflow(
		engine,
		validateHandler.Activity(),
		geocodeHandler.Activity(),
		calculateHandler.Activity(),
		log,
	)
	runner := workflow.NewRunner(engine, cvWorkflow, matchingWorkflow, obs, log)
	zapLog.Info("Workflow engine ready")

	// Finish whatever the previous process left behind before accepting
	// new work. Checkpointed activity results replay instead of re-running.
	if err := runner.Recover(ctx); err != nil {
		zapLog.Error("Workflow recovery failed", zap.Error(err))
	}

	// --- HTTP server ---
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewServer(runner, vocab, cfg.App.Name, log).Routes(),
		// Matching runs synchronously and may retry external calls, so the
		// write timeout must cover the slowest workflow, not a typical request.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Matchmaker stopped gracefully")
}
