package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gwi.com/reelpick/internal/api"
	"gwi.com/reelpick/internal/auth"
	"gwi.com/reelpick/internal/config"
	"gwi.com/reelpick/internal/core"
	"gwi.com/reelpick/internal/logging"
	"gwi.com/reelpick/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logging.Info().
		Str("environment", cfg.Environment).
		Str("database_driver", cfg.DatabaseDriver).
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Msg("Service starting")

	if cfg.JWTSecret == "" {
		logging.Warn().Msg("JWT_SECRET is not set; login requests will fail with 500 until it is configured")
	}
	if !cfg.ConstantTimeLogin {
		logging.Debug().Msg("Constant-time login is disabled; unknown emails return before password hashing")
	}

	ctx := context.Background()

	// Initialize database store
	dbStore, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer dbStore.Close()

	// Initialize LLM service
	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize completion client")
	}
	llmService := core.NewLLMService(completer, cfg.LLMTimeout, core.BreakerSettings{
		MaxFailures:   cfg.LLMBreakerFailures,
		OpenFor:       cfg.LLMBreakerOpenFor,
		HalfOpenProbe: cfg.LLMBreakerHalfOpenProbe,
	})
	defer llmService.Close()

	authService, err := core.NewAuthService(dbStore,
		auth.NewTokenCodec(cfg.JWTSecret, cfg.SessionTTL),
		core.WithConstantTimeLogin(cfg.ConstantTimeLogin))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize auth service")
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(
		authService,
		core.NewLikeService(dbStore),
		core.NewRecommendationService(dbStore, llmService),
		cfg.IsProduction(),
	)
	router := api.NewRouter(apiHandler, api.RouterConfig{
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitDisabled: cfg.RateLimitDisabled,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		LoginRateLimit:    cfg.LoginRateLimit,
	})

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.LLMTimeout + 15*time.Second, // LLM calls can take time
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", serverAddr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Str("addr", serverAddr).Msg("Could not listen")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	// llmService.Close() and dbStore.Close() will be called by their defers.
	logging.Info().Msg("Server exiting gracefully")
}

func newCompleter(ctx context.Context, cfg *config.Config) (core.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return core.NewGeminiCompleter(ctx, cfg.LLMAPIKey, cfg.LLMModel)
	case config.ProviderGroq:
		return core.NewOpenAICompleter(cfg.LLMProvider, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, &http.Client{}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}
