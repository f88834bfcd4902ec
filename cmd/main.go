package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/adapters/llm"
	"github.com/nextstep-labs/interview-server/adapters/stt"
	"github.com/nextstep-labs/interview-server/domain/repositories"
	"github.com/nextstep-labs/interview-server/internal/api"
	"github.com/nextstep-labs/interview-server/internal/auth"
	"github.com/nextstep-labs/interview-server/internal/config"
	"github.com/nextstep-labs/interview-server/internal/metrics"
	"github.com/nextstep-labs/interview-server/internal/websocket"
	"github.com/nextstep-labs/interview-server/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize adapters
	model, analyzer := newReasoningModel(ctx, cfg, logger)
	speechToText, closeSpeech := newSpeechToText(ctx, cfg, logger)
	defer closeSpeech()

	// Initialize usecase services
	registry := usecase.NewSessionRegistry(
		usecase.InterviewDeps{
			Model:        model,
			Analyzer:     analyzer,
			SpeechToText: speechToText,
			Scorer:       usecase.NewScorer(model, cfg.ScoringTimeout, logger),

			CredentialKey: cfg.CredentialKey(),
		},
		usecase.InterviewConfig{
			MaxTurns:        cfg.MaxTurns,
			QuestionTimeout: cfg.QuestionTimeout,
			AnalysisTimeout: cfg.AnalysisTimeout,
			Audio: repositories.AudioConfig{
				SampleRate: cfg.STTSampleRate,
				Encoding:   cfg.STTEncoding,
				Language:   cfg.STTLanguage,
			},
		},
		logger,
	)

	// Initialize WebSocket hub
	hub := websocket.NewHub(registry, logger)
	go hub.Run(ctx)

	cleanup := websocket.NewSessionCleanupService(registry, cfg.SessionIdleTTL, cfg.SessionCleanupInterval, logger)
	cleanup.Start()
	defer cleanup.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, api.Options{
		Registry:     registry,
		Hub:          hub,
		Tokens:       auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		RequireToken: cfg.JWTRequireToken,
		Logger:       logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(cfg.HTTPAddress()); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Interview server started",
		zap.String("address", cfg.HTTPAddress()),
		zap.String("provider", cfg.AIProvider),
		zap.Bool("reasoningModel", model != nil),
		zap.Bool("speechToText", speechToText != nil),
		zap.Int("maxTurns", cfg.MaxTurns))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	logger.Info("Server exited")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

// newReasoningModel selects the configured provider. A missing credential
// leaves both capabilities nil; session creation then reports the problem.
func newReasoningModel(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.ReasoningModel, repositories.BehaviorAnalyzer) {
	switch cfg.AIProvider {
	case config.ProviderMock:
		logger.Warn("Using the scripted mock reasoning model")
		mock := llm.NewMockLLM()
		return mock, mock

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn(cfg.CredentialKey() + " not configured; sessions cannot be created")
			return nil, nil
		}
		client, err := llm.NewOpenAILLM(llm.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize OpenAI client", zap.Error(err))
			return nil, nil
		}
		return client, client

	default:
		if cfg.GeminiAPIKey == "" {
			logger.Warn(cfg.CredentialKey() + " not configured; sessions cannot be created")
			return nil, nil
		}
		client, err := llm.NewGeminiLLM(ctx, llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", zap.Error(err))
			return nil, nil
		}
		return client, client
	}
}

// newSpeechToText returns the transcription fallback, or nil when disabled.
func newSpeechToText(ctx context.Context, cfg config.Config, logger *zap.Logger) (repositories.SpeechToText, func()) {
	noop := func() {}

	if cfg.AIProvider == config.ProviderMock {
		return stt.NewMockSpeechToText(logger), noop
	}
	if !cfg.STTEnabled {
		return nil, noop
	}

	client, err := stt.NewGoogleSpeechToText(ctx, logger)
	if err != nil {
		logger.Warn("Speech-to-text unavailable; empty answers stay empty", zap.Error(err))
		return nil, noop
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close speech client", zap.Error(err))
		}
	}
}
