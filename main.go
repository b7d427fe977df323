package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/macro-diary/internal/api"
	"github.com/vladimiradmaev/macro-diary/internal/bot"
	"github.com/vladimiradmaev/macro-diary/internal/bot/handlers"
	"github.com/vladimiradmaev/macro-diary/internal/bot/state"
	"github.com/vladimiradmaev/macro-diary/internal/config"
	"github.com/vladimiradmaev/macro-diary/internal/diary"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
	"github.com/vladimiradmaev/macro-diary/internal/repository"
	"github.com/vladimiradmaev/macro-diary/internal/services"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	defer logger.Close()

	logger.Info("Starting Macro Diary", "storage", cfg.Storage.Driver, "language", cfg.Language)
	if envErr != nil {
		logger.Debug(".env file not loaded", "error", envErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := repository.New(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", "error", err)
	}
	defer repo.Close()

	ai, err := services.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		logger.Fatal("Failed to initialize AI services", "error", err)
	}
	if closer, ok := ai.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	diarySvc := diary.NewService(diary.Options{
		Store:          diary.LoadStore(ctx, repo),
		Repository:     repo,
		FoodEntry:      services.NewFoodEntryService(ai),
		Recommendation: services.NewRecommendationService(ai),
		Reports:        services.NewReportService(ai, cfg.Language),
		Goals:          cfg.Goals,
		Language:       cfg.Language,
	})
	logger.Info("Services initialized", "ai_provider", ai.Name())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if cfg.TelegramToken != "" {
		stateManager := newStateManager(cfg)
		telegramBot, err := bot.NewBot(cfg.TelegramToken, handlers.Dependencies{
			Diary:    diarySvc,
			Language: cfg.Language,
		}, stateManager)
		if err != nil {
			logger.Fatal("Failed to create bot", "error", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	if cfg.HTTPAddr != "" {
		server := api.NewServer(cfg.HTTPAddr, diarySvc)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Start(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		logger.Error("Service stopped with error", "error", err)
	}

	logger.Info("Shutting down")
	cancel()
	wg.Wait()
}

// newStateManager prefers redis when configured and falls back to memory
func newStateManager(cfg *config.Config) state.StateManager {
	if !cfg.Redis.Enabled() {
		return state.NewManager()
	}
	rm, err := state.NewRedisManager(cfg.Redis.Host, cfg.Redis.Port)
	if err != nil {
		logger.Warn("Redis unavailable, keeping conversation state in memory", "error", err)
		return state.NewManager()
	}
	logger.Info("Conversation state stored in Redis", "host", cfg.Redis.Host)
	return rm
}
