// Command bot starts the Discord AI assistant.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/discord-ai-bot/internal/adapter/ai"
	"github.com/fairyhunter13/discord-ai-bot/internal/adapter/discordbot"
	"github.com/fairyhunter13/discord-ai-bot/internal/adapter/observability"
	"github.com/fairyhunter13/discord-ai-bot/internal/app"
	"github.com/fairyhunter13/discord-ai-bot/internal/config"
	"github.com/fairyhunter13/discord-ai-bot/internal/usecase"
)

func main() {
	// Optional .env for local development; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so that /metrics
	// exposes dispatch and provider instrumentation.
	observability.InitMetrics()

	// Provider invariants fail here, before any request is attempted.
	if err := cfg.ValidateProviders(); err != nil {
		slog.Error("provider configuration invalid", slog.Any("error", err))
		os.Exit(1)
	}

	systemPrompt := cfg.LoadSystemPrompt()

	dispatcher := ai.NewDispatcher(cfg, systemPrompt)
	replySvc := usecase.NewReplyService(dispatcher, cfg.BotName, cfg.MaxResponseLength)

	bot, err := discordbot.New(cfg.DiscordToken, cfg.BotName, replySvc)
	if err != nil {
		slog.Error("discord session init failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()
	if err := bot.Open(ctx); err != nil {
		slog.Error("discord gateway connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = bot.Close() }()

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.BuildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
