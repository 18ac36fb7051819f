// Command bot runs the leaderboard backend: the HTTP API the Discord
// frontend talks to, plus the background sync scheduler.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ctc-wpm/monkeyboard/internal/config"
	"github.com/ctc-wpm/monkeyboard/internal/server"
)

func main() {
	// A .env file is a convenience for local runs; absence is fine.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
