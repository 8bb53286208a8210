// Package main implements the entry point for the Lexiday API server,
// which delivers one vocabulary word per user per day, tracks
// spaced-repetition review state, and generates new vocabulary with an LLM.
package main

import (
	"log"
	"log/slog"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is a local-dev convenience; in production everything
	// comes from real environment variables.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env file")
	}

	cfg, err := loadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		logger.Error("server exited with error", "error", err)
		log.Fatalf("Server exited with error: %v", err)
	}
}
