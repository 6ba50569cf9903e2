package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/docs-analyzer/internal/common"
	"github.com/joseph-ayodele/docs-analyzer/internal/export"
	"github.com/joseph-ayodele/docs-analyzer/internal/llm/openai"
	"github.com/joseph-ayodele/docs-analyzer/internal/metrics"
	"github.com/joseph-ayodele/docs-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/docs-analyzer/internal/prompts"
	"github.com/joseph-ayodele/docs-analyzer/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("dotenv.load_error", "error", err)
	}

	settings, err := common.LoadSettings()
	if err != nil {
		logger.Error("settings.load_failed", "error", err)
		os.Exit(2)
	}
	store, err := prompts.Load(settings.Prompt.Path, prompts.Options{Strict: settings.Prompt.Strict, Logger: logger})
	if err != nil {
		logger.Error("prompts.load_failed", "path", settings.Prompt.Path, "error", err)
		os.Exit(2)
	}

	metrics.Register()
	client := openai.NewClient(openai.ConfigFromSettings(settings), logger)
	proc := pipeline.NewProcessor(logger, settings, store, client)
	srv := server.NewServer(logger, settings, store, proc, export.NewService(logger))

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http.serve.start",
			"addr", settings.Server.Addr,
			"languages", store.Languages(),
			"models", settings.ModelLabels(),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http.serve.failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("http.serve.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http.serve.shutdown_error", "error", err)
		os.Exit(1)
	}
	logger.Info("http.serve.stopped")
}
