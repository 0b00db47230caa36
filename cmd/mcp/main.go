package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/document-classifier/internal/adapters/mcp"
	"github.com/kirillkom/document-classifier/internal/bootstrap"
	"github.com/kirillkom/document-classifier/internal/config"
	"github.com/kirillkom/document-classifier/internal/observability/logging"
)

const serviceName = "classifier-mcp"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLoggerTo(os.Stderr, serviceName, "error").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the MCP stream.
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	go app.WatchReadiness(ctx, time.Duration(cfg.ModelProbeSeconds)*time.Second)

	s := mcpadapter.NewServer(serviceName, "1.0.0", app.Classifier)
	logger.Info("mcp_stdio_serving", "tool", mcpadapter.ToolClassifyDocument)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
