package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/okastudio/platewatch/internal/app"
	"github.com/okastudio/platewatch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := app.Load(*configPath)
	if err != nil {
		logger.Error("configuration failed", zap.Error(err))
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	stack, err := buildStack(cfg)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		os.Exit(1)
	}

	if err := stack.cleaner.Start(); err != nil {
		logger.Error("maintenance start failed", zap.Error(err))
		os.Exit(1)
	}

	go func() {
		logger.Info("server listening", zap.String("addr", stack.server.Addr))
		if err := stack.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	stack.cleaner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := stack.server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	if sqlDB, err := stack.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("shutdown complete")
}
