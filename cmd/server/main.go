package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/notebrief/core/internal/app"
	"github.com/notebrief/core/internal/config"
	"github.com/notebrief/core/internal/pkg/nativelog"
	"github.com/notebrief/core/internal/pkg/proctitle"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional, "+config.DefaultConfigPath+" is picked up when present)")
	flag.Parse()

	_ = proctitle.Set("notebrief")
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrapFatal("failed to load config", err)
	}
	if err := app.ApplyRuntimeSettings(cfg); err != nil {
		bootstrapFatal("failed to apply runtime settings", err)
	}

	logger, err := nativelog.NewZapLogger()
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("native log pipeline unavailable, fallback to zap production logger", zap.Error(err))
	}
	defer logger.Sync()

	application, err := app.New(logger, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    application.Addr(),
		Handler: application.Router(),
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		logger.Info("open the summarizer", zap.String("url", "http://localhost"+srv.Addr+"/"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	application.Shutdown()
	logger.Info("server exited")
}

// bootstrapFatal reports init errors that happen before the real logger
// exists.
func bootstrapFatal(msg string, err error) {
	logger, zerr := zap.NewProduction()
	if zerr != nil {
		panic(msg + ": " + err.Error())
	}
	logger.Fatal(msg, zap.Error(err))
}
