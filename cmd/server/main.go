package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/laserquote/internal/app"
	"github.com/Simplici0/laserquote/internal/config"
	"github.com/Simplici0/laserquote/internal/logging"
	"github.com/Simplici0/laserquote/web"
)

func main() {
	cfg := config.Load()

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer logging.Sync()
	logger := logging.With(zap.String("component", "server"))
	logger.Info("service_starting", zap.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Open(ctx, cfg, app.Options{Logger: logger})
	if err != nil {
		logger.Fatal("startup_failed", zap.Error(err))
	}
	defer a.Close()

	pages, err := web.Load()
	if err != nil {
		logger.Fatal("templates_failed", zap.Error(err))
	}

	srv := &server{
		quotes:   a.Quotes,
		catalog:  a.Catalog,
		settings: a.Settings,
		pages:    pages,
		limiter:  newClientLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:   logger,
	}

	addr := ":" + cfg.Port
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listen", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	logger.Info("shutdown_signal", zap.String("signal", s.String()))

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := httpSrv.Shutdown(ctxSrv); err != nil {
		logger.Error("http_shutdown_error", zap.Error(err))
	}
	logger.Info("service_stopped")
}
