package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onichmath/Tarpaulin/internal/config"
	internalhttp "github.com/onichmath/Tarpaulin/internal/http"
	"github.com/onichmath/Tarpaulin/internal/logger"
	"github.com/onichmath/Tarpaulin/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.New(os.Stdout)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error("db connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		_ = store.Close(context.Background())
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := internalhttp.NewServer(cfg, store, log)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("tarpaulin listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
}
