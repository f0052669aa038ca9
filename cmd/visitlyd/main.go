package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visitly-dev/visitly/internal/api"
	"github.com/visitly-dev/visitly/internal/clock"
	"github.com/visitly-dev/visitly/internal/config"
	"github.com/visitly-dev/visitly/internal/identity"
	"github.com/visitly-dev/visitly/internal/server"
	"github.com/visitly-dev/visitly/internal/store"
	"github.com/visitly-dev/visitly/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(log)

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("create data directory", "error", err)
			os.Exit(1)
		}
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	hasher, err := identity.NewHasher([]byte(cfg.Pepper))
	if err != nil {
		log.Error("init hasher", "error", err)
		os.Exit(1)
	}

	clk := clock.Real{}
	trk := tracker.New(hasher, st, clk, cfg.MinPingInterval)

	gin.SetMode(gin.ReleaseMode)
	router := server.New(&api.Handler{
		Tracker: trk,
		Store:   st,
		Clock:   clk,
		Log:     log,
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router}

	go func() {
		log.Info("http server listening",
			"port", cfg.HTTPPort,
			"min_ping_interval", trk.MinInterval().String(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("exiting")
}

func logLevel(raw string) slog.Level {
	switch strings.ToUpper(raw) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
