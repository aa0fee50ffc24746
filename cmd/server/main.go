package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/zynqcloud/go-target/internal/config"
	"github.com/zynqcloud/go-target/internal/handler"
	"github.com/zynqcloud/go-target/internal/target"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(2)
	}

	// The one controller for the process; everything else receives the handle.
	handle := target.NewHandle(target.New(cfg.TargetOptions()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.New(cfg, handle, logger),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: a download of the whole target can take hours.
		IdleTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Info("target service starting",
			"port", cfg.Port, "mode", cfg.Mode.String(), "path", cfg.TargetPath, "size", cfg.HumanSize(),
			"max_readers", cfg.MaxReaders, "download_slots", cfg.MaxConcurrentDownloads)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// shutdownSignals and reloadSignals are defined in signals.go and
	// extended per platform by signals_unix.go.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, shutdownSignals...)
	reload := make(chan os.Signal, 1)
	if len(reloadSignals) > 0 {
		signal.Notify(reload, reloadSignals...)
	}

wait:
	for {
		select {
		case <-reload:
			reconfigure(handle, logger)
		case <-quit:
			break wait
		}
	}

	logger.Info("shutdown signal received, draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	logger.Info("target service stopped")
}

// reconfigure re-reads the environment and flags and applies the target
// settings under exclusive access. Open streams keep their tokens. Transport
// limits are fixed at startup and are not reloaded.
func reconfigure(handle *target.Handle, logger *slog.Logger) {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logger.Error("reload: invalid configuration, keeping current settings", "err", err)
		return
	}
	_ = handle.Update(func(c *target.Controller) error {
		c.Reconfigure(cfg.TargetOptions())
		return nil
	})
	logger.Info("reload: target reconfigured",
		"mode", cfg.Mode.String(), "path", cfg.TargetPath, "size", cfg.HumanSize())
}
