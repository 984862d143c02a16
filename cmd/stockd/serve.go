package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stockservice/internal/config"
	"stockservice/internal/http/handlers"
	applog "stockservice/internal/log"
	"stockservice/internal/repos"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*cfg)
		},
	}
}

func serve(cfg config.Config) error {
	// Optional file logging
	var sink io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
		}
		defer f.Close()
		sink = io.MultiWriter(os.Stdout, f)
	}
	applog.Setup(sink, cfg.LogLevel)
	applog.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s BODY_LIMIT=%d RATE_LIMIT=%d",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.BodyLimit, cfg.RateLimit)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	app, err := handlers.NewApp(db, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- app.Listen(cfg.Addr()) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		applog.Printf("[shutdown] draining connections")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
