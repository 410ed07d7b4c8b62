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

	"github.com/spf13/cobra"

	"github.com/ahmethakanbesel/stockmailer/internal/platform/sqlite"
	requestrepo "github.com/ahmethakanbesel/stockmailer/internal/repository/request"
	"github.com/ahmethakanbesel/stockmailer/internal/request"
	"github.com/ahmethakanbesel/stockmailer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background request workers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg.Port, cfg.DBPath, cfg.Workers, wire(cfg))
	},
}

func serve(parent context.Context, port int, dbPath string, workers int, c *components) error {
	if parent == nil {
		parent = context.Background()
	}
	// Cancelled on SIGINT/SIGTERM; in-flight requests and workers derive from it.
	rootCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	repo := requestrepo.NewRepository(db.DB)
	svc := request.NewService(repo, c.validator, c.pipeline)

	// Requests a previous process left running may already have been mailed.
	if err := svc.FailInterrupted(rootCtx); err != nil {
		slog.Error("failed to close out interrupted requests", "error", err)
	}

	pool := request.NewWorkerPool(repo, svc, workers)
	svc.SetNotify(pool.Notify)
	poolDone := make(chan struct{})
	go func() {
		pool.Run(rootCtx)
		close(poolDone)
	}()
	pool.Notify()

	srv := server.New(rootCtx, port, server.NewHandler(svc, c.directory, c.metrics.Handler()))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("server started", "port", port, "workers", workers)

	var serveErr error
	select {
	case <-rootCtx.Done():
	case serveErr = <-errCh:
		slog.Error("server error", "error", serveErr)
		stop()
	}

	// Workers finish their current request before HTTP drains.
	<-poolDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
	return serveErr
}
