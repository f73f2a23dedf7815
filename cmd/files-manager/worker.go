package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fathima-sithara/files-service/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume thumbnail and welcome jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(serveWorkers)
	},
}

func serveWorkers(ctx context.Context, g *errgroup.Group, app *bootstrap.AppContext) {
	startWorkers(ctx, g, app)

	addr := app.Config.Worker.MetricsAddr
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		app.Logger.Info("serving worker metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
