package main

import (
	"context"
	"fmt"

	"github.com/fathima-sithara/files-service/internal/bootstrap"
	"github.com/fathima-sithara/files-service/internal/handlers"
	"github.com/fathima-sithara/files-service/internal/middleware"
	"github.com/fathima-sithara/files-service/internal/routes"
	"github.com/fathima-sithara/files-service/internal/server"
	"github.com/fathima-sithara/files-service/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const connectBurst = 5

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(serveAPI)
	},
}

func serveAPI(ctx context.Context, g *errgroup.Group, app *bootstrap.AppContext) {
	cfg, logger := app.Config, app.Logger

	files := services.NewFileService(app.Files, app.Blobs, cfg.Files.ThumbnailWidths)
	auth := services.NewAuthService(app.Users, app.Sessions)
	h := handlers.NewHandler(
		files,
		services.NewPublicationService(files),
		auth,
		services.NewUserService(app.Users, app.WelcomeQueue, 0, logger),
		services.NewAppService(app.PingRedis, app.PingMongo, app.Users, app.Files),
		app.ThumbnailQueue,
		logger,
	)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.ConnectPerMinute, connectBurst, logger)
	srv := server.New(h, routes.Middlewares{
		Auth:         middleware.RequireAuth(auth, logger),
		OptionalAuth: middleware.OptionalAuth(auth, logger),
		ConnectLimit: limiter.Handler(),
	}, logger, app.Metrics)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Info("starting api", zap.String("addr", addr))
		return srv.Listen(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		limiter.Close()
		return srv.ShutdownWithTimeout(cfg.ShutdownTimeout)
	})

	// in-process queues are only reachable from this process
	if cfg.Queue.Driver == "memory" {
		logger.Warn("memory queue driver: running workers inside the api process")
		startWorkers(ctx, g, app)
	}
}
