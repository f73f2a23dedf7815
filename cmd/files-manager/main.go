package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fathima-sithara/files-service/internal/bootstrap"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "files-manager",
	Short: "Per-user file hierarchy with background thumbnail and welcome jobs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Println("reading .env:", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(apiCmd, workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run builds the app context, runs fn until SIGINT/SIGTERM, then cleans up.
func run(fn func(ctx context.Context, g *errgroup.Group, app *bootstrap.AppContext)) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.Init(ctx, configPath)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	fn(gctx, g, app)
	err = g.Wait()

	app.Logger.Info("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
	defer cancel()
	cleanup(shutdownCtx)
	return err
}

// startWorkers runs every job runner in g.
func startWorkers(ctx context.Context, g *errgroup.Group, app *bootstrap.AppContext) {
	for _, r := range app.Workers() {
		g.Go(func() error { return r.Run(ctx) })
	}
}
