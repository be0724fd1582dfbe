package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"matrixci/engine/api/rest"
	"matrixci/engine/internal/reporter"
	"matrixci/engine/pkg/engine"
	"matrixci/engine/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Long: `Serve starts the HTTP API: workflows are submitted as JSON or YAML and
executed asynchronously on a shared worker pool, with run status and
reports available for polling.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		eng := engine.New(engine.Options{
			Concurrency:        cfg.Concurrency,
			GracePeriod:        cfg.GracePeriod,
			DefaultStepTimeout: cfg.DefaultStepTimeout,
		})

		manager, err := reporter.NewManager(cmd.Context(), reporter.DefaultRegistry(), cfg.Reporters)
		if err != nil {
			return err
		}
		defer manager.Close(context.Background())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := rest.NewServer(eng, &cfg.Server, manager)
		logger.Info("serving API on %s (pool size %d)", cfg.Server.Address, eng.PoolSize())
		return server.StartWithContext(ctx)
	},
}
