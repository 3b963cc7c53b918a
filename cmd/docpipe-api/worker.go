package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the conversion and metadata workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		cleanup := setupLogging(cfg)
		defer cleanup()

		zap.S().Info("starting docpipe workers")
		defer zap.S().Info("docpipe workers stopped")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			zap.S().Fatalw("initializing runtime", "error", err)
		}
		defer rt.Close()

		if err := rt.jobs.Start(ctx); err != nil {
			zap.S().Fatalw("starting job workers", "error", err)
		}
		defer stopWorkers(rt)

		go runMetricServer(ctx, cancel, cfg, rt)

		<-ctx.Done()
		return nil
	},
}
