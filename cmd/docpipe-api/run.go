package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiserver "github.com/docpipe/docpipe/internal/api_server"
	"github.com/docpipe/docpipe/internal/config"
	handlers "github.com/docpipe/docpipe/internal/handlers/v1alpha1"
	"github.com/docpipe/docpipe/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const workerStopTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the api together with the conversion and metadata workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		cleanup := setupLogging(cfg)
		defer cleanup()

		zap.S().Info("starting docpipe api")
		defer zap.S().Info("docpipe api stopped")

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

		handler := handlers.NewServiceHandler(
			service.NewIntakeService(rt.store, rt.blobs, rt.jobs, rt.keys, rt.producer, cfg.Service.MaxUploadSize),
			service.NewStatusService(rt.store),
			service.NewMetadataService(rt.store),
			service.NewDownloadService(rt.store, rt.blobs),
			service.NewHealthService(rt.store),
			cfg.Service.MaxUploadSize,
		)

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, handler, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go runMetricServer(ctx, cancel, cfg, rt)

		<-ctx.Done()
		return nil
	},
}

func runMetricServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, rt *runtime) {
	defer cancel()
	listener, err := newListener(cfg.Service.MetricsAddress)
	if err != nil {
		zap.S().Fatalw("creating metrics listener", "error", err)
	}

	metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, cfg.Service.LogLevel, rt.store.Conversion())
	if err := metricsServer.Run(ctx); err != nil {
		zap.S().Fatalw("running metrics server", "error", err)
	}
}

// stopWorkers gives running jobs a bounded window to finish after the signal.
func stopWorkers(rt *runtime) {
	ctx, cancel := context.WithTimeout(context.Background(), workerStopTimeout)
	defer cancel()
	if err := rt.jobs.Stop(ctx); err != nil {
		zap.S().Errorw("stopping job workers", "error", err)
	}
}
