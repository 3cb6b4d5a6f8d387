package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/scavenger/internal/server"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

func newServeCommand() *cobra.Command {
	var shutdownTimeout time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := setup()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			a, err := newApp(ctx, cfg, reg, false, logger)
			if err != nil {
				return reportConfigError(logger, err)
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				a.Close(closeCtx)
			}()

			gin.SetMode(gin.ReleaseMode)
			srv := server.NewServer(cfg.Server, server.Deps{
				Feed:       a.feed,
				Flyers:     a.flyers,
				Export:     a.export,
				Images:     uploads.NewRemoteCache(a.images, nil, logger).WithMaxBytes(int64(cfg.Server.MaxUploadMB) << 20),
				UploadsDir: a.images.Dir(),
				Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			}, logger)

			logger.Info("scavenger.start",
				"http_addr", cfg.Server.HTTPAddr,
				"grpc_health_addr", cfg.Server.GRPCHealthAddr,
				"storage", cfg.Storage.Backend,
				"provider", a.extractor.ProviderName(),
				"model", a.extractor.Model(),
			)
			return srv.Run(ctx, shutdownTimeout)
		},
	}
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "grace period for in-flight requests")
	return cmd
}
