package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docvet/internal/api"
	"github.com/dgallion1/docvet/internal/config"
	"github.com/dgallion1/docvet/internal/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve an HTTP API that runs checks of the root on request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bind(cmd.Flags(), map[string]string{
				config.KeyPort:         "port",
				config.KeyMaxQueueSize: "max-queue",
				config.KeyEntryPoints:  "entry",
			}); err != nil {
				return err
			}
			cfg, err := a.load(args)
			if err != nil {
				return err
			}
			log := newLogger(a.stdout, cfg)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Initialize pipeline.
			orch := pipeline.NewOrchestrator(cfg, log)
			orch.Start(ctx)

			// Initialize HTTP server.
			srv := api.NewServer(orch, log, cfg)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			stopped := make(chan struct{})
			go func() {
				defer close(stopped)
				<-ctx.Done()
				log.Info("shutting down...")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				httpServer.Shutdown(shutdownCtx)

				orch.Stop()
			}()

			if cfg.APIKey == "" {
				log.Warn("no api key configured; run endpoints are unauthenticated")
			}
			log.Info("starting docvet", "port", cfg.Port, "root", cfg.Root)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cancel()
				<-stopped
				return err
			}
			<-stopped
			return nil
		},
	}
	cmd.Flags().String("port", "8090", "listen port")
	cmd.Flags().Int("max-queue", 16, "queued runs before requests are rejected")
	cmd.Flags().StringSlice("entry", nil, "entry-point document exempt from the orphan rule (repeatable)")
	return cmd
}
