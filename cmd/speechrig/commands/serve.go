// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ik5/speechrig/internal/metrics"
	"github.com/ik5/speechrig/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		addr    string
		preload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve animations over HTTP",
		Long: `Serve the pipeline over HTTP until interrupted.

Routes:
  POST /v1/animations   audio file in the body, asset (json or msgpack) out
  GET  /v1/status       processor state
  GET  /health/self     liveness
  GET  /health/models   model load state
  GET  /metrics         Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("preload") {
				cfg.Models.Preload = preload
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m := metrics.New(reg)

			a, err := newApp(cfg, g.log, m)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					g.log.Error().Err(err).Msg("closing models")
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Models.Preload {
				if err := a.processor.Preload(ctx); err != nil {
					return err
				}
			}

			srv := server.New(server.Config{
				Addr:           cfg.Server.Addr,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				RequestTimeout: cfg.Server.RequestTimeout,
				Release:        !g.verbose,
			}, a.processor, g.log, m, reg)

			return srv.ListenAndServe(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	f.BoolVar(&preload, "preload", false, "load both models before accepting requests")
	return cmd
}
