package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/riichinakano/forest-zaim-app/internal/buildinfo"
	"github.com/riichinakano/forest-zaim-app/internal/httpapi"
	"github.com/riichinakano/forest-zaim-app/internal/ledger"
	"github.com/riichinakano/forest-zaim-app/internal/logging"
	"github.com/riichinakano/forest-zaim-app/internal/metrics"
	"github.com/riichinakano/forest-zaim-app/internal/model"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			var m *metrics.Metrics
			if a.cfg.Server.Metrics {
				m = metrics.New()
			}

			srv := httpapi.New(httpapi.Params{
				Loader: a.loader(),
				Sources: []ledger.Source{
					a.source(model.StatementPL),
					a.source(model.StatementBS),
				},
				Engine:             a.engine(),
				Audit:              a.auditLog(),
				Metrics:            m,
				Logger:             a.logger,
				RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.LoadAll(ctx); err != nil {
				return err
			}
			if spec := a.cfg.Server.ReloadSchedule; spec != "" {
				c, err := srv.Schedule(spec)
				if err != nil {
					return err
				}
				defer c.Stop()
			}

			logging.Component(a.logger, logging.ComponentCLI).Info("starting server",
				slog.String("version", buildinfo.Version),
				slog.String("project", a.cfg.Project.Name))
			return srv.Run(ctx, httpapi.ListenOptions{
				Addr:         addr,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
