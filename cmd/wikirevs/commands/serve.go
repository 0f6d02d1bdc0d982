package commands

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/server"
)

// ErrPreloading is reported by /readyz until the --title article is loaded.
var ErrPreloading = errors.New("initial article is still loading")

type serveOptions struct {
	host  string
	port  int
	title string
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interactive HTML dashboard",
		Long: `Start the HTTP dashboard. Enter an article title in the form to chart its
latest revisions. The JSON API lives under /api and Prometheus metrics under
/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host (default from config)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port (default from config)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Article to load at startup")

	return cmd
}

func runServe(cmd *cobra.Command, flags *globalFlags, opts *serveOptions) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host = opts.host
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = opts.port
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	mp, metricsHandler, err := observability.PrometheusProvider()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, observability.ModeServe, mp)
	if err != nil {
		return errors.Join(err, mp.Shutdown(context.Background()))
	}

	defer func() {
		rt.close()

		shutdownErr := mp.Shutdown(context.Background())
		if shutdownErr != nil {
			rt.logger().Warn("meter provider shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := observability.NewREDMetrics(rt.providers.Meter)
	if err != nil {
		return err
	}

	var preloading atomic.Bool

	preloading.Store(opts.title != "")

	srv := server.New(server.Options{
		Session:        rt.session,
		Charts:         cfg.ChartsConfig(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		Logger:         rt.logger(),
		Tracer:         rt.providers.Tracer,
		RED:            red,
		MetricsHandler: metricsHandler,
		ReadyChecks: []observability.ReadyCheck{func(context.Context) error {
			if preloading.Load() {
				return ErrPreloading
			}

			return nil
		}},
	})

	group, ctx := errgroup.WithContext(cmd.Context())

	group.Go(func() error {
		return srv.Run(ctx, cfg.Server)
	})

	if opts.title != "" {
		group.Go(func() error {
			defer preloading.Store(false)

			_, loadErr := rt.session.Load(ctx, opts.title)
			if loadErr != nil {
				rt.logger().WarnContext(ctx, "initial load failed", "title", opts.title, "error", loadErr)
			}

			return nil
		})
	}

	return group.Wait()
}
