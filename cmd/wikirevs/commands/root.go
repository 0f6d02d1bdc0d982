// Package commands implements the wikirevs CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/wikirevs/pkg/config"
	"github.com/Sumatoshi-tech/wikirevs/pkg/mediawiki"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
	"github.com/Sumatoshi-tech/wikirevs/pkg/version"
)

type globalFlags struct {
	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCommand builds the wikirevs command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "wikirevs",
		Short: "Wikipedia revision history explorer",
		Long: `wikirevs fetches the latest revisions of a Wikipedia article and charts
edit sizes, edit dates and edits per user.

Commands:
  fetch     Fetch one article and print or save a report
  serve     Start the interactive HTML dashboard
  mcp       Start the MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: .wikirevs.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(newFetchCommand(flags))
	rootCmd.AddCommand(newServeCommand(flags))
	rootCmd.AddCommand(newMCPCommand(flags))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// loadConfig reads the configuration and applies the verbosity flags.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	switch {
	case f.quiet:
		cfg.Logging.Level = "error"
	case f.verbose:
		cfg.Logging.Level = "debug"
	}

	if cfg.MediaWiki.UserAgent == "" {
		cfg.MediaWiki.UserAgent = version.UserAgent()
	}

	return cfg, nil
}

// runtime is the wired object graph shared by the subcommands.
type runtime struct {
	cfg       *config.Config
	providers observability.Providers
	session   *session.Session
}

// newRuntime initializes observability and the session for mode. A nil mp
// selects the OTLP or no-op meter provider.
func newRuntime(cfg *config.Config, mode observability.AppMode, mp metric.MeterProvider) (*runtime, error) {
	providers, err := observability.InitWithMeterProvider(cfg.Observability(mode, version.Version), mp)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	fetchMetrics, err := observability.NewFetchMetrics(providers.Meter)
	if err != nil {
		return nil, shutdownAfter(providers, fmt.Errorf("fetch metrics: %w", err))
	}

	clientOpts := cfg.ClientOptions()
	clientOpts.Logger = providers.Logger
	clientOpts.Tracer = providers.Tracer
	clientOpts.Metrics = fetchMetrics

	client, err := mediawiki.NewClient(clientOpts)
	if err != nil {
		return nil, shutdownAfter(providers, err)
	}

	sess := session.New(client, session.Options{
		Aggregate: cfg.AggregateOptions(),
		Logger:    providers.Logger,
		Metrics:   fetchMetrics,
	})

	return &runtime{cfg: cfg, providers: providers, session: sess}, nil
}

func (rt *runtime) logger() *slog.Logger {
	return rt.providers.Logger
}

// close flushes telemetry. Failures are logged, not returned.
func (rt *runtime) close() {
	err := rt.providers.Shutdown(context.Background())
	if err != nil {
		rt.logger().Warn("observability shutdown failed", "error", err)
	}
}

func shutdownAfter(providers observability.Providers, err error) error {
	shutdownErr := providers.Shutdown(context.Background())
	if shutdownErr != nil {
		providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}

	return err
}
