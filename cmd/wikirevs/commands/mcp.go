package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/wikirevs/pkg/mcp"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
)

func newMCPCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server keeps one current article and exposes it as tools:
  - wiki_load_revisions: fetch an article and make it current
  - wiki_aggregates: edit-size, edit-date and edits-per-user tables
  - wiki_status: status message of the latest load

Logs are written to stderr as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			cfg.Logging.Format = "json"

			rt, err := newRuntime(cfg, observability.ModeMCP, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			red, err := observability.NewREDMetrics(rt.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Session: rt.session,
				Logger:  rt.logger(),
				Metrics: red,
				Tracer:  rt.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
