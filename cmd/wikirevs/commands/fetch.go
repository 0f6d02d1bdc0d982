package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/report"
)

// ErrArticleNotFound is returned by fetch after reporting a missing article.
var ErrArticleNotFound = errors.New("article not found")

const outputFilePerm = 0o644

type fetchOptions struct {
	format   string
	output   string
	collapse bool
	theme    string
	tab      string
	noColor  bool
	maxRows  int
}

func newFetchCommand(flags *globalFlags) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <title>",
		Short: "Fetch the latest revisions of an article and report on them",
		Long: `Fetch the latest revisions of a Wikipedia article and write a report.

Formats:
  text  tables and an edits-per-day graph (default)
  json  machine-readable document
  yaml  machine-readable document
  html  the tabbed chart dashboard`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, flags, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", report.FormatText, "Output format: text, json, yaml, html")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.collapse, "collapse-single-edits", false, "Merge users with exactly one edit into one bucket")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "Dashboard theme: dark, light (default from config)")
	cmd.Flags().StringVar(&opts.tab, "tab", "", "Initially active chart: histogram, calendar, pie (default from config)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored text output")
	cmd.Flags().IntVar(&opts.maxRows, "max-rows", report.DefaultMaxRows, "Rows shown in text tables")

	return cmd
}

func runFetch(cmd *cobra.Command, flags *globalFlags, opts *fetchOptions, title string) error {
	format, err := report.ValidateFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	if opts.collapse {
		cfg.Aggregate.CollapseSingleEdits = true
	}

	if opts.theme != "" {
		cfg.Render.Theme = opts.theme
	}

	if opts.tab != "" {
		cfg.Render.ActiveTab = opts.tab
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, observability.ModeCLI, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	snap, loadErr := rt.session.Load(cmd.Context(), title)
	if loadErr != nil {
		return fmt.Errorf("load %q: %w", title, loadErr)
	}

	out, closeOut, err := openOutput(cmd.OutOrStdout(), opts.output)
	if err != nil {
		return err
	}

	writeErr := report.Write(out, format, snap, report.Options{
		Color:   opts.output == "" && !opts.noColor && !color.NoColor,
		MaxRows: opts.maxRows,
		Charts:  cfg.ChartsConfig(),
	})

	err = errors.Join(writeErr, closeOut())
	if err != nil {
		return err
	}

	if opts.output != "" && !flags.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s report to %s\n", format, opts.output)
	}

	if !snap.Set.Found() {
		return fmt.Errorf("%w: %q", ErrArticleNotFound, title)
	}

	return nil
}

func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	//nolint:gosec // path is an explicit user flag.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePerm)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}

	return file, file.Close, nil
}
