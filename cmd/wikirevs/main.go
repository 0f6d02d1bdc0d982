// Package main provides the entry point for the wikirevs CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sumatoshi-tech/wikirevs/cmd/wikirevs/commands"
	"github.com/Sumatoshi-tech/wikirevs/pkg/config"
	"github.com/Sumatoshi-tech/wikirevs/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := config.LoadDotEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = commands.NewRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
