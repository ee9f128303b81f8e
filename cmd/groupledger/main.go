// Package main is the groupledger CLI entrypoint.
package main

import (
	"log/slog"
	"os"

	"github.com/hughlang/groupledger/internal/cli"
)

func main() {
	// Structured diagnostics go to stderr; command output owns stdout.
	level := slog.LevelWarn
	if os.Getenv("GROUPLEDGER_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
