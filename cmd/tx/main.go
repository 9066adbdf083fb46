// Command tx is a one-shot CLI that opens the same SQLite file as txd
// and talks to the engine directly (spec §1 "a CLI for one-shot
// operations"), in the style of the teacher's cmd/bd root command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
	"github.com/jamesaphoenix/tx/internal/config"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "tx",
	Short:         "tx is a task orchestration engine CLI for AI coding agents",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: .tx/config.yaml)")
}

// withApp loads config, opens the store, runs fn, then closes the
// store — every subcommand's entire lifetime.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tx: %v\n", err)
		os.Exit(1)
	}
}
