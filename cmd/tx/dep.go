package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
)

func init() {
	rootCmd.AddCommand(depBlockCmd, depUnblockCmd)
}

var depBlockCmd = &cobra.Command{
	Use:   "block <blocked-id> <blocker-id>",
	Short: "Record that blocker-id blocks blocked-id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Dependency.AddBlocker(ctx, args[0], args[1])
		})
	},
}

var depUnblockCmd = &cobra.Command{
	Use:   "unblock <blocked-id> <blocker-id>",
	Short: "Remove a blocker edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Dependency.RemoveBlocker(ctx, args[0], args[1])
		})
	},
}
