package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
)

func init() {
	rootCmd.AddCommand(claimCmd, releaseCmd, renewCmd)
}

var claimCmd = &cobra.Command{
	Use:   "claim <task-id> <worker-id>",
	Short: "Claim a task for a worker",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			c, err := a.Claim.Claim(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(c)
		})
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release <task-id> <worker-id>",
	Short: "Release a worker's claim on a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Claim.Release(ctx, args[0], args[1])
		})
	},
}

var renewCmd = &cobra.Command{
	Use:   "renew <task-id> <worker-id>",
	Short: "Renew a worker's claim lease on a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			c, err := a.Claim.Renew(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(c)
		})
	},
}
