package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
	"github.com/jamesaphoenix/tx/internal/orchestrator"
)

func init() {
	rootCmd.AddCommand(orchStartCmd, orchStopCmd, orchStatusCmd, orchReconcileCmd)
}

var orchStartCmd = &cobra.Command{
	Use:   "orchestrator-start",
	Short: "Mark the orchestrator running (does not spawn txd)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			st, err := a.Orchestrator.Start(ctx, orchestrator.StartConfig{})
			if err != nil {
				return err
			}
			return printJSON(st)
		})
	},
}

var flagGraceful bool

var orchStopCmd = &cobra.Command{
	Use:   "orchestrator-stop",
	Short: "Mark the orchestrator stopped",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			st, err := a.Orchestrator.Stop(ctx, flagGraceful)
			if err != nil {
				return err
			}
			return printJSON(st)
		})
	},
}

func init() {
	orchStopCmd.Flags().BoolVar(&flagGraceful, "graceful", true, "graceful stop (don't mark workers dead)")
}

var orchStatusCmd = &cobra.Command{
	Use:   "orchestrator-status",
	Short: "Show orchestrator state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			st, err := a.Orchestrator.Status(ctx)
			if err != nil {
				return err
			}
			return printJSON(st)
		})
	},
}

var orchReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation sweep immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			result, err := a.Orchestrator.Reconcile(ctx)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}
