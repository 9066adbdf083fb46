package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
)

func init() {
	rootCmd.AddCommand(labelUpsertCmd, labelListCmd, labelAttachCmd, labelDetachCmd)
}

var flagLabelColor string

var labelUpsertCmd = &cobra.Command{
	Use:   "label-upsert <name>",
	Short: "Create or update a label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			l, err := a.Label.Upsert(ctx, args[0], flagLabelColor)
			if err != nil {
				return err
			}
			return printJSON(l)
		})
	},
}

func init() {
	labelUpsertCmd.Flags().StringVar(&flagLabelColor, "color", "", "label color (hex)")
}

var labelListCmd = &cobra.Command{
	Use:   "label-list",
	Short: "List labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			labels, err := a.Label.List(ctx)
			if err != nil {
				return err
			}
			return printJSON(labels)
		})
	},
}

var labelAttachCmd = &cobra.Command{
	Use:   "label-attach <task-id> <label-id>",
	Short: "Attach a label to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			id, err := parseInt64(args[1])
			if err != nil {
				return err
			}
			return a.Label.Attach(ctx, args[0], id)
		})
	},
}

var labelDetachCmd = &cobra.Command{
	Use:   "label-detach <task-id> <label-id>",
	Short: "Detach a label from a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			id, err := parseInt64(args[1])
			if err != nil {
				return err
			}
			return a.Label.Detach(ctx, args[0], id)
		})
	},
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
