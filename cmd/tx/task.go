package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
	"github.com/jamesaphoenix/tx/internal/task"
	"github.com/jamesaphoenix/tx/internal/types"
)

func init() {
	rootCmd.AddCommand(taskCreateCmd, taskListCmd, taskShowCmd, taskUpdateCmd, taskDeleteCmd, readyCmd)
}

var (
	flagTitle       string
	flagDescription string
	flagParent      string
	flagScore       int
)

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			var parentID *string
			if flagParent != "" {
				parentID = &flagParent
			}
			t, err := a.Task.Create(ctx, task.CreateInput{
				Title:       flagTitle,
				Description: flagDescription,
				ParentID:    parentID,
				Score:       flagScore,
			})
			if err != nil {
				return err
			}
			return printJSON(t)
		})
	},
}

func init() {
	taskCreateCmd.Flags().StringVar(&flagTitle, "title", "", "task title (required)")
	taskCreateCmd.Flags().StringVarP(&flagDescription, "description", "d", "", "task description")
	taskCreateCmd.Flags().StringVar(&flagParent, "parent", "", "parent task id")
	taskCreateCmd.Flags().IntVar(&flagScore, "score", 0, "base priority score")
	_ = taskCreateCmd.MarkFlagRequired("title")
}

var flagStatusFilter string

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			filter := types.TaskFilter{}
			if flagStatusFilter != "" {
				filter.Status = []types.TaskStatus{types.TaskStatus(flagStatusFilter)}
			}
			tasks, err := a.Task.List(ctx, filter)
			if err != nil {
				return err
			}
			return printJSON(tasks)
		})
	},
}

func init() {
	taskListCmd.Flags().StringVar(&flagStatusFilter, "status", "", "filter by status")
}

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Show the ranked ready set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			tasks, err := a.Ready.List(ctx, -1)
			if err != nil {
				return err
			}
			return printJSON(tasks)
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task with its dependency and hierarchy edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			t, err := a.Task.GetWithDeps(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(t)
		})
	},
}

var flagNewStatus string

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update a task's status, title, description or score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			in := task.UpdateInput{}
			if cmd.Flags().Changed("title") {
				in.Title = &flagTitle
			}
			if cmd.Flags().Changed("description") {
				in.Description = &flagDescription
			}
			if cmd.Flags().Changed("score") {
				in.Score = &flagScore
			}
			if flagNewStatus != "" {
				st := types.TaskStatus(flagNewStatus)
				in.Status = &st
			}
			t, err := a.Task.Update(ctx, args[0], in)
			if err != nil {
				return err
			}
			return printJSON(t)
		})
	},
}

func init() {
	taskUpdateCmd.Flags().StringVar(&flagTitle, "title", "", "new title")
	taskUpdateCmd.Flags().StringVarP(&flagDescription, "description", "d", "", "new description")
	taskUpdateCmd.Flags().IntVar(&flagScore, "score", 0, "new score")
	taskUpdateCmd.Flags().StringVar(&flagNewStatus, "status", "", "new status")
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Task.Delete(ctx, args[0])
		})
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
