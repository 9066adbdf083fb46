package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesaphoenix/tx/internal/app"
	"github.com/jamesaphoenix/tx/internal/worker"
)

func init() {
	rootCmd.AddCommand(workerRegisterCmd, workerHeartbeatCmd, workerListCmd)
}

var flagWorkerName string

var workerRegisterCmd = &cobra.Command{
	Use:   "worker-register",
	Short: "Register a worker with the orchestrator pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			hostname, _ := os.Hostname()
			w, err := a.Worker.Register(ctx, worker.RegisterInput{
				Name:     flagWorkerName,
				Hostname: hostname,
				PID:      os.Getpid(),
			})
			if err != nil {
				return err
			}
			return printJSON(w)
		})
	},
}

func init() {
	workerRegisterCmd.Flags().StringVar(&flagWorkerName, "name", "", "worker display name")
}

var workerHeartbeatCmd = &cobra.Command{
	Use:   "worker-heartbeat <worker-id>",
	Short: "Send a heartbeat for a registered worker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			w, err := a.Worker.Heartbeat(ctx, worker.HeartbeatInput{WorkerID: args[0], Timestamp: time.Now()})
			if err != nil {
				return err
			}
			return printJSON(w)
		})
	},
}

var workerListCmd = &cobra.Command{
	Use:   "worker-list",
	Short: "List registered workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			workers, err := a.Worker.List(ctx)
			if err != nil {
				return err
			}
			return printJSON(workers)
		})
	},
}
