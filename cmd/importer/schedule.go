package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/sacredsites/internal/workflows"
)

const scheduleID = "site-import"

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Register the recurring import workflow with Temporal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    tlog.NewStructuredLogger(slog.Default()),
		})
		if err != nil {
			return fmt.Errorf("temporal client: %w", err)
		}
		defer c.Close()

		input := workflows.ImportInput{Source: sourceWordPress}

		if scheduleNow {
			run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
				ID:        scheduleID + "-manual",
				TaskQueue: cfg.Temporal.TaskQueue,
			}, workflows.SiteImportWorkflow, input)
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			fmt.Printf("Started workflow %s (run %s)\n", run.GetID(), run.GetRunID())
			return nil
		}

		_, err = c.ScheduleClient().Create(ctx, client.ScheduleOptions{
			ID: scheduleID,
			Spec: client.ScheduleSpec{
				CronExpressions: []string{cfg.Temporal.Schedule},
			},
			Action: &client.ScheduleWorkflowAction{
				ID:        scheduleID + "-scheduled",
				Workflow:  workflows.SiteImportWorkflow,
				Args:      []any{input},
				TaskQueue: cfg.Temporal.TaskQueue,
			},
		})
		if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
			fmt.Printf("Schedule %s already registered\n", scheduleID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}
		fmt.Printf("Scheduled %s with cron %q on queue %s\n", scheduleID, cfg.Temporal.Schedule, cfg.Temporal.TaskQueue)
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Start one import immediately instead of registering the schedule")
	rootCmd.AddCommand(scheduleCmd)
}
