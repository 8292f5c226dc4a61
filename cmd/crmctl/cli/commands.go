package cli

import (
	"fmt"

	"go-crm-core/internal/config"
	"go-crm-core/internal/features/workflow"

	"github.com/spf13/cobra"
)

var seedWorkflowsCmd = &cobra.Command{
	Use:   "seed-workflows",
	Short: "Install the default workflow rules that are missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		n, err := workflow.SeedDefaults(systemContext(cmd), rt.workflows, rt.logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d workflow rule(s)\n", n)
		return nil
	},
}

var rescoreLeadsCmd = &cobra.Command{
	Use:   "rescore-leads",
	Short: "Recompute every lead score",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		report, err := rt.scheduler.RescoreLeads(systemContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scanned %d lead(s), rescored %d\n", report.Scanned, report.Rescored)
		return nil
	},
}

var sweepTasksCmd = &cobra.Command{
	Use:   "sweep-tasks",
	Short: "Refresh task priority scores and escalate SLA breaches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		report, err := rt.scheduler.SweepTasks(systemContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scanned %d task(s), rescored %d, escalated %d\n",
			report.Scanned, report.Rescored, report.Escalated)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL migrations or MongoDB indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// opening the backend migrates it
		rt, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.config.StoreDriver == config.DriverMemory {
			fmt.Fprintln(cmd.OutOrStdout(), "memory store has no schema")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", rt.config.StoreDriver)
		return nil
	},
}
