package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/tracker/internal/output"
)

var statsProject string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show project and task statistics for the organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun(commandContext(cmd))
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsProject, "project", "", "Narrow to one project ID")
	rootCmd.AddCommand(statsCmd)
}

func statsRun(ctx context.Context) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	st, err := svc.ProjectStatistics(ctx, org, statsProject)
	if err != nil {
		return err
	}

	if ui.JSON {
		return ui.PrintJSON(st)
	}
	if st == nil {
		ui.Warning("Organization %s not found", org)
		return nil
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(org))
	fmt.Fprintf(ui.Out, "  Projects:    %d\n", st.TotalProjects)
	fmt.Fprintf(ui.Out, "  Tasks:       %d\n", st.TotalTasks)
	fmt.Fprintf(ui.Out, "  Completed:   %d\n", st.CompletedTasks)
	fmt.Fprintf(ui.Out, "  Active:      %d\n", st.ActiveTasks)
	fmt.Fprintf(ui.Out, "  Completion:  %s\n", output.RateColor(st.CompletionRate))
	return nil
}
