package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/output"
	"github.com/joescharf/tracker/internal/tracker"
)

const dateTimeLayout = "2006-01-02 15:04"

var (
	projectName   string
	projectDesc   string
	projectStatus string
	projectDue    string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "List, create and update the projects of an organization.",
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects with task counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun(commandContext(cmd))
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectCreateRun(commandContext(cmd), args[0])
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Update a project",
	Long:  "Update a project. Only flags that are given change; --due \"\" clears the due date.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := projectPatchFromFlags(cmd)
		if err != nil {
			return err
		}
		return projectUpdateRun(commandContext(cmd), args[0], patch)
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectDesc, "desc", "", "Project description")
	projectCreateCmd.Flags().StringVar(&projectStatus, "status", "", "Status: ACTIVE, ON_HOLD, COMPLETED, ARCHIVED (default ACTIVE)")
	projectCreateCmd.Flags().StringVar(&projectDue, "due", "", "Due date (YYYY-MM-DD)")

	projectUpdateCmd.Flags().StringVar(&projectName, "name", "", "New name")
	projectUpdateCmd.Flags().StringVar(&projectDesc, "desc", "", "New description")
	projectUpdateCmd.Flags().StringVar(&projectStatus, "status", "", "New status")
	projectUpdateCmd.Flags().StringVar(&projectDue, "due", "", "New due date (YYYY-MM-DD, empty to clear)")

	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	rootCmd.AddCommand(projectCmd)
}

func projectListRun(ctx context.Context) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	projects, err := svc.ListProjects(ctx, org)
	if err != nil {
		return err
	}

	if ui.JSON {
		return ui.PrintJSON(projects)
	}
	if len(projects) == 0 {
		ui.Info("No projects in %s. Use 'tracker project create <name>' to add one.", org)
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Status", "Due", "Tasks", "Done", "Rate"})
	for _, p := range projects {
		_ = table.Append([]string{
			p.ID,
			output.Cyan(p.Name),
			output.StatusColor(string(p.Status)),
			output.Date(p.DueDate, models.DateLayout),
			strconv.Itoa(p.TaskCount),
			strconv.Itoa(p.CompletedTasks),
			output.RateColor(p.CompletionRate),
		})
	}
	return table.Render()
}

func projectCreateRun(ctx context.Context, name string) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	due, err := tracker.ParseProjectDueDate(projectDue)
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	p, err := svc.CreateProject(ctx, tracker.CreateProjectInput{
		OrganizationSlug: org,
		Name:             name,
		Description:      projectDesc,
		Status:           models.ProjectStatus(projectStatus),
		DueDate:          due,
	})
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	if ui.JSON {
		return ui.PrintJSON(p)
	}
	ui.Success("Created project %s (%s)", output.Cyan(p.Name), p.ID)
	return nil
}

// projectPatchFromFlags includes only the flags set on the command line.
func projectPatchFromFlags(cmd *cobra.Command) (tracker.ProjectPatch, error) {
	var patch tracker.ProjectPatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		patch.Name = &projectName
	}
	if flags.Changed("desc") {
		patch.Description = &projectDesc
	}
	if flags.Changed("status") {
		status := models.ProjectStatus(projectStatus)
		patch.Status = &status
	}
	if flags.Changed("due") {
		if err := patch.SetDueDate(projectDue); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

func projectUpdateRun(ctx context.Context, id string, patch tracker.ProjectPatch) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	p, err := svc.UpdateProject(ctx, id, org, patch)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	if ui.JSON {
		return ui.PrintJSON(p)
	}
	ui.Success("Updated project %s", output.Cyan(p.Name))
	ui.VerboseLog("Status: %s, due: %s", p.Status, output.Date(p.DueDate, models.DateLayout))
	return nil
}
