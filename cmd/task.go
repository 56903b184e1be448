package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/output"
	"github.com/joescharf/tracker/internal/tracker"
)

var (
	taskProject  string
	taskTitle    string
	taskDesc     string
	taskStatus   string
	taskAssignee string
	taskDue      string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  "List, create, update and import the tasks of an organization.",
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks across the organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskListRun(commandContext(cmd))
	},
}

var taskCreateCmd = &cobra.Command{
	Use:   "create <project-id> <title>",
	Short: "Create a task in a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskCreateRun(commandContext(cmd), args[0], args[1])
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update a task",
	Long:  "Update a task. Only flags that are given change; --due \"\" clears the due date.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := taskPatchFromFlags(cmd)
		if err != nil {
			return err
		}
		return taskUpdateRun(commandContext(cmd), args[0], patch)
	},
}

func init() {
	taskListCmd.Flags().StringVar(&taskProject, "project", "", "Filter by project ID")
	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status: TODO, IN_PROGRESS, BLOCKED, DONE")

	taskCreateCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")
	taskCreateCmd.Flags().StringVar(&taskStatus, "status", "", "Status (default TODO)")
	taskCreateCmd.Flags().StringVar(&taskAssignee, "assignee", "", "Assignee email")
	taskCreateCmd.Flags().StringVar(&taskDue, "due", "", "Due date (RFC 3339 or YYYY-MM-DD)")

	taskUpdateCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&taskDesc, "desc", "", "New description")
	taskUpdateCmd.Flags().StringVar(&taskStatus, "status", "", "New status")
	taskUpdateCmd.Flags().StringVar(&taskAssignee, "assignee", "", "New assignee email (empty to unassign)")
	taskUpdateCmd.Flags().StringVar(&taskDue, "due", "", "New due date (empty to clear)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	rootCmd.AddCommand(taskCmd)
}

func taskListRun(ctx context.Context) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	tasks, err := svc.ListTasks(ctx, org, tracker.TaskFilter{
		ProjectID: taskProject,
		Status:    models.TaskStatus(taskStatus),
	})
	if err != nil {
		return err
	}

	if ui.JSON {
		return ui.PrintJSON(tasks)
	}
	if len(tasks) == 0 {
		ui.Info("No tasks found.")
		return nil
	}

	table := ui.Table([]string{"ID", "Project", "Title", "Status", "Assignee", "Due"})
	for _, t := range tasks {
		_ = table.Append([]string{
			t.ID,
			t.ProjectID,
			t.Title,
			output.StatusColor(string(t.Status)),
			t.AssigneeEmail,
			output.Date(t.DueDate, time.DateOnly),
		})
	}
	return table.Render()
}

func taskCreateRun(ctx context.Context, projectID, title string) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	due, err := tracker.ParseTaskDueDate(taskDue)
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	t, err := svc.CreateTask(ctx, tracker.CreateTaskInput{
		ProjectID:        projectID,
		OrganizationSlug: org,
		Title:            title,
		Description:      taskDesc,
		Status:           models.TaskStatus(taskStatus),
		AssigneeEmail:    taskAssignee,
		DueDate:          due,
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	if ui.JSON {
		return ui.PrintJSON(t)
	}
	ui.Success("Created task %s (%s)", output.Cyan(t.Title), t.ID)
	return nil
}

// taskPatchFromFlags includes only the flags set on the command line.
func taskPatchFromFlags(cmd *cobra.Command) (tracker.TaskPatch, error) {
	var patch tracker.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = &taskTitle
	}
	if flags.Changed("desc") {
		patch.Description = &taskDesc
	}
	if flags.Changed("status") {
		status := models.TaskStatus(taskStatus)
		patch.Status = &status
	}
	if flags.Changed("assignee") {
		patch.AssigneeEmail = &taskAssignee
	}
	if flags.Changed("due") {
		if err := patch.SetDueDate(taskDue); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

func taskUpdateRun(ctx context.Context, id string, patch tracker.TaskPatch) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	t, err := svc.UpdateTask(ctx, id, org, patch)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	if ui.JSON {
		return ui.PrintJSON(t)
	}
	ui.Success("Updated task %s [%s]", output.Cyan(t.Title), output.StatusColor(string(t.Status)))
	return nil
}
