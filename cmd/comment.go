package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/tracker/internal/output"
	"github.com/joescharf/tracker/internal/tracker"
)

var commentAuthor string

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "List and add task comments",
}

var commentListCmd = &cobra.Command{
	Use:     "list <task-id>",
	Aliases: []string{"ls"},
	Short:   "List comments on a task, oldest first",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentListRun(commandContext(cmd), args[0])
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <task-id> <content>",
	Short: "Add a comment to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentAddRun(commandContext(cmd), args[0], args[1])
	},
}

func init() {
	commentAddCmd.Flags().StringVar(&commentAuthor, "author", "", "Author email (required)")
	_ = commentAddCmd.MarkFlagRequired("author")

	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentAddCmd)
	rootCmd.AddCommand(commentCmd)
}

func commentListRun(ctx context.Context, taskID string) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	comments, err := svc.ListTaskComments(ctx, taskID, org)
	if err != nil {
		return err
	}

	if ui.JSON {
		return ui.PrintJSON(comments)
	}
	if len(comments) == 0 {
		ui.Info("No comments.")
		return nil
	}
	for _, c := range comments {
		fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(c.AuthorEmail), c.CreatedAt.Format(dateTimeLayout))
		fmt.Fprintf(ui.Out, "  %s\n\n", c.Content)
	}
	return nil
}

func commentAddRun(ctx context.Context, taskID, content string) error {
	org, err := resolveOrg()
	if err != nil {
		return err
	}
	svc, err := getService()
	if err != nil {
		return err
	}

	c, err := svc.CreateTaskComment(ctx, tracker.CreateCommentInput{
		TaskID:           taskID,
		OrganizationSlug: org,
		Content:          content,
		AuthorEmail:      commentAuthor,
	})
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}

	if ui.JSON {
		return ui.PrintJSON(c)
	}
	ui.Success("Added comment %s", c.ID)
	return nil
}
