package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/tracker/internal/output"
	"github.com/joescharf/tracker/internal/tracker"
)

var (
	orgName  string
	orgSlug  string
	orgEmail string
)

var orgCmd = &cobra.Command{
	Use:     "org",
	Aliases: []string{"organization"},
	Short:   "Manage organizations",
}

var orgCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		return orgCreateRun(commandContext(cmd))
	},
}

var orgShowCmd = &cobra.Command{
	Use:   "show [slug]",
	Short: "Show an organization and its projects",
	Long:  "Show an organization. Without <slug>, uses --org or default_org.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var slug string
		if len(args) > 0 {
			slug = args[0]
		}
		return orgShowRun(commandContext(cmd), slug)
	},
}

func init() {
	orgCreateCmd.Flags().StringVar(&orgName, "name", "", "Organization name (required)")
	orgCreateCmd.Flags().StringVar(&orgSlug, "slug", "", "URL-safe slug (required)")
	orgCreateCmd.Flags().StringVar(&orgEmail, "email", "", "Contact email (required)")
	_ = orgCreateCmd.MarkFlagRequired("name")
	_ = orgCreateCmd.MarkFlagRequired("slug")
	_ = orgCreateCmd.MarkFlagRequired("email")

	orgCmd.AddCommand(orgCreateCmd)
	orgCmd.AddCommand(orgShowCmd)
	rootCmd.AddCommand(orgCmd)
}

func orgCreateRun(ctx context.Context) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	org, err := svc.CreateOrganization(ctx, tracker.CreateOrganizationInput{
		Name:         orgName,
		Slug:         orgSlug,
		ContactEmail: orgEmail,
	})
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}

	if ui.JSON {
		return ui.PrintJSON(org)
	}
	ui.Success("Created organization %s (%s)", output.Cyan(org.Name), org.Slug)
	return nil
}

func orgShowRun(ctx context.Context, slug string) error {
	if slug == "" {
		var err error
		if slug, err = resolveOrg(); err != nil {
			return err
		}
	}

	svc, err := getService()
	if err != nil {
		return err
	}

	org, err := svc.Organization(ctx, slug)
	if err != nil {
		return err
	}
	projects, err := svc.ListProjects(ctx, slug)
	if err != nil {
		return err
	}

	if ui.JSON {
		return ui.PrintJSON(map[string]any{
			"organization": org,
			"projects":     projects,
		})
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(org.Name))
	fmt.Fprintf(ui.Out, "  Slug:       %s\n", org.Slug)
	fmt.Fprintf(ui.Out, "  Contact:    %s\n", org.ContactEmail)
	fmt.Fprintf(ui.Out, "  Created:    %s\n", org.CreatedAt.Format(dateTimeLayout))
	fmt.Fprintf(ui.Out, "  Projects:   %d\n", len(projects))
	return nil
}
