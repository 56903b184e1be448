package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/tracker/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

Agents can read and write tracker data through it. Configure with:

  {
    "mcpServers": {
      "tracker": { "command": "tracker", "args": ["mcp", "--org", "acme"] }
    }
  }

Tools that take an "org" argument fall back to --org or default_org.

Available tools: tracker_get_organization, tracker_list_projects,
tracker_list_tasks, tracker_list_comments, tracker_project_statistics,
tracker_create_project, tracker_create_task, tracker_update_task,
tracker_add_comment`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := getService()
		if err != nil {
			return err
		}
		defaultOrg := orgFlag
		if defaultOrg == "" {
			defaultOrg = viper.GetString("default_org")
		}
		return mcp.NewServer(svc, defaultOrg, buildVersion).ServeStdio(commandContext(cmd))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
