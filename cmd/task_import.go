package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/tracker/internal/llm"
	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

var (
	importProject string
	importDryRun  bool
)

var taskImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tasks from a markdown file",
	Long: `Import tasks from a markdown file.

Without --project, an LLM extracts tasks and assigns them to the
organization's projects by name, using "## <project>" headings as hints.
Requires ANTHROPIC_API_KEY or anthropic.api_key in config.

With --project, every numbered, bulleted or checkbox item becomes a task in
that project and no LLM is called. "- [x]" items are imported as DONE.

Tasks whose title already exists in the target project are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return taskImportRun(commandContext(cmd), args[0])
	},
}

func init() {
	taskImportCmd.Flags().StringVar(&importProject, "project", "", "Assign all tasks to this project ID or name (skip the LLM)")
	taskImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview extracted tasks without creating them")
	taskCmd.AddCommand(taskImportCmd)
}

// newLLMClient creates an LLM client from config/env, or returns nil if no API key is configured.
func newLLMClient() *llm.Client {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil
	}
	return llm.NewClient(apiKey, viper.GetString("anthropic.model"))
}

func taskImportRun(ctx context.Context, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("file is empty: %s", file)
	}

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

	var extracted []llm.ExtractedTask
	if importProject != "" {
		p, ok := findProject(projects, importProject)
		if !ok {
			return fmt.Errorf("project %q not found in %s", importProject, org)
		}
		extracted = parseMarkdownTasks(content)
		for i := range extracted {
			extracted[i].Project = p.Name
		}
	} else {
		client := newLLMClient()
		if client == nil {
			return fmt.Errorf("ANTHROPIC_API_KEY not set (set env var or anthropic.api_key in config, or pass --project)")
		}
		names := lo.Map(projects, func(p *models.Project, _ int) string { return p.Name })
		ui.Info("Extracting tasks with LLM...")
		if extracted, err = client.ExtractTasks(ctx, content, names); err != nil {
			return fmt.Errorf("extract tasks: %w", err)
		}
	}

	if len(extracted) == 0 {
		ui.Info("No tasks found in file.")
		return nil
	}

	if !ui.JSON {
		table := ui.Table([]string{"#", "Project", "Title", "Status", "Assignee"})
		for i, e := range extracted {
			_ = table.Append([]string{strconv.Itoa(i + 1), e.Project, e.Title, e.Status, e.AssigneeEmail})
		}
		_ = table.Render()
	}

	if importDryRun {
		if ui.JSON {
			return ui.PrintJSON(extracted)
		}
		ui.Info("Dry run: would import %d tasks", len(extracted))
		return nil
	}

	res, err := createExtractedTasks(ctx, svc, org, projects, extracted)
	if err != nil {
		return err
	}
	if ui.JSON {
		return ui.PrintJSON(res)
	}
	ui.Success("Created %d tasks across %d projects (%d skipped)", res.Created, res.Projects, res.Skipped)
	return nil
}

// findProject matches ref against project IDs, then names case-insensitively.
func findProject(projects []*models.Project, ref string) (*models.Project, bool) {
	if p, ok := lo.Find(projects, func(p *models.Project) bool { return p.ID == ref }); ok {
		return p, true
	}
	return lo.Find(projects, func(p *models.Project) bool { return strings.EqualFold(p.Name, ref) })
}

type importResult struct {
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Projects int `json:"projects"`
}

// createExtractedTasks creates tasks through the service, skipping unknown
// projects and titles already present in the target project.
func createExtractedTasks(ctx context.Context, svc *tracker.Service, org string, projects []*models.Project, extracted []llm.ExtractedTask) (importResult, error) {
	var res importResult

	existing, err := svc.ListTasks(ctx, org, tracker.TaskFilter{})
	if err != nil {
		return res, err
	}
	seen := lo.SliceToMap(existing, func(t *models.Task) (string, bool) {
		return taskKey(t.ProjectID, t.Title), true
	})
	touched := make(map[string]bool)

	for _, e := range extracted {
		p, ok := findProject(projects, e.Project)
		if !ok {
			ui.Warning("Skipping task %q: project %q not found", e.Title, e.Project)
			res.Skipped++
			continue
		}
		key := taskKey(p.ID, e.Title)
		if seen[key] {
			ui.VerboseLog("Already exists: %s", e.Title)
			res.Skipped++
			continue
		}

		status := models.TaskStatus(strings.ToUpper(e.Status))
		if !status.Valid() {
			status = models.TaskStatusTodo
		}
		due, err := tracker.ParseTaskDueDate(e.DueDate)
		if err != nil {
			ui.Warning("Ignoring due date of %q: %v", e.Title, err)
			due = nil
		}

		_, err = svc.CreateTask(ctx, tracker.CreateTaskInput{
			ProjectID:        p.ID,
			OrganizationSlug: org,
			Title:            e.Title,
			Description:      e.Description,
			Status:           status,
			AssigneeEmail:    e.AssigneeEmail,
			DueDate:          due,
		})
		if err != nil {
			ui.Warning("Failed to create task %q: %v", e.Title, err)
			res.Skipped++
			continue
		}
		seen[key] = true
		touched[p.ID] = true
		res.Created++
	}

	res.Projects = len(touched)
	return res, nil
}

func taskKey(projectID, title string) string {
	return projectID + "\x00" + strings.ToLower(strings.TrimSpace(title))
}

// parseSubItemNumber checks if a line starts with a sub-item number like "1.1" or "2.3."
// and returns the text after it.
func parseSubItemNumber(line string) (title string, ok bool) {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != '.' {
		return "", false
	}
	i++
	start := i
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == start {
		return "", false // plain "1. text"
	}
	if i < len(line) && line[i] == '.' {
		i++
	}
	if i >= len(line) || line[i] != ' ' {
		return "", false
	}
	title = strings.TrimSpace(line[i:])
	return title, title != ""
}

// parseListItem returns the text of a numbered ("1. x") or bulleted ("- x") item.
func parseListItem(line string) (string, bool) {
	for i, c := range line {
		if c == '.' && i > 0 && i < 4 {
			rest := strings.TrimSpace(line[i+1:])
			return rest, rest != ""
		}
		if c < '0' || c > '9' {
			break
		}
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		rest := strings.TrimSpace(line[2:])
		return rest, rest != ""
	}
	return "", false
}

// parseMarkdownTasks does a simple parse of markdown list items into tasks.
// "## <name>" or "## Project <name>" headings set the project; sub-items
// ("1.1 text") carry their parent item as description.
func parseMarkdownTasks(content string) []llm.ExtractedTask {
	var tasks []llm.ExtractedTask
	currentProject := ""
	parentTitle := ""

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "## ") {
			heading := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			if strings.HasPrefix(strings.ToLower(heading), "project ") {
				heading = strings.TrimSpace(heading[len("project "):])
			}
			currentProject = heading
			parentTitle = ""
			continue
		}

		if subTitle, ok := parseSubItemNumber(line); ok {
			tasks = append(tasks, llm.ExtractedTask{
				Project:     currentProject,
				Title:       subTitle,
				Description: parentTitle,
				Status:      string(models.TaskStatusTodo),
			})
			continue
		}

		title, ok := parseListItem(line)
		if !ok {
			continue
		}

		status := models.TaskStatusTodo
		switch {
		case strings.HasPrefix(title, "[x] "), strings.HasPrefix(title, "[X] "):
			status = models.TaskStatusDone
			title = strings.TrimSpace(title[4:])
		case strings.HasPrefix(title, "[ ] "):
			title = strings.TrimSpace(title[4:])
		}
		if title == "" {
			continue
		}

		// Only numbered items can parent sub-items.
		if !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "* ") {
			parentTitle = title
		}
		tasks = append(tasks, llm.ExtractedTask{
			Project: currentProject,
			Title:   title,
			Status:  string(status),
		})
	}

	return tasks
}
