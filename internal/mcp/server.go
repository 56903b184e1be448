// Package mcp exposes tracker operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

// Server wraps the tracker service and exposes it as MCP tools.
type Server struct {
	svc        *tracker.Service
	defaultOrg string
	version    string
}

// NewServer creates the MCP server wrapper. defaultOrg is used when a tool
// call omits the org argument; it may be empty.
func NewServer(svc *tracker.Service, defaultOrg, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{svc: svc, defaultOrg: defaultOrg, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("tracker", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.getOrganizationTool())
	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.listTasksTool())
	srv.AddTool(s.listCommentsTool())
	srv.AddTool(s.projectStatisticsTool())
	srv.AddTool(s.createProjectTool())
	srv.AddTool(s.createTaskTool())
	srv.AddTool(s.updateTaskTool())
	srv.AddTool(s.addCommentTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func orgOption() mcp.ToolOption {
	return mcp.WithString("org", mcp.Description("Organization slug. Defaults to the configured default_org."))
}

// org resolves the organization slug for a call.
func (s *Server) org(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	slug := request.GetString("org", s.defaultOrg)
	if slug == "" {
		return "", mcp.NewToolResultError("missing required parameter: org (no default_org configured)")
	}
	return slug, nil
}

// optional returns the string argument and whether it was supplied at all,
// so an explicit "" can be told apart from an absent key.
func optional(request mcp.CallToolRequest, key string) (string, bool) {
	v, ok := request.GetArguments()[key].(string)
	return v, ok
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(action string, err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err)), nil
}

// ---------------------------------------------------------------------------
// Read tools
// ---------------------------------------------------------------------------

// tracker_get_organization
func (s *Server) getOrganizationTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_get_organization",
		mcp.WithDescription("Get an organization by slug. Returns id, name, slug, contactEmail and createdAt as JSON."),
		orgOption(),
	)
	return tool, s.handleGetOrganization
}

func (s *Server) handleGetOrganization(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	org, err := s.svc.Organization(ctx, slug)
	if err != nil {
		return errorResult("get organization", err)
	}
	return jsonResult(org)
}

// tracker_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_list_projects",
		mcp.WithDescription("List the projects of an organization with taskCount, completedTasks and completionRate."),
		orgOption(),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	projects, err := s.svc.ListProjects(ctx, slug)
	if err != nil {
		return errorResult("list projects", err)
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return jsonResult(projects)
}

// tracker_list_tasks
func (s *Server) listTasksTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_list_tasks",
		mcp.WithDescription("List the tasks of an organization, optionally narrowed to one project or status."),
		orgOption(),
		mcp.WithString("project_id", mcp.Description("Only tasks of this project")),
		mcp.WithString("status", mcp.Description("Only tasks in this status: TODO, IN_PROGRESS, BLOCKED, DONE")),
	)
	return tool, s.handleListTasks
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	tasks, err := s.svc.ListTasks(ctx, slug, tracker.TaskFilter{
		ProjectID: request.GetString("project_id", ""),
		Status:    models.TaskStatus(request.GetString("status", "")),
	})
	if err != nil {
		return errorResult("list tasks", err)
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return jsonResult(tasks)
}

// tracker_list_comments
func (s *Server) listCommentsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_list_comments",
		mcp.WithDescription("List the comments of a task in creation order. Returns [] when the task is not found."),
		orgOption(),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
	)
	return tool, s.handleListComments
}

func (s *Server) handleListComments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	comments, err := s.svc.ListTaskComments(ctx, taskID, slug)
	if err != nil {
		return errorResult("list comments", err)
	}
	return jsonResult(comments)
}

// tracker_project_statistics
func (s *Server) projectStatisticsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_project_statistics",
		mcp.WithDescription("Aggregate task progress for an organization or one of its projects: totalProjects, totalTasks, completedTasks, activeTasks, completionRate. Returns null for an unknown organization."),
		orgOption(),
		mcp.WithString("project_id", mcp.Description("Narrow to one project")),
	)
	return tool, s.handleProjectStatistics
}

func (s *Server) handleProjectStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	stats, err := s.svc.ProjectStatistics(ctx, slug, request.GetString("project_id", ""))
	if err != nil {
		return errorResult("compute statistics", err)
	}
	return jsonResult(stats)
}

// ---------------------------------------------------------------------------
// Mutation tools
// ---------------------------------------------------------------------------

// tracker_create_project
func (s *Server) createProjectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_create_project",
		mcp.WithDescription("Create a project in an organization. Returns the created project as JSON."),
		orgOption(),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
		mcp.WithString("description", mcp.Description("Project description")),
		mcp.WithString("status", mcp.Description("ACTIVE (default), ON_HOLD, COMPLETED, ARCHIVED")),
		mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD")),
	)
	return tool, s.handleCreateProject
}

func (s *Server) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	due, err := tracker.ParseProjectDueDate(request.GetString("due_date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := s.svc.CreateProject(ctx, tracker.CreateProjectInput{
		OrganizationSlug: slug,
		Name:             name,
		Description:      request.GetString("description", ""),
		Status:           models.ProjectStatus(request.GetString("status", "")),
		DueDate:          due,
	})
	if err != nil {
		return errorResult("create project", err)
	}
	return jsonResult(p)
}

// tracker_create_task
func (s *Server) createTaskTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_create_task",
		mcp.WithDescription("Create a task under a project of the organization. Returns the created task as JSON."),
		orgOption(),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("status", mcp.Description("TODO (default), IN_PROGRESS, BLOCKED, DONE")),
		mcp.WithString("assignee_email", mcp.Description("Assignee email")),
		mcp.WithString("due_date", mcp.Description("Due date-time in RFC 3339")),
	)
	return tool, s.handleCreateTask
}

func (s *Server) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	projectID, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}
	due, err := tracker.ParseTaskDueDate(request.GetString("due_date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, err := s.svc.CreateTask(ctx, tracker.CreateTaskInput{
		ProjectID:        projectID,
		OrganizationSlug: slug,
		Title:            title,
		Description:      request.GetString("description", ""),
		Status:           models.TaskStatus(request.GetString("status", "")),
		AssigneeEmail:    request.GetString("assignee_email", ""),
		DueDate:          due,
	})
	if err != nil {
		return errorResult("create task", err)
	}
	return jsonResult(t)
}

// tracker_update_task
func (s *Server) updateTaskTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_update_task",
		mcp.WithDescription("Update a task. Only supplied fields change; an empty string blanks description or assignee_email, and an empty due_date clears it. Returns the updated task as JSON."),
		orgOption(),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New status: TODO, IN_PROGRESS, BLOCKED, DONE")),
		mcp.WithString("assignee_email", mcp.Description("New assignee email")),
		mcp.WithString("due_date", mcp.Description("New due date-time in RFC 3339, or empty to clear")),
	)
	return tool, s.handleUpdateTask
}

func (s *Server) handleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}

	var patch tracker.TaskPatch
	updated := false
	if v, ok := optional(request, "title"); ok {
		patch.Title = &v
		updated = true
	}
	if v, ok := optional(request, "description"); ok {
		patch.Description = &v
		updated = true
	}
	if v, ok := optional(request, "status"); ok {
		st := models.TaskStatus(v)
		patch.Status = &st
		updated = true
	}
	if v, ok := optional(request, "assignee_email"); ok {
		patch.AssigneeEmail = &v
		updated = true
	}
	if v, ok := optional(request, "due_date"); ok {
		if err := patch.SetDueDate(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		updated = true
	}

	if !updated {
		return mcp.NewToolResultError("no fields provided to update; specify at least one of: title, description, status, assignee_email, due_date"), nil
	}

	t, err := s.svc.UpdateTask(ctx, taskID, slug, patch)
	if err != nil {
		return errorResult("update task", err)
	}
	return jsonResult(t)
}

// tracker_add_comment
func (s *Server) addCommentTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_add_comment",
		mcp.WithDescription("Add a comment to a task. Returns the created comment as JSON."),
		orgOption(),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Comment text")),
		mcp.WithString("author_email", mcp.Required(), mcp.Description("Author email")),
	)
	return tool, s.handleAddComment
}

func (s *Server) handleAddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, errRes := s.org(request)
	if errRes != nil {
		return errRes, nil
	}
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}
	author, err := request.RequireString("author_email")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: author_email"), nil
	}

	c, err := s.svc.CreateTaskComment(ctx, tracker.CreateCommentInput{
		TaskID:           taskID,
		OrganizationSlug: slug,
		Content:          content,
		AuthorEmail:      author,
	})
	if err != nil {
		return errorResult("add comment", err)
	}
	return jsonResult(c)
}
