package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/tracker/internal/logging"
	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/store"
)

// CreateOrganizationInput holds the fields of a new organization.
type CreateOrganizationInput struct {
	Name         string
	Slug         string
	ContactEmail string
}

// CreateProjectInput holds the fields of a new project. Empty Status
// defaults to ACTIVE.
type CreateProjectInput struct {
	OrganizationSlug string
	Name             string
	Description      string
	Status           models.ProjectStatus
	DueDate          *time.Time
}

// CreateTaskInput holds the fields of a new task. Empty Status defaults
// to TODO.
type CreateTaskInput struct {
	ProjectID        string
	OrganizationSlug string
	Title            string
	Description      string
	Status           models.TaskStatus
	AssigneeEmail    string
	DueDate          *time.Time
}

// CreateCommentInput holds the fields of a new task comment.
type CreateCommentInput struct {
	TaskID           string
	OrganizationSlug string
	Content          string
	AuthorEmail      string
}

// ProjectPatch is a partial project update. Nil fields are left unchanged.
// ClearDueDate removes the due date and wins over DueDate.
type ProjectPatch struct {
	Name         *string
	Description  *string
	Status       *models.ProjectStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
// ClearDueDate removes the due date and wins over DueDate.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	AssigneeEmail *string
	DueDate       *time.Time
	ClearDueDate  bool
}

// CreateOrganization persists a new tenant. A duplicate slug surfaces as
// the storage error.
func (s *Service) CreateOrganization(ctx context.Context, in CreateOrganizationInput) (org *models.Organization, err error) {
	defer func() { s.observe("createOrganization", err) }()

	if err := required(map[string]string{"name": in.Name, "slug": in.Slug, "contactEmail": in.ContactEmail}); err != nil {
		return nil, err
	}

	org = &models.Organization{
		Name:         in.Name,
		Slug:         strings.TrimSpace(in.Slug),
		ContactEmail: in.ContactEmail,
	}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization %s: %w", org.Slug, err)
	}

	logging.FromContext(ctx).Info("organization created",
		zap.String("org", org.Slug), zap.String("id", org.ID))
	return org, nil
}

// CreateProject persists a project under an existing organization.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (p *models.Project, err error) {
	defer func() { s.observe("createProject", err) }()

	if err := required(map[string]string{"name": in.Name}); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.ProjectStatusActive
	}
	if !status.Valid() {
		return nil, invalidf("invalid project status: %s", status)
	}

	org, err := s.Organization(ctx, in.OrganizationSlug)
	if err != nil {
		return nil, err
	}

	p = &models.Project{
		OrganizationID: org.ID,
		Name:           in.Name,
		Description:    in.Description,
		Status:         status,
		DueDate:        dateOnly(in.DueDate),
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	logging.FromContext(ctx).Info("project created",
		zap.String("org", org.Slug), zap.String("id", p.ID))
	return p, nil
}

// UpdateProject applies patch to a project of the organization.
func (s *Service) UpdateProject(ctx context.Context, id, orgSlug string, patch ProjectPatch) (p *models.Project, err error) {
	defer func() { s.observe("updateProject", err) }()

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalidf("name is required")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidf("invalid project status: %s", *patch.Status)
	}

	p, err = s.Project(ctx, orgSlug, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	switch {
	case patch.ClearDueDate:
		p.DueDate = nil
	case patch.DueDate != nil:
		p.DueDate = dateOnly(patch.DueDate)
	}

	if err := s.store.UpdateProject(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundf("project not found or does not belong to organization: %s", id)
		}
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}

	logging.FromContext(ctx).Info("project updated",
		zap.String("org", orgSlug), zap.String("id", p.ID))
	return p, nil
}

// CreateTask persists a task under a project of the organization.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (t *models.Task, err error) {
	defer func() { s.observe("createTask", err) }()

	if err := required(map[string]string{"title": in.Title}); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !status.Valid() {
		return nil, invalidf("invalid task status: %s", status)
	}

	project, err := s.store.GetProject(ctx, in.OrganizationSlug, in.ProjectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundf("project not found or does not belong to organization: %s", in.ProjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", in.ProjectID, err)
	}

	t = &models.Task{
		ProjectID:     project.ID,
		Title:         in.Title,
		Description:   in.Description,
		Status:        status,
		AssigneeEmail: in.AssigneeEmail,
		DueDate:       utc(in.DueDate),
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	logging.FromContext(ctx).Info("task created",
		zap.String("org", in.OrganizationSlug), zap.String("project_id", project.ID), zap.String("id", t.ID))
	return t, nil
}

// UpdateTask applies patch to a task of the organization.
func (s *Service) UpdateTask(ctx context.Context, id, orgSlug string, patch TaskPatch) (t *models.Task, err error) {
	defer func() { s.observe("updateTask", err) }()

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalidf("title is required")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidf("invalid task status: %s", *patch.Status)
	}

	t, err = s.Task(ctx, orgSlug, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.AssigneeEmail != nil {
		t.AssigneeEmail = *patch.AssigneeEmail
	}
	switch {
	case patch.ClearDueDate:
		t.DueDate = nil
	case patch.DueDate != nil:
		t.DueDate = utc(patch.DueDate)
	}

	if err := s.store.UpdateTask(ctx, t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundf("task not found or does not belong to organization: %s", id)
		}
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}

	logging.FromContext(ctx).Info("task updated",
		zap.String("org", orgSlug), zap.String("id", t.ID), zap.String("status", string(t.Status)))
	return t, nil
}

// CreateTaskComment appends a comment to a task of the organization.
func (s *Service) CreateTaskComment(ctx context.Context, in CreateCommentInput) (c *models.TaskComment, err error) {
	defer func() { s.observe("createTaskComment", err) }()

	if err := required(map[string]string{"content": in.Content, "authorEmail": in.AuthorEmail}); err != nil {
		return nil, err
	}

	task, err := s.Task(ctx, in.OrganizationSlug, in.TaskID)
	if err != nil {
		return nil, err
	}

	c = &models.TaskComment{
		TaskID:      task.ID,
		Content:     in.Content,
		AuthorEmail: in.AuthorEmail,
	}
	if err := s.store.CreateTaskComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	logging.FromContext(ctx).Info("comment created",
		zap.String("org", in.OrganizationSlug), zap.String("task_id", task.ID), zap.String("id", c.ID))
	return c, nil
}

// required returns ErrInvalid naming every blank field in sorted order.
func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return invalidf("%s is required", strings.Join(missing, ", "))
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// dateOnly truncates t to UTC midnight of its calendar day.
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}
