package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/store"
)

// Organization returns the organization identified by slug.
func (s *Service) Organization(ctx context.Context, slug string) (*models.Organization, error) {
	org, err := s.store.GetOrganizationBySlug(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundf("organization not found: %s", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization %s: %w", slug, err)
	}
	return org, nil
}

// ListProjects returns the organization's projects with their task counts.
// An unknown organization yields an empty list.
func (s *Service) ListProjects(ctx context.Context, orgSlug string) ([]*models.Project, error) {
	projects, err := s.store.ListProjects(ctx, store.ProjectListFilter{OrganizationSlug: orgSlug})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if err := s.fillCounts(ctx, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Project returns one project scoped to the organization.
func (s *Service) Project(ctx context.Context, orgSlug, id string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, orgSlug, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundf("project not found or does not belong to organization: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if err := s.fillCounts(ctx, []*models.Project{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// TaskFilter narrows ListTasks. Zero values mean no narrowing.
type TaskFilter struct {
	ProjectID string
	Status    models.TaskStatus
}

// ListTasks returns the tasks whose project belongs to the organization.
// Unknown organizations or projects yield an empty list.
func (s *Service) ListTasks(ctx context.Context, orgSlug string, f TaskFilter) ([]*models.Task, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalidf("invalid task status: %s", f.Status)
	}
	tasks, err := s.store.ListTasks(ctx, store.TaskListFilter{
		OrganizationSlug: orgSlug,
		ProjectID:        f.ProjectID,
		Status:           f.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Task returns one task scoped to the organization.
func (s *Service) Task(ctx context.Context, orgSlug, id string) (*models.Task, error) {
	t, err := s.store.GetTask(ctx, orgSlug, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundf("task not found or does not belong to organization: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// ListTaskComments returns the comments of a task in the organization. A
// task that does not resolve yields an empty list, not an error.
func (s *Service) ListTaskComments(ctx context.Context, taskID, orgSlug string) ([]*models.TaskComment, error) {
	if _, err := s.store.GetTask(ctx, orgSlug, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []*models.TaskComment{}, nil
		}
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	comments, err := s.store.ListCommentsForTasks(ctx, []string{taskID})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if comments == nil {
		comments = []*models.TaskComment{}
	}
	return comments, nil
}

// fillCounts sets the derived task fields on projects with one grouped query.
func (s *Service) fillCounts(ctx context.Context, projects []*models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	counts, err := s.store.TaskCountsByProject(ctx, ids)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	for _, p := range projects {
		c := counts[p.ID]
		p.TaskCount = c.Total
		p.CompletedTasks = c.Completed
		p.CompletionRate = CompletionRate(c.Completed, c.Total)
	}
	return nil
}
