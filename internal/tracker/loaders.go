package tracker

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/store"
)

// Batch reads used to resolve nested fields in one query per level.

// ProjectsByID loads the given projects of an organization, keyed by id.
// Ids outside the organization are absent from the result.
func (s *Service) ProjectsByID(ctx context.Context, orgSlug string, ids []string) (map[string]*models.Project, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return map[string]*models.Project{}, nil
	}
	projects, err := s.store.ListProjects(ctx, store.ProjectListFilter{OrganizationSlug: orgSlug, IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if err := s.fillCounts(ctx, projects); err != nil {
		return nil, err
	}
	return lo.KeyBy(projects, func(p *models.Project) string { return p.ID }), nil
}

// TasksByProject loads the tasks of the given projects, grouped by project id.
func (s *Service) TasksByProject(ctx context.Context, orgSlug string, projectIDs []string) (map[string][]*models.Task, error) {
	projectIDs = lo.Uniq(projectIDs)
	if len(projectIDs) == 0 {
		return map[string][]*models.Task{}, nil
	}
	tasks, err := s.store.ListTasks(ctx, store.TaskListFilter{OrganizationSlug: orgSlug, ProjectIDs: projectIDs})
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return lo.GroupBy(tasks, func(t *models.Task) string { return t.ProjectID }), nil
}

// TasksByID loads the given tasks of an organization, keyed by id.
func (s *Service) TasksByID(ctx context.Context, orgSlug string, ids []string) (map[string]*models.Task, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return map[string]*models.Task{}, nil
	}
	tasks, err := s.store.ListTasks(ctx, store.TaskListFilter{OrganizationSlug: orgSlug, IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return lo.KeyBy(tasks, func(t *models.Task) string { return t.ID }), nil
}

// CommentsByTask loads the comments of the given tasks, grouped by task id.
// Callers pass ids already scoped to an organization.
func (s *Service) CommentsByTask(ctx context.Context, taskIDs []string) (map[string][]*models.TaskComment, error) {
	taskIDs = lo.Uniq(taskIDs)
	if len(taskIDs) == 0 {
		return map[string][]*models.TaskComment{}, nil
	}
	comments, err := s.store.ListCommentsForTasks(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return lo.GroupBy(comments, func(c *models.TaskComment) string { return c.TaskID }), nil
}
