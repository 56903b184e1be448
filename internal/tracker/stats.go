package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/store"
)

// CompletionRate returns completed/total as a percentage rounded to two
// decimal places, or 0 when total is zero.
func CompletionRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}

// ProjectStatistics aggregates task progress across the organization's
// projects, or a single project when projectID is set. An unknown
// organization yields nil and no error.
func (s *Service) ProjectStatistics(ctx context.Context, orgSlug, projectID string) (*models.ProjectStatistics, error) {
	if _, err := s.store.GetOrganizationBySlug(ctx, orgSlug); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization %s: %w", orgSlug, err)
	}

	filter := store.ProjectListFilter{OrganizationSlug: orgSlug}
	if projectID != "" {
		filter.IDs = []string{projectID}
	}
	projects, err := s.store.ListProjects(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	stats := &models.ProjectStatistics{TotalProjects: len(projects)}
	if len(projects) == 0 {
		return stats, nil
	}

	ids := lo.Map(projects, func(p *models.Project, _ int) string { return p.ID })
	tasks, err := s.store.ListTasks(ctx, store.TaskListFilter{OrganizationSlug: orgSlug, ProjectIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	stats.TotalTasks = len(tasks)
	stats.CompletedTasks = lo.CountBy(tasks, func(t *models.Task) bool { return t.Status == models.TaskStatusDone })
	stats.ActiveTasks = lo.CountBy(tasks, func(t *models.Task) bool { return t.Status == models.TaskStatusInProgress })
	stats.CompletionRate = CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	return stats, nil
}
