package graph

import (
	"context"
	"fmt"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

type organizationResolver struct {
	svc *tracker.Service
	o   *models.Organization
}

func (r *organizationResolver) ID() graphql.ID       { return graphql.ID(r.o.ID) }
func (r *organizationResolver) Name() string         { return r.o.Name }
func (r *organizationResolver) Slug() string         { return r.o.Slug }
func (r *organizationResolver) ContactEmail() string { return r.o.ContactEmail }
func (r *organizationResolver) CreatedAt() string    { return timestamp(r.o.CreatedAt) }

func (r *organizationResolver) Projects(ctx context.Context) ([]*projectResolver, error) {
	projects, err := r.svc.ListProjects(ctx, r.o.Slug)
	if err != nil {
		return nil, err
	}
	set := newProjectSet(r.svc, r.o.Slug, projects)
	set.org.get(func() (*models.Organization, error) { return r.o, nil })
	return set.resolvers(), nil
}

type projectResolver struct {
	p   *models.Project
	set *projectSet
}

func (r *projectResolver) ID() graphql.ID          { return graphql.ID(r.p.ID) }
func (r *projectResolver) Name() string            { return r.p.Name }
func (r *projectResolver) Description() string     { return r.p.Description }
func (r *projectResolver) Status() string          { return string(r.p.Status) }
func (r *projectResolver) CreatedAt() string       { return timestamp(r.p.CreatedAt) }
func (r *projectResolver) UpdatedAt() string       { return timestamp(r.p.UpdatedAt) }
func (r *projectResolver) TaskCount() int32        { return int32(r.p.TaskCount) }
func (r *projectResolver) CompletedTasks() int32   { return int32(r.p.CompletedTasks) }
func (r *projectResolver) CompletionRate() float64 { return r.p.CompletionRate }

func (r *projectResolver) DueDate() *string {
	if r.p.DueDate == nil {
		return nil
	}
	s := r.p.DueDate.Format(models.DateLayout)
	return &s
}

func (r *projectResolver) Organization(ctx context.Context) (*organizationResolver, error) {
	o, err := r.set.organization(ctx)
	if err != nil {
		return nil, err
	}
	return &organizationResolver{svc: r.set.svc, o: o}, nil
}

func (r *projectResolver) Tasks(ctx context.Context) ([]*taskResolver, error) {
	tasks, set, err := r.set.tasksFor(ctx, r.p.ID)
	if err != nil {
		return nil, err
	}
	return set.resolvers(tasks), nil
}

type taskResolver struct {
	t   *models.Task
	set *taskSet
}

func (r *taskResolver) ID() graphql.ID        { return graphql.ID(r.t.ID) }
func (r *taskResolver) Title() string         { return r.t.Title }
func (r *taskResolver) Description() string   { return r.t.Description }
func (r *taskResolver) Status() string        { return string(r.t.Status) }
func (r *taskResolver) AssigneeEmail() string { return r.t.AssigneeEmail }
func (r *taskResolver) CreatedAt() string     { return timestamp(r.t.CreatedAt) }
func (r *taskResolver) UpdatedAt() string     { return timestamp(r.t.UpdatedAt) }

func (r *taskResolver) DueDate() *string {
	if r.t.DueDate == nil {
		return nil
	}
	s := timestamp(*r.t.DueDate)
	return &s
}

func (r *taskResolver) Project(ctx context.Context) (*projectResolver, error) {
	p, set, err := r.set.projectFor(ctx, r.t.ProjectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s of task %s: %w", r.t.ProjectID, r.t.ID, tracker.ErrNotFound)
	}
	return &projectResolver{p: p, set: set}, nil
}

func (r *taskResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, set, err := r.set.commentsFor(ctx, r.t.ID)
	if err != nil {
		return nil, err
	}
	return set.resolvers(comments), nil
}

type commentResolver struct {
	c   *models.TaskComment
	set *commentSet
}

func (r *commentResolver) ID() graphql.ID      { return graphql.ID(r.c.ID) }
func (r *commentResolver) Content() string     { return r.c.Content }
func (r *commentResolver) AuthorEmail() string { return r.c.AuthorEmail }
func (r *commentResolver) CreatedAt() string   { return timestamp(r.c.CreatedAt) }

func (r *commentResolver) Task(ctx context.Context) (*taskResolver, error) {
	t, set, err := r.set.taskFor(ctx, r.c.TaskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %s of comment %s: %w", r.c.TaskID, r.c.ID, tracker.ErrNotFound)
	}
	return &taskResolver{t: t, set: set}, nil
}

type statisticsResolver struct {
	s *models.ProjectStatistics
}

func (r *statisticsResolver) TotalProjects() int32    { return int32(r.s.TotalProjects) }
func (r *statisticsResolver) TotalTasks() int32       { return int32(r.s.TotalTasks) }
func (r *statisticsResolver) CompletedTasks() int32   { return int32(r.s.CompletedTasks) }
func (r *statisticsResolver) ActiveTasks() int32      { return int32(r.s.ActiveTasks) }
func (r *statisticsResolver) CompletionRate() float64 { return r.s.CompletionRate }
