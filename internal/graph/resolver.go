package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

// Resolver is the root of the query and mutation schema.
type Resolver struct {
	svc *tracker.Service
}

func optionalID(id *graphql.ID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}

func (r *Resolver) Organization(ctx context.Context, args struct{ Slug string }) (*organizationResolver, error) {
	o, err := r.svc.Organization(ctx, args.Slug)
	if err != nil {
		return nil, err
	}
	return &organizationResolver{svc: r.svc, o: o}, nil
}

func (r *Resolver) Projects(ctx context.Context, args struct{ OrganizationSlug string }) ([]*projectResolver, error) {
	projects, err := r.svc.ListProjects(ctx, args.OrganizationSlug)
	if err != nil {
		return nil, err
	}
	return newProjectSet(r.svc, args.OrganizationSlug, projects).resolvers(), nil
}

func (r *Resolver) Tasks(ctx context.Context, args struct {
	OrganizationSlug string
	ProjectID        *graphql.ID
}) ([]*taskResolver, error) {
	tasks, err := r.svc.ListTasks(ctx, args.OrganizationSlug, tracker.TaskFilter{ProjectID: optionalID(args.ProjectID)})
	if err != nil {
		return nil, err
	}
	return newTaskSet(r.svc, args.OrganizationSlug, tasks).resolvers(tasks), nil
}

func (r *Resolver) TaskComments(ctx context.Context, args struct {
	TaskID           graphql.ID
	OrganizationSlug string
}) ([]*commentResolver, error) {
	comments, err := r.svc.ListTaskComments(ctx, string(args.TaskID), args.OrganizationSlug)
	if err != nil {
		return nil, err
	}
	return newCommentSet(r.svc, args.OrganizationSlug, comments).resolvers(comments), nil
}

func (r *Resolver) ProjectStatistics(ctx context.Context, args struct {
	OrganizationSlug string
	ProjectID        *graphql.ID
}) (*statisticsResolver, error) {
	stats, err := r.svc.ProjectStatistics(ctx, args.OrganizationSlug, optionalID(args.ProjectID))
	if err != nil || stats == nil {
		return nil, err
	}
	return &statisticsResolver{s: stats}, nil
}

func single[T any](p *T) []*T { return []*T{p} }

func (r *Resolver) wrapProject(orgSlug string, p *models.Project) *projectResolver {
	return newProjectSet(r.svc, orgSlug, single(p)).resolvers()[0]
}

func (r *Resolver) wrapTask(orgSlug string, t *models.Task) *taskResolver {
	return newTaskSet(r.svc, orgSlug, single(t)).resolvers(single(t))[0]
}

func (r *Resolver) wrapComment(orgSlug string, c *models.TaskComment) *commentResolver {
	return newCommentSet(r.svc, orgSlug, single(c)).resolvers(single(c))[0]
}
