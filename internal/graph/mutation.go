package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type organizationPayload struct{ org *organizationResolver }

func (p *organizationPayload) Organization() *organizationResolver { return p.org }

type projectPayload struct{ project *projectResolver }

func (p *projectPayload) Project() *projectResolver { return p.project }

type taskPayload struct{ task *taskResolver }

func (p *taskPayload) Task() *taskResolver { return p.task }

type commentPayload struct{ comment *commentResolver }

func (p *commentPayload) Comment() *commentResolver { return p.comment }

func (r *Resolver) CreateOrganization(ctx context.Context, args struct {
	Name         string
	Slug         string
	ContactEmail string
}) (*organizationPayload, error) {
	o, err := r.svc.CreateOrganization(ctx, tracker.CreateOrganizationInput{
		Name:         args.Name,
		Slug:         args.Slug,
		ContactEmail: args.ContactEmail,
	})
	if err != nil {
		return nil, err
	}
	return &organizationPayload{org: &organizationResolver{svc: r.svc, o: o}}, nil
}

func (r *Resolver) CreateProject(ctx context.Context, args struct {
	OrganizationSlug string
	Name             string
	Description      *string
	Status           *string
	DueDate          *string
}) (*projectPayload, error) {
	due, err := tracker.ParseProjectDueDate(deref(args.DueDate))
	if err != nil {
		return nil, err
	}
	p, err := r.svc.CreateProject(ctx, tracker.CreateProjectInput{
		OrganizationSlug: args.OrganizationSlug,
		Name:             args.Name,
		Description:      deref(args.Description),
		Status:           models.ProjectStatus(deref(args.Status)),
		DueDate:          due,
	})
	if err != nil {
		return nil, err
	}
	return &projectPayload{project: r.wrapProject(args.OrganizationSlug, p)}, nil
}

func (r *Resolver) UpdateProject(ctx context.Context, args struct {
	ID               graphql.ID
	OrganizationSlug string
	Name             *string
	Description      *string
	Status           *string
	DueDate          *string
}) (*projectPayload, error) {
	patch := tracker.ProjectPatch{Name: args.Name, Description: args.Description}
	if args.Status != nil {
		s := models.ProjectStatus(*args.Status)
		patch.Status = &s
	}
	if args.DueDate != nil {
		if err := patch.SetDueDate(*args.DueDate); err != nil {
			return nil, err
		}
	}
	p, err := r.svc.UpdateProject(ctx, string(args.ID), args.OrganizationSlug, patch)
	if err != nil {
		return nil, err
	}
	return &projectPayload{project: r.wrapProject(args.OrganizationSlug, p)}, nil
}

func (r *Resolver) CreateTask(ctx context.Context, args struct {
	ProjectID        graphql.ID
	OrganizationSlug string
	Title            string
	Description      *string
	Status           *string
	AssigneeEmail    *string
	DueDate          *string
}) (*taskPayload, error) {
	due, err := tracker.ParseTaskDueDate(deref(args.DueDate))
	if err != nil {
		return nil, err
	}
	t, err := r.svc.CreateTask(ctx, tracker.CreateTaskInput{
		ProjectID:        string(args.ProjectID),
		OrganizationSlug: args.OrganizationSlug,
		Title:            args.Title,
		Description:      deref(args.Description),
		Status:           models.TaskStatus(deref(args.Status)),
		AssigneeEmail:    deref(args.AssigneeEmail),
		DueDate:          due,
	})
	if err != nil {
		return nil, err
	}
	return &taskPayload{task: r.wrapTask(args.OrganizationSlug, t)}, nil
}

func (r *Resolver) UpdateTask(ctx context.Context, args struct {
	ID               graphql.ID
	OrganizationSlug string
	Title            *string
	Description      *string
	Status           *string
	AssigneeEmail    *string
	DueDate          *string
}) (*taskPayload, error) {
	patch := tracker.TaskPatch{Title: args.Title, Description: args.Description, AssigneeEmail: args.AssigneeEmail}
	if args.Status != nil {
		s := models.TaskStatus(*args.Status)
		patch.Status = &s
	}
	if args.DueDate != nil {
		if err := patch.SetDueDate(*args.DueDate); err != nil {
			return nil, err
		}
	}
	t, err := r.svc.UpdateTask(ctx, string(args.ID), args.OrganizationSlug, patch)
	if err != nil {
		return nil, err
	}
	return &taskPayload{task: r.wrapTask(args.OrganizationSlug, t)}, nil
}

func (r *Resolver) CreateTaskComment(ctx context.Context, args struct {
	TaskID           graphql.ID
	OrganizationSlug string
	Content          string
	AuthorEmail      string
}) (*commentPayload, error) {
	c, err := r.svc.CreateTaskComment(ctx, tracker.CreateCommentInput{
		TaskID:           string(args.TaskID),
		OrganizationSlug: args.OrganizationSlug,
		Content:          args.Content,
		AuthorEmail:      args.AuthorEmail,
	})
	if err != nil {
		return nil, err
	}
	return &commentPayload{comment: r.wrapComment(args.OrganizationSlug, c)}, nil
}
