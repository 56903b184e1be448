package store

import (
	"context"
	"errors"

	"github.com/joescharf/tracker/internal/models"
)

// ErrNotFound is returned (wrapped) when a scoped lookup matches no row.
var ErrNotFound = errors.New("not found")

// ProjectListFilter scopes a project read to one organization.
type ProjectListFilter struct {
	OrganizationSlug string
	IDs              []string // optional narrowing
}

// TaskListFilter scopes a task read to one organization.
type TaskListFilter struct {
	OrganizationSlug string
	ProjectID        string
	ProjectIDs       []string
	IDs              []string
	Status           models.TaskStatus
}

// TaskCounts holds per-project task tallies.
type TaskCounts struct {
	Total     int
	Completed int
	Active    int
}

// Store defines the persistence interface for tracker. Every read that
// returns projects, tasks or comments is constrained by the organization
// slug through the ownership chain.
type Store interface {
	// Organizations
	CreateOrganization(ctx context.Context, o *models.Organization) error
	GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)

	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, orgSlug, id string) (*models.Project, error)
	ListProjects(ctx context.Context, filter ProjectListFilter) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	TaskCountsByProject(ctx context.Context, projectIDs []string) (map[string]TaskCounts, error)

	// Tasks
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, orgSlug, id string) (*models.Task, error)
	ListTasks(ctx context.Context, filter TaskListFilter) ([]*models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error

	// Comments
	CreateTaskComment(ctx context.Context, c *models.TaskComment) error
	ListCommentsForTasks(ctx context.Context, taskIDs []string) ([]*models.TaskComment, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
