package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/tracker/internal/models"
)

// runStoreSuite exercises the Store contract against any implementation.
// newStore must return a migrated, empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("OrganizationCRUD", func(t *testing.T) { testOrganizationCRUD(t, newStore(t)) })
	t.Run("ProjectScoping", func(t *testing.T) { testProjectScoping(t, newStore(t)) })
	t.Run("TaskScoping", func(t *testing.T) { testTaskScoping(t, newStore(t)) })
	t.Run("TaskUpdate", func(t *testing.T) { testTaskUpdate(t, newStore(t)) })
	t.Run("TaskCounts", func(t *testing.T) { testTaskCounts(t, newStore(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func seedOrg(t *testing.T, s Store, slug string) *models.Organization {
	t.Helper()
	o := &models.Organization{Name: slug + " inc", Slug: slug, ContactEmail: "ops@" + slug + ".test"}
	require.NoError(t, s.CreateOrganization(context.Background(), o))
	return o
}

func seedProject(t *testing.T, s Store, org *models.Organization, name string) *models.Project {
	t.Helper()
	p := &models.Project{OrganizationID: org.ID, Name: name, Status: models.ProjectStatusActive}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func seedTask(t *testing.T, s Store, p *models.Project, title string, status models.TaskStatus) *models.Task {
	t.Helper()
	task := &models.Task{ProjectID: p.ID, Title: title, Status: status}
	require.NoError(t, s.CreateTask(context.Background(), task))
	return task
}

func testOrganizationCRUD(t *testing.T, s Store) {
	ctx := context.Background()

	o := seedOrg(t, s, "acme")
	assert.NotEmpty(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())

	got, err := s.GetOrganizationBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, "acme inc", got.Name)
	assert.Equal(t, "ops@acme.test", got.ContactEmail)

	_, err = s.GetOrganizationBySlug(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &models.Organization{Name: "Other", Slug: "acme", ContactEmail: "x@y.test"}
	assert.Error(t, s.CreateOrganization(ctx, dup), "duplicate slug must fail at the storage layer")
}

func testProjectScoping(t *testing.T, s Store) {
	ctx := context.Background()
	acme := seedOrg(t, s, "acme")
	globex := seedOrg(t, s, "globex")

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	launch := &models.Project{OrganizationID: acme.ID, Name: "Launch", Status: models.ProjectStatusActive, DueDate: &due}
	require.NoError(t, s.CreateProject(ctx, launch))
	ops := seedProject(t, s, acme, "Ops")
	other := seedProject(t, s, globex, "Secret")

	projects, err := s.ListProjects(ctx, ProjectListFilter{OrganizationSlug: "acme"})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, launch.ID, projects[0].ID, "insertion order")
	assert.Equal(t, ops.ID, projects[1].ID)
	require.NotNil(t, projects[0].DueDate)
	assert.Equal(t, "2026-03-01", projects[0].DueDate.Format(models.DateLayout))

	projects, err = s.ListProjects(ctx, ProjectListFilter{OrganizationSlug: "acme", IDs: []string{ops.ID, other.ID}})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, ops.ID, projects[0].ID)

	projects, err = s.ListProjects(ctx, ProjectListFilter{OrganizationSlug: "ghost"})
	require.NoError(t, err)
	assert.Empty(t, projects)

	_, err = s.GetProject(ctx, "acme", other.ID)
	assert.ErrorIs(t, err, ErrNotFound, "cross-tenant lookup must miss")

	got, err := s.GetProject(ctx, "globex", other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret", got.Name)

	got.Description = "classified"
	got.Status = models.ProjectStatusOnHold
	got.DueDate = nil
	require.NoError(t, s.UpdateProject(ctx, got))

	got, err = s.GetProject(ctx, "globex", other.ID)
	require.NoError(t, err)
	assert.Equal(t, "classified", got.Description)
	assert.Equal(t, models.ProjectStatusOnHold, got.Status)
	assert.Nil(t, got.DueDate)

	missing := &models.Project{ID: "nope", Name: "x", Status: models.ProjectStatusActive}
	assert.ErrorIs(t, s.UpdateProject(ctx, missing), ErrNotFound)
}

func testTaskScoping(t *testing.T, s Store) {
	ctx := context.Background()
	acme := seedOrg(t, s, "acme")
	globex := seedOrg(t, s, "globex")
	launch := seedProject(t, s, acme, "Launch")
	ops := seedProject(t, s, acme, "Ops")
	secret := seedProject(t, s, globex, "Secret")

	t1 := seedTask(t, s, launch, "write copy", models.TaskStatusTodo)
	t2 := seedTask(t, s, ops, "rotate keys", models.TaskStatusDone)
	t3 := seedTask(t, s, secret, "hidden", models.TaskStatusTodo)

	tasks, err := s.ListTasks(ctx, TaskListFilter{OrganizationSlug: "acme"})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, t1.ID, tasks[0].ID)
	assert.Equal(t, t2.ID, tasks[1].ID)

	tasks, err = s.ListTasks(ctx, TaskListFilter{OrganizationSlug: "acme", ProjectID: ops.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, t2.ID, tasks[0].ID)

	tasks, err = s.ListTasks(ctx, TaskListFilter{OrganizationSlug: "acme", ProjectID: secret.ID})
	require.NoError(t, err)
	assert.Empty(t, tasks, "another tenant's project id must not leak tasks")

	tasks, err = s.ListTasks(ctx, TaskListFilter{OrganizationSlug: "acme", Status: models.TaskStatusDone})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, t2.ID, tasks[0].ID)

	tasks, err = s.ListTasks(ctx, TaskListFilter{OrganizationSlug: "acme", ProjectIDs: []string{launch.ID}})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	tasks, err = s.ListTasks(ctx, TaskListFilter{OrganizationSlug: "acme", IDs: []string{t2.ID, t3.ID}})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, t2.ID, tasks[0].ID)

	_, err = s.GetTask(ctx, "acme", t3.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetTask(ctx, "globex", t3.ID)
	require.NoError(t, err)
	assert.Equal(t, "hidden", got.Title)
}

func testTaskUpdate(t *testing.T, s Store) {
	ctx := context.Background()
	acme := seedOrg(t, s, "acme")
	launch := seedProject(t, s, acme, "Launch")

	due := time.Date(2026, 5, 4, 17, 30, 0, 0, time.UTC)
	task := &models.Task{
		ProjectID:     launch.ID,
		Title:         "ship",
		Description:   "ship it",
		Status:        models.TaskStatusTodo,
		AssigneeEmail: "dev@acme.test",
		DueDate:       &due,
	}
	require.NoError(t, s.CreateTask(ctx, task))

	task.Status = models.TaskStatusInProgress
	require.NoError(t, s.UpdateTask(ctx, task))

	got, err := s.GetTask(ctx, "acme", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusInProgress, got.Status)
	assert.Equal(t, "ship it", got.Description)
	assert.Equal(t, "dev@acme.test", got.AssigneeEmail)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))

	assert.ErrorIs(t, s.UpdateTask(ctx, &models.Task{ID: "nope", Status: models.TaskStatusTodo}), ErrNotFound)
}

func testTaskCounts(t *testing.T, s Store) {
	ctx := context.Background()
	acme := seedOrg(t, s, "acme")
	launch := seedProject(t, s, acme, "Launch")
	empty := seedProject(t, s, acme, "Empty")

	seedTask(t, s, launch, "a", models.TaskStatusDone)
	seedTask(t, s, launch, "b", models.TaskStatusDone)
	seedTask(t, s, launch, "c", models.TaskStatusInProgress)
	seedTask(t, s, launch, "d", models.TaskStatusTodo)

	counts, err := s.TaskCountsByProject(ctx, []string{launch.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, TaskCounts{Total: 4, Completed: 2, Active: 1}, counts[launch.ID])
	assert.Equal(t, TaskCounts{}, counts[empty.ID])

	counts, err = s.TaskCountsByProject(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func testComments(t *testing.T, s Store) {
	ctx := context.Background()
	acme := seedOrg(t, s, "acme")
	launch := seedProject(t, s, acme, "Launch")
	a := seedTask(t, s, launch, "a", models.TaskStatusTodo)
	b := seedTask(t, s, launch, "b", models.TaskStatusTodo)

	first := &models.TaskComment{TaskID: a.ID, Content: "first", AuthorEmail: "x@acme.test"}
	require.NoError(t, s.CreateTaskComment(ctx, first))
	require.NoError(t, s.CreateTaskComment(ctx, &models.TaskComment{TaskID: a.ID, Content: "second", AuthorEmail: "y@acme.test"}))
	require.NoError(t, s.CreateTaskComment(ctx, &models.TaskComment{TaskID: b.ID, Content: "other", AuthorEmail: "z@acme.test"}))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	comments, err := s.ListCommentsForTasks(ctx, []string{a.ID})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	comments, err = s.ListCommentsForTasks(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, comments, 3)

	comments, err = s.ListCommentsForTasks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
