package tracker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/store"
)

type recordingObserver struct {
	ops  []string
	errs []error
}

func (r *recordingObserver) Mutation(op string, err error) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func newTestService(t *testing.T) (*Service, *recordingObserver) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	obs := &recordingObserver{}
	return NewService(s, WithObserver(obs)), obs
}

type acmeFixture struct {
	org    *models.Organization
	launch *models.Project
	tasks  []*models.Task
}

// seedAcme creates acme with project Launch holding 2 DONE, 1 IN_PROGRESS
// and 1 TODO task.
func seedAcme(t *testing.T, svc *Service) acmeFixture {
	t.Helper()
	ctx := context.Background()

	org, err := svc.CreateOrganization(ctx, CreateOrganizationInput{Name: "Acme", Slug: "acme", ContactEmail: "ops@acme.test"})
	require.NoError(t, err)
	launch, err := svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "acme", Name: "Launch"})
	require.NoError(t, err)

	f := acmeFixture{org: org, launch: launch}
	for i, status := range []models.TaskStatus{
		models.TaskStatusDone, models.TaskStatusDone, models.TaskStatusInProgress, models.TaskStatusTodo,
	} {
		task, err := svc.CreateTask(ctx, CreateTaskInput{
			ProjectID:        launch.ID,
			OrganizationSlug: "acme",
			Title:            "task " + string(rune('a'+i)),
			Status:           status,
		})
		require.NoError(t, err)
		f.tasks = append(f.tasks, task)
	}
	return f
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, total int
		want             float64
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{2, 4, 50},
		{5, 5, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompletionRate(tt.completed, tt.total), "%d/%d", tt.completed, tt.total)
	}
}

func TestOrganization_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Organization(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestCreateOrganization(t *testing.T) {
	svc, obs := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateOrganization(ctx, CreateOrganizationInput{Name: "Acme", Slug: " ", ContactEmail: ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "contactEmail, slug is required", err.Error())

	org, err := svc.CreateOrganization(ctx, CreateOrganizationInput{Name: "Acme", Slug: "acme", ContactEmail: "ops@acme.test"})
	require.NoError(t, err)
	assert.NotEmpty(t, org.ID)

	got, err := svc.Organization(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, org.ID, got.ID)

	_, err = svc.CreateOrganization(ctx, CreateOrganizationInput{Name: "Acme 2", Slug: "acme", ContactEmail: "x@acme.test"})
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.False(t, IsInvalid(err))

	assert.Equal(t, []string{"createOrganization", "createOrganization", "createOrganization"}, obs.ops)
	assert.Error(t, obs.errs[0])
	assert.NoError(t, obs.errs[1])
	assert.Error(t, obs.errs[2])
}

func TestCreateProject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedAcme(t, svc)

	t.Run("defaults", func(t *testing.T) {
		p, err := svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "acme", Name: "Docs"})
		require.NoError(t, err)
		assert.Equal(t, models.ProjectStatusActive, p.Status)
		assert.Equal(t, "", p.Description)
		assert.Nil(t, p.DueDate)
	})

	t.Run("due date truncated to day", func(t *testing.T) {
		due := time.Date(2026, 3, 9, 15, 4, 5, 0, time.UTC)
		p, err := svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "acme", Name: "Q2", DueDate: &due})
		require.NoError(t, err)
		require.NotNil(t, p.DueDate)
		assert.Equal(t, "2026-03-09", p.DueDate.Format(models.DateLayout))
		assert.Equal(t, 0, p.DueDate.Hour())
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "acme", Name: "X", Status: "PAUSED"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("missing organization persists nothing", func(t *testing.T) {
		before, err := svc.ListProjects(ctx, "acme")
		require.NoError(t, err)

		_, err = svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "ghost", Name: "Orphan"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)

		ghost, err := svc.ListProjects(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, ghost)

		after, err := svc.ListProjects(ctx, "acme")
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}

func TestListProjects_Scoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	_, err := svc.CreateOrganization(ctx, CreateOrganizationInput{Name: "Globex", Slug: "globex", ContactEmail: "it@globex.test"})
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "globex", Name: "Hidden"})
	require.NoError(t, err)

	projects, err := svc.ListProjects(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, f.launch.ID, p.ID)
	assert.Equal(t, f.org.ID, p.OrganizationID)
	assert.Equal(t, 4, p.TaskCount)
	assert.Equal(t, 2, p.CompletedTasks)
	assert.Equal(t, 50.0, p.CompletionRate)
}

func TestListTasks_Scoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	_, err := svc.CreateOrganization(ctx, CreateOrganizationInput{Name: "Globex", Slug: "globex", ContactEmail: "it@globex.test"})
	require.NoError(t, err)
	hidden, err := svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "globex", Name: "Hidden"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, CreateTaskInput{ProjectID: hidden.ID, OrganizationSlug: "globex", Title: "secret"})
	require.NoError(t, err)

	tasks, err := svc.ListTasks(ctx, "acme", TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 4)

	tasks, err = svc.ListTasks(ctx, "acme", TaskFilter{ProjectID: f.launch.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 4)

	tasks, err = svc.ListTasks(ctx, "acme", TaskFilter{ProjectID: hidden.ID})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	tasks, err = svc.ListTasks(ctx, "acme", TaskFilter{Status: models.TaskStatusDone})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	_, err = svc.ListTasks(ctx, "acme", TaskFilter{Status: "LATER"})
	assert.ErrorIs(t, err, ErrInvalid)

	tasks, err = svc.ListTasks(ctx, "ghost", TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	due := time.Date(2026, 7, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
	task, err := svc.CreateTask(ctx, CreateTaskInput{
		ProjectID: f.launch.ID, OrganizationSlug: "acme", Title: "ship", DueDate: &due,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, "", task.AssigneeEmail)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))
	assert.Equal(t, time.UTC, task.DueDate.Location())

	_, err = svc.CreateTask(ctx, CreateTaskInput{ProjectID: f.launch.ID, OrganizationSlug: "globex", Title: "leak"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "does not belong to organization")

	_, err = svc.CreateTask(ctx, CreateTaskInput{ProjectID: f.launch.ID, OrganizationSlug: "acme", Title: ""})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateTask_StatusOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	due := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created, err := svc.CreateTask(ctx, CreateTaskInput{
		ProjectID: f.launch.ID, OrganizationSlug: "acme", Title: "write docs",
		Description: "all of them", AssigneeEmail: "dev@acme.test", DueDate: &due,
	})
	require.NoError(t, err)

	done := models.TaskStatusDone
	updated, err := svc.UpdateTask(ctx, created.ID, "acme", TaskPatch{Status: &done})
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusDone, updated.Status)
	assert.Equal(t, "write docs", updated.Title)
	assert.Equal(t, "all of them", updated.Description)
	assert.Equal(t, "dev@acme.test", updated.AssigneeEmail)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(due))

	reloaded, err := svc.Task(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, reloaded.Status)
	assert.Equal(t, "all of them", reloaded.Description)
}

func TestUpdateTask_BlankAndClear(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	due := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	created, err := svc.CreateTask(ctx, CreateTaskInput{
		ProjectID: f.launch.ID, OrganizationSlug: "acme", Title: "x",
		AssigneeEmail: "dev@acme.test", DueDate: &due,
	})
	require.NoError(t, err)

	empty := ""
	updated, err := svc.UpdateTask(ctx, created.ID, "acme", TaskPatch{AssigneeEmail: &empty, ClearDueDate: true})
	require.NoError(t, err)
	assert.Equal(t, "", updated.AssigneeEmail)
	assert.Nil(t, updated.DueDate)

	_, err = svc.UpdateTask(ctx, created.ID, "acme", TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, ErrInvalid)

	bogus := models.TaskStatus("LATER")
	_, err = svc.UpdateTask(ctx, created.ID, "acme", TaskPatch{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.UpdateTask(ctx, created.ID, "globex", TaskPatch{Title: &created.Title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	held := models.ProjectStatusOnHold
	desc := "paused for review"
	due := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	p, err := svc.UpdateProject(ctx, f.launch.ID, "acme", ProjectPatch{Status: &held, Description: &desc, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOnHold, p.Status)
	assert.Equal(t, "Launch", p.Name)
	assert.Equal(t, desc, p.Description)
	require.NotNil(t, p.DueDate)
	assert.Equal(t, 4, p.TaskCount)

	p, err = svc.UpdateProject(ctx, f.launch.ID, "acme", ProjectPatch{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, p.DueDate)
	assert.Equal(t, desc, p.Description)

	_, err = svc.UpdateProject(ctx, f.launch.ID, "ghost", ProjectPatch{Status: &held})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskComments(t *testing.T) {
	svc, obs := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)
	task := f.tasks[0]

	comments, err := svc.ListTaskComments(ctx, "999", "acme")
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)

	first, err := svc.CreateTaskComment(ctx, CreateCommentInput{TaskID: task.ID, OrganizationSlug: "acme", Content: "on it", AuthorEmail: "a@acme.test"})
	require.NoError(t, err)
	second, err := svc.CreateTaskComment(ctx, CreateCommentInput{TaskID: task.ID, OrganizationSlug: "acme", Content: "done", AuthorEmail: "b@acme.test"})
	require.NoError(t, err)

	comments, err = svc.ListTaskComments(ctx, task.ID, "acme")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)

	comments, err = svc.ListTaskComments(ctx, task.ID, "globex")
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = svc.CreateTaskComment(ctx, CreateCommentInput{TaskID: task.ID, OrganizationSlug: "globex", Content: "hi", AuthorEmail: "x@globex.test"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateTaskComment(ctx, CreateCommentInput{TaskID: task.ID, OrganizationSlug: "acme", Content: "  "})
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Equal(t, "createTaskComment", obs.ops[len(obs.ops)-1])
}

func TestProjectStatistics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	stats, err := svc.ProjectStatistics(ctx, "acme", "")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, models.ProjectStatistics{
		TotalProjects:  1,
		TotalTasks:     4,
		CompletedTasks: 2,
		ActiveTasks:    1,
		CompletionRate: 50.0,
	}, *stats)

	stats, err = svc.ProjectStatistics(ctx, "acme", f.launch.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTasks)

	_, err = svc.CreateProject(ctx, CreateProjectInput{OrganizationSlug: "acme", Name: "Empty"})
	require.NoError(t, err)
	stats, err = svc.ProjectStatistics(ctx, "acme", "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProjects)
	assert.Equal(t, 50.0, stats.CompletionRate)

	stats, err = svc.ProjectStatistics(ctx, "acme", "no-such-project")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatistics{}, *stats)

	stats, err = svc.ProjectStatistics(ctx, "ghost", "")
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestLoaders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	f := seedAcme(t, svc)

	projects, err := svc.ProjectsByID(ctx, "acme", []string{f.launch.ID, f.launch.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 4, projects[f.launch.ID].TaskCount)

	byProject, err := svc.TasksByProject(ctx, "acme", []string{f.launch.ID})
	require.NoError(t, err)
	assert.Len(t, byProject[f.launch.ID], 4)

	byID, err := svc.TasksByID(ctx, "globex", []string{f.tasks[0].ID})
	require.NoError(t, err)
	assert.Empty(t, byID)

	_, err = svc.CreateTaskComment(ctx, CreateCommentInput{TaskID: f.tasks[1].ID, OrganizationSlug: "acme", Content: "c", AuthorEmail: "a@acme.test"})
	require.NoError(t, err)
	comments, err := svc.CommentsByTask(ctx, []string{f.tasks[0].ID, f.tasks[1].ID})
	require.NoError(t, err)
	assert.Empty(t, comments[f.tasks[0].ID])
	assert.Len(t, comments[f.tasks[1].ID], 1)
}
