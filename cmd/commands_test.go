package cmd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

func TestCommands_EndToEnd(t *testing.T) {
	testEnv(t)
	ctx := context.Background()

	orgName, orgSlug, orgEmail = "Acme", "acme", "ops@acme.test"
	require.NoError(t, orgCreateRun(ctx))
	assert.Contains(t, testOut.String(), "Created organization")

	viper.Set("default_org", "acme")

	projectDesc, projectStatus, projectDue = "Q3 launch", "", "2026-09-30"
	require.NoError(t, projectCreateRun(ctx, "Launch"))

	svc, err := getService()
	require.NoError(t, err)
	projects, err := svc.ListProjects(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, models.ProjectStatusActive, p.Status)
	require.NotNil(t, p.DueDate)

	taskDesc, taskStatus, taskAssignee, taskDue = "", "DONE", "ann@acme.test", ""
	require.NoError(t, taskCreateRun(ctx, p.ID, "Write press release"))
	taskStatus = ""
	require.NoError(t, taskCreateRun(ctx, p.ID, "Book venue"))

	tasks, err := svc.ListTasks(ctx, "acme", tracker.TaskFilter{ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	t.Run("project list shows derived counts", func(t *testing.T) {
		testOut.Reset()
		require.NoError(t, projectListRun(ctx))
		assert.Contains(t, testOut.String(), "Launch")
		assert.Contains(t, testOut.String(), "50.00%")
	})

	t.Run("stats", func(t *testing.T) {
		testOut.Reset()
		ui.JSON = true
		t.Cleanup(func() { ui.JSON = false })
		statsProject = ""
		require.NoError(t, statsRun(ctx))

		var st models.ProjectStatistics
		require.NoError(t, json.Unmarshal(testOut.Bytes(), &st))
		assert.Equal(t, 1, st.TotalProjects)
		assert.Equal(t, 2, st.TotalTasks)
		assert.Equal(t, 1, st.CompletedTasks)
		assert.Equal(t, 50.0, st.CompletionRate)
	})

	t.Run("comments", func(t *testing.T) {
		testOut.Reset()
		commentAuthor = "bob@acme.test"
		require.NoError(t, commentAddRun(ctx, tasks[0].ID, "Draft is ready"))
		require.NoError(t, commentListRun(ctx, tasks[0].ID))
		assert.Contains(t, testOut.String(), "Draft is ready")
		assert.Contains(t, testOut.String(), "bob@acme.test")
	})

	t.Run("task list filters by status", func(t *testing.T) {
		testOut.Reset()
		taskProject, taskStatus = "", "DONE"
		t.Cleanup(func() { taskStatus = "" })
		require.NoError(t, taskListRun(ctx))
		assert.Contains(t, testOut.String(), "Write press release")
		assert.NotContains(t, testOut.String(), "Book venue")
	})

	t.Run("other organization sees nothing", func(t *testing.T) {
		orgName, orgSlug, orgEmail = "Globex", "globex", "ops@globex.test"
		require.NoError(t, orgCreateRun(ctx))

		orgFlag = "globex"
		t.Cleanup(func() { orgFlag = "" })
		testOut.Reset()
		require.NoError(t, projectListRun(ctx))
		assert.Contains(t, testOut.String(), "No projects")

		err := taskUpdateRun(ctx, tasks[0].ID, tracker.TaskPatch{})
		require.Error(t, err)
		assert.True(t, tracker.IsNotFound(err))
	})
}

func TestPatchFromFlags(t *testing.T) {
	testEnv(t)

	t.Run("task patch includes only changed flags", func(t *testing.T) {
		cmd := &cobra.Command{Use: "update"}
		cmd.Flags().StringVar(&taskTitle, "title", "", "")
		cmd.Flags().StringVar(&taskDesc, "desc", "", "")
		cmd.Flags().StringVar(&taskStatus, "status", "", "")
		cmd.Flags().StringVar(&taskAssignee, "assignee", "", "")
		cmd.Flags().StringVar(&taskDue, "due", "", "")
		require.NoError(t, cmd.Flags().Parse([]string{"--status", "BLOCKED", "--due", ""}))

		patch, err := taskPatchFromFlags(cmd)
		require.NoError(t, err)
		require.NotNil(t, patch.Status)
		assert.Equal(t, models.TaskStatusBlocked, *patch.Status)
		assert.Nil(t, patch.Title)
		assert.Nil(t, patch.Description)
		assert.Nil(t, patch.AssigneeEmail)
		assert.True(t, patch.ClearDueDate)
	})

	t.Run("project patch rejects bad due date", func(t *testing.T) {
		cmd := &cobra.Command{Use: "update"}
		cmd.Flags().StringVar(&projectDue, "due", "", "")
		require.NoError(t, cmd.Flags().Parse([]string{"--due", "30/09/2026"}))

		_, err := projectPatchFromFlags(cmd)
		require.Error(t, err)
		assert.True(t, tracker.IsInvalid(err))
	})
}

func TestProjectUpdateRun(t *testing.T) {
	testEnv(t)
	ctx := context.Background()
	viper.Set("default_org", "acme")

	svc, err := getService()
	require.NoError(t, err)
	_, err = svc.CreateOrganization(ctx, tracker.CreateOrganizationInput{Name: "Acme", Slug: "acme", ContactEmail: "ops@acme.test"})
	require.NoError(t, err)
	p, err := svc.CreateProject(ctx, tracker.CreateProjectInput{OrganizationSlug: "acme", Name: "Launch"})
	require.NoError(t, err)

	status := models.ProjectStatusOnHold
	require.NoError(t, projectUpdateRun(ctx, p.ID, tracker.ProjectPatch{Status: &status}))

	got, err := svc.Project(ctx, "acme", p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOnHold, got.Status)
	assert.Equal(t, "Launch", got.Name)
}

func TestOrgShowRun_NotFound(t *testing.T) {
	testEnv(t)

	err := orgShowRun(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, tracker.IsNotFound(err))
}
