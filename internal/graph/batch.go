package graph

import (
	"context"
	"sync"

	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

// Sibling objects resolved from one list share a set. The first nested
// field resolved on any sibling loads that field for all of them, so each
// nesting level costs one query regardless of list length.

type lazy[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (l *lazy[T]) get(fn func() (T, error)) (T, error) {
	l.once.Do(func() { l.val, l.err = fn() })
	return l.val, l.err
}

type projectSet struct {
	svc      *tracker.Service
	orgSlug  string
	projects []*models.Project

	org   lazy[*models.Organization]
	tasks lazy[taskGroup]
}

type taskGroup struct {
	byProject map[string][]*models.Task
	set       *taskSet
}

func newProjectSet(svc *tracker.Service, orgSlug string, projects []*models.Project) *projectSet {
	return &projectSet{svc: svc, orgSlug: orgSlug, projects: projects}
}

func (s *projectSet) resolvers() []*projectResolver {
	out := make([]*projectResolver, len(s.projects))
	for i, p := range s.projects {
		out[i] = &projectResolver{p: p, set: s}
	}
	return out
}

func (s *projectSet) organization(ctx context.Context) (*models.Organization, error) {
	return s.org.get(func() (*models.Organization, error) {
		return s.svc.Organization(ctx, s.orgSlug)
	})
}

func (s *projectSet) tasksFor(ctx context.Context, projectID string) ([]*models.Task, *taskSet, error) {
	g, err := s.tasks.get(func() (taskGroup, error) {
		ids := make([]string, len(s.projects))
		for i, p := range s.projects {
			ids[i] = p.ID
		}
		byProject, err := s.svc.TasksByProject(ctx, s.orgSlug, ids)
		if err != nil {
			return taskGroup{}, err
		}
		var all []*models.Task
		for _, id := range ids {
			all = append(all, byProject[id]...)
		}
		return taskGroup{byProject: byProject, set: newTaskSet(s.svc, s.orgSlug, all)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return g.byProject[projectID], g.set, nil
}

type taskSet struct {
	svc     *tracker.Service
	orgSlug string
	tasks   []*models.Task

	comments lazy[commentGroup]
	projects lazy[projectGroup]
}

type commentGroup struct {
	byTask map[string][]*models.TaskComment
	set    *commentSet
}

type projectGroup struct {
	byID map[string]*models.Project
	set  *projectSet
}

func newTaskSet(svc *tracker.Service, orgSlug string, tasks []*models.Task) *taskSet {
	return &taskSet{svc: svc, orgSlug: orgSlug, tasks: tasks}
}

func (s *taskSet) resolvers(tasks []*models.Task) []*taskResolver {
	out := make([]*taskResolver, len(tasks))
	for i, t := range tasks {
		out[i] = &taskResolver{t: t, set: s}
	}
	return out
}

func (s *taskSet) commentsFor(ctx context.Context, taskID string) ([]*models.TaskComment, *commentSet, error) {
	g, err := s.comments.get(func() (commentGroup, error) {
		ids := make([]string, len(s.tasks))
		for i, t := range s.tasks {
			ids[i] = t.ID
		}
		byTask, err := s.svc.CommentsByTask(ctx, ids)
		if err != nil {
			return commentGroup{}, err
		}
		var all []*models.TaskComment
		for _, id := range ids {
			all = append(all, byTask[id]...)
		}
		return commentGroup{byTask: byTask, set: newCommentSet(s.svc, s.orgSlug, all)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return g.byTask[taskID], g.set, nil
}

func (s *taskSet) projectFor(ctx context.Context, projectID string) (*models.Project, *projectSet, error) {
	g, err := s.projects.get(func() (projectGroup, error) {
		ids := make([]string, len(s.tasks))
		for i, t := range s.tasks {
			ids[i] = t.ProjectID
		}
		byID, err := s.svc.ProjectsByID(ctx, s.orgSlug, ids)
		if err != nil {
			return projectGroup{}, err
		}
		projects := make([]*models.Project, 0, len(byID))
		for _, p := range byID {
			projects = append(projects, p)
		}
		return projectGroup{byID: byID, set: newProjectSet(s.svc, s.orgSlug, projects)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return g.byID[projectID], g.set, nil
}

type commentSet struct {
	svc      *tracker.Service
	orgSlug  string
	comments []*models.TaskComment

	tasks lazy[taskLookup]
}

type taskLookup struct {
	byID map[string]*models.Task
	set  *taskSet
}

func newCommentSet(svc *tracker.Service, orgSlug string, comments []*models.TaskComment) *commentSet {
	return &commentSet{svc: svc, orgSlug: orgSlug, comments: comments}
}

func (s *commentSet) resolvers(comments []*models.TaskComment) []*commentResolver {
	out := make([]*commentResolver, len(comments))
	for i, c := range comments {
		out[i] = &commentResolver{c: c, set: s}
	}
	return out
}

func (s *commentSet) taskFor(ctx context.Context, taskID string) (*models.Task, *taskSet, error) {
	l, err := s.tasks.get(func() (taskLookup, error) {
		ids := make([]string, len(s.comments))
		for i, c := range s.comments {
			ids[i] = c.TaskID
		}
		byID, err := s.svc.TasksByID(ctx, s.orgSlug, ids)
		if err != nil {
			return taskLookup{}, err
		}
		tasks := make([]*models.Task, 0, len(byID))
		for _, t := range byID {
			tasks = append(tasks, t)
		}
		return taskLookup{byID: byID, set: newTaskSet(s.svc, s.orgSlug, tasks)}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return l.byID[taskID], l.set, nil
}
