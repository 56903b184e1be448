package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joescharf/tracker/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single pooled connection
	// serializes access and avoids "database is locked" under concurrent requests.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(p), err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// inClause returns "?, ?, ?" for n placeholders and the matching args.
func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "), args
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// --- Organizations ---

func (s *SQLiteStore) CreateOrganization(ctx context.Context, o *models.Organization) error {
	if o.ID == "" {
		o.ID = newULID()
	}
	o.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, slug, contact_email, created_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.Slug, o.ContactEmail, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	o := &models.Organization{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, slug, contact_email, created_at FROM organizations WHERE slug = ?`, slug,
	).Scan(&o.ID, &o.Name, &o.Slug, &o.ContactEmail, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("organization %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return o, nil
}

// --- Projects ---

const projectColumns = `p.id, p.organization_id, p.name, p.description, p.status, p.due_date, p.created_at, p.updated_at`

const projectScope = `FROM projects p JOIN organizations o ON o.id = p.organization_id WHERE o.slug = ?`

func scanProject(sc scanner) (*models.Project, error) {
	p := &models.Project{}
	var status string
	var due sql.NullTime
	if err := sc.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &status, &due, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatus(status)
	p.DueDate = timePtr(due)
	return p, nil
}

func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, organization_id, name, description, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrganizationID, p.Name, p.Description, string(p.Status), nullTime(p.DueDate), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, orgSlug, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` `+projectScope+` AND p.id = ?`, orgSlug, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s in %s: %w", id, orgSlug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, filter ProjectListFilter) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` ` + projectScope
	args := []any{filter.OrganizationSlug}
	if len(filter.IDs) > 0 {
		in, inArgs := inClause(filter.IDs)
		query += ` AND p.id IN (` + in + `)`
		args = append(args, inArgs...)
	}
	query += ` ORDER BY p.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name=?, description=?, status=?, due_date=?, updated_at=? WHERE id=?`,
		p.Name, p.Description, string(p.Status), nullTime(p.DueDate), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) TaskCountsByProject(ctx context.Context, projectIDs []string) (map[string]TaskCounts, error) {
	counts := make(map[string]TaskCounts, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	in, args := inClause(projectIDs)
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id,
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'DONE' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'IN_PROGRESS' THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE project_id IN (`+in+`) GROUP BY project_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		var c TaskCounts
		if err := rows.Scan(&id, &c.Total, &c.Completed, &c.Active); err != nil {
			return nil, fmt.Errorf("scan task counts: %w", err)
		}
		counts[id] = c
	}
	return counts, rows.Err()
}

// --- Tasks ---

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.assignee_email, t.due_date, t.created_at, t.updated_at`

const taskScope = `FROM tasks t
	JOIN projects p ON p.id = t.project_id
	JOIN organizations o ON o.id = p.organization_id
	WHERE o.slug = ?`

func scanTask(sc scanner) (*models.Task, error) {
	t := &models.Task{}
	var status string
	var due sql.NullTime
	if err := sc.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.AssigneeEmail, &due, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	t.DueDate = timePtr(due)
	return t, nil
}

func (s *SQLiteStore) CreateTask(ctx context.Context, t *models.Task) error {
	if t.ID == "" {
		t.ID = newULID()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, title, description, status, assignee_email, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Description, string(t.Status), t.AssigneeEmail, nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, orgSlug, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` `+taskScope+` AND t.id = ?`, orgSlug, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s in %s: %w", id, orgSlug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskListFilter) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` ` + taskScope
	args := []any{filter.OrganizationSlug}

	var conditions []string
	if filter.ProjectID != "" {
		conditions = append(conditions, "t.project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if len(filter.ProjectIDs) > 0 {
		in, inArgs := inClause(filter.ProjectIDs)
		conditions = append(conditions, "t.project_id IN ("+in+")")
		args = append(args, inArgs...)
	}
	if len(filter.IDs) > 0 {
		in, inArgs := inClause(filter.IDs)
		conditions = append(conditions, "t.id IN ("+in+")")
		args = append(args, inArgs...)
	}
	if filter.Status != "" {
		conditions = append(conditions, "t.status = ?")
		args = append(args, string(filter.Status))
	}
	for _, c := range conditions {
		query += " AND " + c
	}
	query += ` ORDER BY t.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title=?, description=?, status=?, assignee_email=?, due_date=?, updated_at=? WHERE id=?`,
		t.Title, t.Description, string(t.Status), t.AssigneeEmail, nullTime(t.DueDate), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// --- Comments ---

func (s *SQLiteStore) CreateTaskComment(ctx context.Context, c *models.TaskComment) error {
	if c.ID == "" {
		c.ID = newULID()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_comments (id, task_id, content, author_email, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.TaskID, c.Content, c.AuthorEmail, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListCommentsForTasks returns the comments of all given tasks, oldest first.
func (s *SQLiteStore) ListCommentsForTasks(ctx context.Context, taskIDs []string) ([]*models.TaskComment, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	in, args := inClause(taskIDs)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, content, author_email, created_at
		FROM task_comments WHERE task_id IN (`+in+`)
		ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []*models.TaskComment
	for rows.Next() {
		c := &models.TaskComment{}
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Content, &c.AuthorEmail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
