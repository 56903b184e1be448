package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joescharf/tracker/internal/models"
)

// PostgresConfig holds connection settings for the Postgres store.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store on Postgres through gorm.
type PostgresStore struct {
	db *gorm.DB
}

type organizationRow struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Slug         string `gorm:"not null;uniqueIndex"`
	ContactEmail string `gorm:"not null"`
	CreatedAt    time.Time
}

func (organizationRow) TableName() string { return "organizations" }

type projectRow struct {
	ID             string     `gorm:"primaryKey"`
	OrganizationID string     `gorm:"not null;index"`
	Name           string     `gorm:"not null"`
	Description    string     `gorm:"not null;default:''"`
	Status         string     `gorm:"not null;default:'ACTIVE'"`
	DueDate        *time.Time `gorm:"type:date"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (projectRow) TableName() string { return "projects" }

type taskRow struct {
	ID            string `gorm:"primaryKey"`
	ProjectID     string `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Description   string `gorm:"not null;default:''"`
	Status        string `gorm:"not null;default:'TODO'"`
	AssigneeEmail string `gorm:"not null;default:''"`
	DueDate       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (taskRow) TableName() string { return "tasks" }

type commentRow struct {
	ID          string `gorm:"primaryKey"`
	TaskID      string `gorm:"not null;index"`
	Content     string `gorm:"not null"`
	AuthorEmail string `gorm:"not null"`
	CreatedAt   time.Time
}

func (commentRow) TableName() string { return "task_comments" }

// NewPostgresStore connects to Postgres and applies pool settings.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates or updates the four tracker tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&organizationRow{}, &projectRow{}, &taskRow{}, &commentRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- Organizations ---

func (s *PostgresStore) CreateOrganization(ctx context.Context, o *models.Organization) error {
	if o.ID == "" {
		o.ID = newULID()
	}
	row := organizationRow{ID: o.ID, Name: o.Name, Slug: o.Slug, ContactEmail: o.ContactEmail}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	o.CreatedAt = row.CreatedAt
	return nil
}

func (s *PostgresStore) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var row organizationRow
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("organization %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &models.Organization{
		ID:           row.ID,
		Name:         row.Name,
		Slug:         row.Slug,
		ContactEmail: row.ContactEmail,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// --- Projects ---

func (r projectRow) model() *models.Project {
	return &models.Project{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Name:           r.Name,
		Description:    r.Description,
		Status:         models.ProjectStatus(r.Status),
		DueDate:        r.DueDate,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (s *PostgresStore) scopedProjects(ctx context.Context, orgSlug string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&projectRow{}).
		Select("projects.*").
		Joins("JOIN organizations ON organizations.id = projects.organization_id").
		Where("organizations.slug = ?", orgSlug)
}

func (s *PostgresStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	row := projectRow{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Description:    p.Description,
		Status:         string(p.Status),
		DueDate:        p.DueDate,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	p.CreatedAt = row.CreatedAt
	p.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, orgSlug, id string) (*models.Project, error) {
	var row projectRow
	err := s.scopedProjects(ctx, orgSlug).Where("projects.id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s in %s: %w", id, orgSlug, ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return row.model(), nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, filter ProjectListFilter) ([]*models.Project, error) {
	q := s.scopedProjects(ctx, filter.OrganizationSlug)
	if len(filter.IDs) > 0 {
		q = q.Where("projects.id IN ?", filter.IDs)
	}

	var rows []projectRow
	if err := q.Order("projects.id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var projects []*models.Project
	for _, r := range rows {
		projects = append(projects, r.model())
	}
	return projects, nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&projectRow{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"status":      string(p.Status),
		"due_date":    p.DueDate,
		"updated_at":  p.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("update project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) TaskCountsByProject(ctx context.Context, projectIDs []string) (map[string]TaskCounts, error) {
	counts := make(map[string]TaskCounts, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ProjectID string
		Total     int
		Completed int
		Active    int
	}
	err := s.db.WithContext(ctx).Model(&taskRow{}).
		Select(`project_id,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'DONE' THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = 'IN_PROGRESS' THEN 1 ELSE 0 END), 0) AS active`).
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	for _, r := range rows {
		counts[r.ProjectID] = TaskCounts{Total: r.Total, Completed: r.Completed, Active: r.Active}
	}
	return counts, nil
}

// --- Tasks ---

func (r taskRow) model() *models.Task {
	return &models.Task{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		Title:         r.Title,
		Description:   r.Description,
		Status:        models.TaskStatus(r.Status),
		AssigneeEmail: r.AssigneeEmail,
		DueDate:       r.DueDate,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (s *PostgresStore) scopedTasks(ctx context.Context, orgSlug string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&taskRow{}).
		Select("tasks.*").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Joins("JOIN organizations ON organizations.id = projects.organization_id").
		Where("organizations.slug = ?", orgSlug)
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *models.Task) error {
	if t.ID == "" {
		t.ID = newULID()
	}
	row := taskRow{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		AssigneeEmail: t.AssigneeEmail,
		DueDate:       t.DueDate,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	t.CreatedAt = row.CreatedAt
	t.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, orgSlug, id string) (*models.Task, error) {
	var row taskRow
	err := s.scopedTasks(ctx, orgSlug).Where("tasks.id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %s in %s: %w", id, orgSlug, ErrNotFound)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return row.model(), nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskListFilter) ([]*models.Task, error) {
	q := s.scopedTasks(ctx, filter.OrganizationSlug)
	if filter.ProjectID != "" {
		q = q.Where("tasks.project_id = ?", filter.ProjectID)
	}
	if len(filter.ProjectIDs) > 0 {
		q = q.Where("tasks.project_id IN ?", filter.ProjectIDs)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("tasks.id IN ?", filter.IDs)
	}
	if filter.Status != "" {
		q = q.Where("tasks.status = ?", string(filter.Status))
	}

	var rows []taskRow
	if err := q.Order("tasks.id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var tasks []*models.Task
	for _, r := range rows {
		tasks = append(tasks, r.model())
	}
	return tasks, nil
}

func (s *PostgresStore) UpdateTask(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&taskRow{}).Where("id = ?", t.ID).Updates(map[string]any{
		"title":          t.Title,
		"description":    t.Description,
		"status":         string(t.Status),
		"assignee_email": t.AssigneeEmail,
		"due_date":       t.DueDate,
		"updated_at":     t.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// --- Comments ---

func (s *PostgresStore) CreateTaskComment(ctx context.Context, c *models.TaskComment) error {
	if c.ID == "" {
		c.ID = newULID()
	}
	row := commentRow{ID: c.ID, TaskID: c.TaskID, Content: c.Content, AuthorEmail: c.AuthorEmail}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	c.CreatedAt = row.CreatedAt
	return nil
}

func (s *PostgresStore) ListCommentsForTasks(ctx context.Context, taskIDs []string) ([]*models.TaskComment, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	var rows []commentRow
	err := s.db.WithContext(ctx).
		Where("task_id IN ?", taskIDs).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	var comments []*models.TaskComment
	for _, r := range rows {
		comments = append(comments, &models.TaskComment{
			ID:          r.ID,
			TaskID:      r.TaskID,
			Content:     r.Content,
			AuthorEmail: r.AuthorEmail,
			CreatedAt:   r.CreatedAt,
		})
	}
	return comments, nil
}
