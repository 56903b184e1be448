// Package api provides the org-scoped REST mirror of the tracker operations.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/joescharf/tracker/internal/logging"
	"github.com/joescharf/tracker/internal/middleware"
	"github.com/joescharf/tracker/internal/models"
	"github.com/joescharf/tracker/internal/tracker"
)

// Server provides the REST API handlers.
type Server struct {
	svc *tracker.Service
}

// NewServer creates a new API server.
func NewServer(svc *tracker.Service) *Server {
	return &Server{svc: svc}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/orgs", s.createOrganization)
	mux.HandleFunc("GET /api/v1/orgs/{slug}", s.getOrganization)

	mux.HandleFunc("GET /api/v1/orgs/{slug}/projects", s.listProjects)
	mux.HandleFunc("POST /api/v1/orgs/{slug}/projects", s.createProject)
	mux.HandleFunc("PATCH /api/v1/orgs/{slug}/projects/{id}", s.updateProject)
	mux.HandleFunc("POST /api/v1/orgs/{slug}/projects/{id}/tasks", s.createTask)

	mux.HandleFunc("GET /api/v1/orgs/{slug}/tasks", s.listTasks)
	mux.HandleFunc("PATCH /api/v1/orgs/{slug}/tasks/{id}", s.updateTask)
	mux.HandleFunc("GET /api/v1/orgs/{slug}/tasks/{id}/comments", s.listComments)
	mux.HandleFunc("POST /api/v1/orgs/{slug}/tasks/{id}/comments", s.createComment)

	mux.HandleFunc("GET /api/v1/orgs/{slug}/statistics", s.statistics)

	return middleware.CORS(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps tracker error kinds onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case tracker.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case tracker.IsInvalid(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.FromContext(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- Organizations ---

type createOrganizationRequest struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ContactEmail string `json:"contactEmail"`
}

func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if !decode(w, r, &req) {
		return
	}
	org, err := s.svc.CreateOrganization(r.Context(), tracker.CreateOrganizationInput{
		Name:         req.Name,
		Slug:         req.Slug,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := s.svc.Organization(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// --- Projects ---

type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.ListProjects(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decode(w, r, &req) {
		return
	}
	due, err := tracker.ParseProjectDueDate(deref(req.DueDate))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := s.svc.CreateProject(r.Context(), tracker.CreateProjectInput{
		OrganizationSlug: r.PathValue("slug"),
		Name:             deref(req.Name),
		Description:      deref(req.Description),
		Status:           models.ProjectStatus(deref(req.Status)),
		DueDate:          due,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decode(w, r, &req) {
		return
	}

	// Absent keys stay nil and leave the field unchanged.
	patch := tracker.ProjectPatch{Name: req.Name, Description: req.Description}
	if req.Status != nil {
		st := models.ProjectStatus(*req.Status)
		patch.Status = &st
	}
	if req.DueDate != nil {
		if err := patch.SetDueDate(*req.DueDate); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	p, err := s.svc.UpdateProject(r.Context(), r.PathValue("id"), r.PathValue("slug"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Tasks ---

type taskRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Status        *string `json:"status"`
	AssigneeEmail *string `json:"assigneeEmail"`
	DueDate       *string `json:"dueDate"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	filter := tracker.TaskFilter{
		ProjectID: r.URL.Query().Get("project_id"),
		Status:    models.TaskStatus(r.URL.Query().Get("status")),
	}
	tasks, err := s.svc.ListTasks(r.Context(), r.PathValue("slug"), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}
	due, err := tracker.ParseTaskDueDate(deref(req.DueDate))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	t, err := s.svc.CreateTask(r.Context(), tracker.CreateTaskInput{
		ProjectID:        r.PathValue("id"),
		OrganizationSlug: r.PathValue("slug"),
		Title:            deref(req.Title),
		Description:      deref(req.Description),
		Status:           models.TaskStatus(deref(req.Status)),
		AssigneeEmail:    deref(req.AssigneeEmail),
		DueDate:          due,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decode(w, r, &req) {
		return
	}

	patch := tracker.TaskPatch{Title: req.Title, Description: req.Description, AssigneeEmail: req.AssigneeEmail}
	if req.Status != nil {
		st := models.TaskStatus(*req.Status)
		patch.Status = &st
	}
	if req.DueDate != nil {
		if err := patch.SetDueDate(*req.DueDate); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	t, err := s.svc.UpdateTask(r.Context(), r.PathValue("id"), r.PathValue("slug"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- Comments ---

type commentRequest struct {
	Content     string `json:"content"`
	AuthorEmail string `json:"authorEmail"`
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.svc.ListTaskComments(r.Context(), r.PathValue("id"), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.svc.CreateTaskComment(r.Context(), tracker.CreateCommentInput{
		TaskID:           r.PathValue("id"),
		OrganizationSlug: r.PathValue("slug"),
		Content:          req.Content,
		AuthorEmail:      req.AuthorEmail,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// --- Statistics ---

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.ProjectStatistics(r.Context(), r.PathValue("slug"), r.URL.Query().Get("project_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// A nil result encodes as null.
	writeJSON(w, http.StatusOK, stats)
}
