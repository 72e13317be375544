package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/admin-dashboard/api/internal/model"
	"github.com/admin-dashboard/api/internal/repository"
)

// ProjectHandler serves the project tracking CRUD behind the tables page.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
}

func NewProjectHandler(projects *repository.ProjectRepo) *ProjectHandler {
	return &ProjectHandler{Projects: projects}
}

type projectReq struct {
	Name       *string    `json:"name"`
	Client     *string    `json:"client"`
	Status     *string    `json:"status"`
	Completion *uint8     `json:"completion"`
	DueDate    *time.Time `json:"due_date"`
}

func projectView(p model.Project) echo.Map {
	return echo.Map{
		"id":         p.ID,
		"name":       p.Name,
		"client":     p.Client,
		"status":     p.Status,
		"completion": p.Completion,
		"due_date":   p.DueDate,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
}

// List returns all projects, newest first.
func (h *ProjectHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	projects, err := h.Projects.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]echo.Map, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectView(p))
	}
	return ok(c, echo.Map{"projects": out})
}

// Get returns one project.
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "project not found")
	}
	return ok(c, echo.Map{"project": projectView(p)})
}

// Create adds a project.  Status defaults to Planning, completion to 0.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}
	p := model.Project{
		Name:   strings.TrimSpace(*req.Name),
		Status: model.ProjectStatusPlanning,
	}
	if req.Client != nil {
		p.Client = *req.Client
	}
	if req.Status != nil {
		if !model.ValidProjectStatus(*req.Status) {
			return fail(c, http.StatusBadRequest, "invalid status")
		}
		p.Status = *req.Status
	}
	if req.Completion != nil {
		if *req.Completion > 100 {
			return fail(c, http.StatusBadRequest, "completion must be between 0 and 100")
		}
		p.Completion = *req.Completion
	}
	p.DueDate = req.DueDate

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Projects.Create(ctx, &p); err != nil {
		return fail(c, http.StatusInternalServerError, "create project failed")
	}
	return created(c, "project created successfully", echo.Map{"project": projectView(p)})
}

// Update overwrites the editable fields of a project.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		return repoFail(c, err, "project not found")
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return fail(c, http.StatusBadRequest, "name cannot be empty")
		}
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Client != nil {
		p.Client = *req.Client
	}
	if req.Status != nil {
		if !model.ValidProjectStatus(*req.Status) {
			return fail(c, http.StatusBadRequest, "invalid status")
		}
		p.Status = *req.Status
	}
	if req.Completion != nil {
		if *req.Completion > 100 {
			return fail(c, http.StatusBadRequest, "completion must be between 0 and 100")
		}
		p.Completion = *req.Completion
	}
	if req.DueDate != nil {
		p.DueDate = req.DueDate
	}
	// A project marked Completed reads 100% regardless of the sent value.
	if p.Status == model.ProjectStatusCompleted {
		p.Completion = 100
	}
	if err := h.Projects.Update(ctx, &p); err != nil {
		return repoFail(c, err, "project not found")
	}
	return okMsg(c, "project updated successfully", echo.Map{"project": projectView(p)})
}

// Delete removes a project.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Projects.Delete(ctx, id); err != nil {
		return repoFail(c, err, "project not found")
	}
	return okMsg(c, "project deleted successfully", nil)
}
