package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

type departmentService interface {
	Create(ctx context.Context, principal *models.Principal, req dto.CreateDepartmentRequest) (*models.Department, error)
	Get(ctx context.Context, principal *models.Principal, id string) (*models.Department, error)
	ListByCollege(ctx context.Context, principal *models.Principal, collegeID string) ([]models.Department, error)
	Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateDepartmentRequest) (*models.Department, error)
	Deactivate(ctx context.Context, principal *models.Principal, id string) error
}

type departmentDashboardService interface {
	Department(ctx context.Context, principal *models.Principal, departmentID string) (*dto.DepartmentDashboardResponse, error)
}

// DepartmentHandler serves department management endpoints.
type DepartmentHandler struct {
	service   departmentService
	dashboard departmentDashboardService
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(service departmentService, dashboard departmentDashboardService) *DepartmentHandler {
	return &DepartmentHandler{service: service, dashboard: dashboard}
}

// Create godoc
// @Summary Create a department
// @Description Colleges create under themselves; admins must pass collegeId
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body dto.CreateDepartmentRequest true "Department"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid department payload"))
		return
	}
	dept, err := h.service.Create(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "department created", dept)
}

// ListByCollege godoc
// @Summary List active departments of a college
// @Tags Departments
// @Produce json
// @Param collegeId path string true "College ID"
// @Success 200 {object} response.Envelope
// @Router /departments/college/{collegeId} [get]
func (h *DepartmentHandler) ListByCollege(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	depts, err := h.service.ListByCollege(c.Request.Context(), principal, param(c, "collegeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", depts)
}

// Get godoc
// @Summary Get a department
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	dept, err := h.service.Get(c.Request.Context(), principal, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", dept)
}

// Update godoc
// @Summary Update a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body dto.UpdateDepartmentRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid department payload"))
		return
	}
	dept, err := h.service.Update(c.Request.Context(), principal, param(c, "id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "department updated", dept)
}

// Delete godoc
// @Summary Deactivate a department
// @Tags Departments
// @Param id path string true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), principal, param(c, "id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Dashboard godoc
// @Summary Department dashboard
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/dashboard [get]
func (h *DepartmentHandler) Dashboard(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, err := h.dashboard.Department(c.Request.Context(), principal, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", summary)
}
