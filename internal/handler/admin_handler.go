package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

type approvalService interface {
	Approve(ctx context.Context, adminID, id string) (*models.College, error)
	Reject(ctx context.Context, adminID, id string, req dto.RejectCollegeRequest) (*models.College, error)
	Suspend(ctx context.Context, adminID, id string) (*models.College, error)
	ListPending(ctx context.Context) ([]models.College, error)
	ListApproved(ctx context.Context) ([]models.College, error)
	Deactivate(ctx context.Context, principal *models.Principal, id string) error
}

type departmentDeactivator interface {
	Deactivate(ctx context.Context, principal *models.Principal, id string) error
}

type adminDashboardService interface {
	Admin(ctx context.Context) (*dto.AdminDashboardResponse, error)
}

// AdminHandler serves the platform administration endpoints. Every route is
// restricted to admins by the access policy.
type AdminHandler struct {
	colleges    approvalService
	departments departmentDeactivator
	dashboard   adminDashboardService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(colleges approvalService, departments departmentDeactivator, dashboard adminDashboardService) *AdminHandler {
	return &AdminHandler{colleges: colleges, departments: departments, dashboard: dashboard}
}

// Dashboard godoc
// @Summary Platform dashboard
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	summary, err := h.dashboard.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", summary)
}

// Pending godoc
// @Summary Registrations awaiting review
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/colleges/pending [get]
func (h *AdminHandler) Pending(c *gin.Context) {
	colleges, err := h.colleges.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", colleges)
}

// Approved godoc
// @Summary Approved colleges
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/colleges/approved [get]
func (h *AdminHandler) Approved(c *gin.Context) {
	colleges, err := h.colleges.ListApproved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", colleges)
}

// Approve godoc
// @Summary Approve a pending college
// @Tags Admin
// @Produce json
// @Param id path string true "College ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/colleges/{id}/approve [put]
func (h *AdminHandler) Approve(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	college, err := h.colleges.Approve(c.Request.Context(), principal.ID, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "college approved", college)
}

// Reject godoc
// @Summary Reject a pending college
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "College ID"
// @Param payload body dto.RejectCollegeRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/colleges/{id}/reject [put]
func (h *AdminHandler) Reject(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req dto.RejectCollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid rejection payload"))
		return
	}
	college, err := h.colleges.Reject(c.Request.Context(), principal.ID, param(c, "id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "college rejected", college)
}

// Suspend godoc
// @Summary Suspend an approved college
// @Tags Admin
// @Produce json
// @Param id path string true "College ID"
// @Success 200 {object} response.Envelope
// @Router /admin/colleges/{id}/suspend [put]
func (h *AdminHandler) Suspend(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	college, err := h.colleges.Suspend(c.Request.Context(), principal.ID, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "college suspended", college)
}

// DeleteCollege godoc
// @Summary Deactivate a college and its departments
// @Tags Admin
// @Param id path string true "College ID"
// @Success 204
// @Router /admin/colleges/{id} [delete]
func (h *AdminHandler) DeleteCollege(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	if err := h.colleges.Deactivate(c.Request.Context(), principal, param(c, "id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteDepartment godoc
// @Summary Deactivate a department
// @Tags Admin
// @Param id path string true "Department ID"
// @Success 204
// @Router /admin/departments/{id} [delete]
func (h *AdminHandler) DeleteDepartment(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	if err := h.departments.Deactivate(c.Request.Context(), principal, param(c, "id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
