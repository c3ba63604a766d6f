package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

type emailHistoryService interface {
	ListByDepartment(ctx context.Context, principal *models.Principal, departmentID string) ([]models.EmailHistory, error)
	MarkDelivered(ctx context.Context, id string) (*models.EmailHistory, error)
	MarkRead(ctx context.Context, principal *models.Principal, id string) (*models.EmailHistory, error)
	MarkFailed(ctx context.Context, id string, req dto.MarkFailedRequest) (*models.EmailHistory, error)
}

// EmailHistoryHandler serves delivery tracking endpoints.
type EmailHistoryHandler struct {
	service emailHistoryService
}

// NewEmailHistoryHandler constructs the handler.
func NewEmailHistoryHandler(service emailHistoryService) *EmailHistoryHandler {
	return &EmailHistoryHandler{service: service}
}

// ListByDepartment godoc
// @Summary Notifications received by a department
// @Tags Email History
// @Produce json
// @Param departmentId path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /email-history/department/{departmentId} [get]
func (h *EmailHistoryHandler) ListByDepartment(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	rows, err := h.service.ListByDepartment(c.Request.Context(), principal, param(c, "departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", rows)
}

// MarkDelivered godoc
// @Summary Record a delivery callback
// @Tags Email History
// @Produce json
// @Param id path string true "Email history ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /email-history/{id}/delivered [put]
func (h *EmailHistoryHandler) MarkDelivered(c *gin.Context) {
	row, err := h.service.MarkDelivered(c.Request.Context(), param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "email marked delivered", row)
}

// MarkRead godoc
// @Summary Acknowledge a received notification
// @Tags Email History
// @Produce json
// @Param id path string true "Email history ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /email-history/{id}/read [put]
func (h *EmailHistoryHandler) MarkRead(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	row, err := h.service.MarkRead(c.Request.Context(), principal, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "email marked read", row)
}

// MarkFailed godoc
// @Summary Record a delivery failure
// @Tags Email History
// @Accept json
// @Produce json
// @Param id path string true "Email history ID"
// @Param payload body dto.MarkFailedRequest true "Failure"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /email-history/{id}/failed [put]
func (h *EmailHistoryHandler) MarkFailed(c *gin.Context) {
	var req dto.MarkFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid failure payload"))
		return
	}
	row, err := h.service.MarkFailed(c.Request.Context(), param(c, "id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "email marked failed", row)
}
