package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

type collegeService interface {
	Register(ctx context.Context, req dto.RegisterCollegeRequest, staffID *dto.Upload) (*models.College, error)
	Get(ctx context.Context, principal *models.Principal, id string) (*models.College, error)
	ListApproved(ctx context.Context) ([]models.College, error)
	ListPending(ctx context.Context) ([]models.College, error)
	Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateCollegeRequest) (*models.College, error)
	Deactivate(ctx context.Context, principal *models.Principal, id string) error
}

type collegeDashboardService interface {
	College(ctx context.Context, principal *models.Principal, collegeID string) (*dto.CollegeDashboardResponse, error)
}

// CollegeHandler serves college registration and profile endpoints.
type CollegeHandler struct {
	service   collegeService
	dashboard collegeDashboardService
}

// NewCollegeHandler constructs the handler.
func NewCollegeHandler(service collegeService, dashboard collegeDashboardService) *CollegeHandler {
	return &CollegeHandler{service: service, dashboard: dashboard}
}

// Register godoc
// @Summary Register a college
// @Description Creates a PENDING registration with an optional staff id card
// @Tags Colleges
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "College name"
// @Param email formData string true "Login email"
// @Param password formData string true "Password"
// @Param address formData string false "Address"
// @Param staffIdCard formData file false "Staff id card"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /colleges/register [post]
func (h *CollegeHandler) Register(c *gin.Context) {
	var req dto.RegisterCollegeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid registration payload"))
		return
	}

	var upload *dto.Upload
	if header, err := c.FormFile("staffIdCard"); err == nil {
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
			return
		}
		defer file.Close()
		upload = &dto.Upload{Reader: file, FileName: header.Filename, Size: header.Size}
	}

	college, err := h.service.Register(c.Request.Context(), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "registration received, awaiting approval", college)
}

// ListApproved godoc
// @Summary List approved colleges
// @Tags Colleges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /colleges/approved [get]
func (h *CollegeHandler) ListApproved(c *gin.Context) {
	colleges, err := h.service.ListApproved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", colleges)
}

// ListPending godoc
// @Summary List pending registrations
// @Tags Colleges
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /colleges/pending [get]
func (h *CollegeHandler) ListPending(c *gin.Context) {
	colleges, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", colleges)
}

// Get godoc
// @Summary Get a college
// @Tags Colleges
// @Produce json
// @Param id path string true "College ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /colleges/{id} [get]
func (h *CollegeHandler) Get(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	college, err := h.service.Get(c.Request.Context(), principal, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", college)
}

// Update godoc
// @Summary Update a college profile
// @Tags Colleges
// @Accept json
// @Produce json
// @Param id path string true "College ID"
// @Param payload body dto.UpdateCollegeRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /colleges/{id} [put]
func (h *CollegeHandler) Update(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req dto.UpdateCollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid college payload"))
		return
	}
	college, err := h.service.Update(c.Request.Context(), principal, param(c, "id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "college updated", college)
}

// Delete godoc
// @Summary Deactivate a college and its departments
// @Tags Colleges
// @Param id path string true "College ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /colleges/{id} [delete]
func (h *CollegeHandler) Delete(c *gin.Context) {
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
// @Summary College dashboard
// @Tags Colleges
// @Produce json
// @Param id path string true "College ID"
// @Success 200 {object} response.Envelope
// @Router /colleges/{id}/dashboard [get]
func (h *CollegeHandler) Dashboard(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, err := h.dashboard.College(c.Request.Context(), principal, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "", summary)
}
