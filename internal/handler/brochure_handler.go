package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/service"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

type brochureService interface {
	Upload(ctx context.Context, principal *models.Principal, req dto.UploadBrochureRequest, file dto.Upload) (*models.BrochureUploadResult, error)
	Get(ctx context.Context, principal *models.Principal, id string) (*models.Brochure, error)
	Delete(ctx context.Context, principal *models.Principal, id string) error
	ListByDepartment(ctx context.Context, principal *models.Principal, departmentID string) ([]models.Brochure, error)
	ListPublicByCollege(ctx context.Context, collegeID string) ([]models.Brochure, error)
	ListPublicByDepartment(ctx context.Context, departmentID string) ([]models.Brochure, error)
	History(ctx context.Context, principal *models.Principal, id string) (*models.Brochure, []models.EmailHistory, error)
}

type reportService interface {
	BrochureDeliveryReport(ctx context.Context, principal *models.Principal, brochureID, rawFormat string) (*service.ExportResult, error)
}

// BrochureHandler serves brochure distribution endpoints.
type BrochureHandler struct {
	service brochureService
	reports reportService
}

// NewBrochureHandler constructs the handler.
func NewBrochureHandler(service brochureService, reports reportService) *BrochureHandler {
	return &BrochureHandler{service: service, reports: reports}
}

// Upload godoc
// @Summary Upload and distribute a brochure
// @Description Stores the file and emails every target department. Unknown or inactive targets abort the upload.
// @Tags Brochures
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Brochure file"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param isPublic formData boolean false "Publicly listed"
// @Param departmentId formData string false "Uploader department (colleges and admins)"
// @Param targetDepartmentIds formData []string false "Target departments" collectionFormat(multi)
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /brochures/upload [post]
func (h *BrochureHandler) Upload(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	var req dto.UploadBrochureRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, bindError(err, "invalid brochure payload"))
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Validation(map[string]string{"file": "is required"}))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), principal, req, dto.Upload{Reader: file, FileName: header.Filename, Size: header.Size})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fmt.Sprintf("brochure sent to %d departments", result.TotalEmailsSent), result)
}

// ListByDepartment godoc
// @Summary List brochures uploaded by a department
// @Tags Brochures
// @Produce json
// @Param departmentId path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /brochures/department/{departmentId} [get]
func (h *BrochureHandler) ListByDepartment(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	brochures, err := h.service.ListByDepartment(c.Request.Context(), principal, param(c, "departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", brochures)
}

// ListPublicByCollege godoc
// @Summary List public brochures of a college
// @Tags Brochures
// @Produce json
// @Param id path string true "College ID"
// @Success 200 {object} response.Envelope
// @Router /brochures/college/{id}/public [get]
func (h *BrochureHandler) ListPublicByCollege(c *gin.Context) {
	brochures, err := h.service.ListPublicByCollege(c.Request.Context(), param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", brochures)
}

// ListPublicByDepartment godoc
// @Summary List public brochures of a department
// @Tags Brochures
// @Produce json
// @Param departmentId path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /brochures/department/{departmentId}/public [get]
func (h *BrochureHandler) ListPublicByDepartment(c *gin.Context) {
	brochures, err := h.service.ListPublicByDepartment(c.Request.Context(), param(c, "departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", brochures)
}

// Get godoc
// @Summary Get a brochure
// @Tags Brochures
// @Produce json
// @Param id path string true "Brochure ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /brochures/{id} [get]
func (h *BrochureHandler) Get(c *gin.Context) {
	brochure, err := h.service.Get(c.Request.Context(), currentPrincipalOrNil(c), param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", brochure)
}

// Delete godoc
// @Summary Delete a brochure and its delivery history
// @Tags Brochures
// @Param id path string true "Brochure ID"
// @Success 204
// @Router /brochures/{id} [delete]
func (h *BrochureHandler) Delete(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), principal, param(c, "id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// History godoc
// @Summary Delivery history of a brochure
// @Tags Brochures
// @Produce json
// @Param id path string true "Brochure ID"
// @Success 200 {object} response.Envelope
// @Router /brochures/{id}/email-history [get]
func (h *BrochureHandler) History(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	_, rows, err := h.service.History(c.Request.Context(), principal, param(c, "id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", rows)
}

// Report godoc
// @Summary Download the delivery report of a brochure
// @Tags Brochures
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Brochure ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /brochures/{id}/report [get]
func (h *BrochureHandler) Report(c *gin.Context) {
	principal := currentPrincipal(c)
	if principal == nil {
		return
	}
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	result, err := h.reports.BrochureDeliveryReport(c.Request.Context(), principal, param(c, "id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.FileName))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
