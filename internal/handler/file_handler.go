package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/service"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

type fileService interface {
	Open(ctx context.Context, principal *models.Principal, fileType, filename string) (*service.StoredFile, error)
}

// FileHandler streams stored uploads.
type FileHandler struct {
	service fileService
}

// NewFileHandler constructs the handler.
func NewFileHandler(service fileService) *FileHandler {
	return &FileHandler{service: service}
}

// View godoc
// @Summary View a stored file inline
// @Tags Files
// @Param type path string true "brochures or staff-ids"
// @Param filename path string true "Stored file name"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /files/view/{type}/{filename} [get]
func (h *FileHandler) View(c *gin.Context) {
	h.serve(c, "inline")
}

// Download godoc
// @Summary Download a stored file
// @Tags Files
// @Param type path string true "brochures or staff-ids"
// @Param filename path string true "Stored file name"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /files/download/{type}/{filename} [get]
func (h *FileHandler) Download(c *gin.Context) {
	h.serve(c, "attachment")
}

func (h *FileHandler) serve(c *gin.Context, disposition string) {
	file, err := h.service.Open(c.Request.Context(), currentPrincipalOrNil(c), param(c, "type"), param(c, "filename"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Body.Close()

	c.DataFromReader(http.StatusOK, -1, file.ContentType, file.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=\"%s\"", disposition, file.Name),
	})
}
