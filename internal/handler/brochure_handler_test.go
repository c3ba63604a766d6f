package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

func TestBrochureHandlerUploadRequiresFile(t *testing.T) {
	svc := &brochureStub{}
	handler := NewBrochureHandler(svc, &reportStub{})
	body, contentType := multipartBody(t, map[string][]string{"title": {"Fee Structure"}}, "", "", nil)
	c, w := newContext(http.MethodPost, "/api/brochures/upload", body, departmentPrincipal)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Upload(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "VALIDATION_FAILED", env.ErrorCode)
	assert.Equal(t, "is required", env.Errors["file"])
	assert.Nil(t, svc.uploaded)
}

func TestBrochureHandlerUploadBindsTargets(t *testing.T) {
	svc := &brochureStub{}
	handler := NewBrochureHandler(svc, &reportStub{})
	body, contentType := multipartBody(t, map[string][]string{
		"title":               {"Fee Structure 2024"},
		"isPublic":            {"true"},
		"targetDepartmentIds": {"dep-2", "dep-3"},
	}, "file", "fees.pdf", []byte("%PDF-1.4"))
	c, w := newContext(http.MethodPost, "/api/brochures/upload", body, departmentPrincipal)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Upload(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.uploaded)
	assert.Equal(t, []string{"dep-2", "dep-3"}, svc.uploaded.TargetDepartmentIDs)
	assert.True(t, svc.uploaded.IsPublic)
	assert.Equal(t, "fees.pdf", svc.fileName)
	assert.Equal(t, []byte("%PDF-1.4"), svc.content)
	env := decodeEnvelope(t, w)
	assert.Equal(t, "brochure sent to 2 departments", env.Message)
}

func TestBrochureHandlerUploadAbortsOnUnknownTarget(t *testing.T) {
	handler := NewBrochureHandler(&brochureStub{err: appErrors.Clone(appErrors.ErrNotFound, "department ghost not found")}, &reportStub{})
	body, contentType := multipartBody(t, map[string][]string{
		"title":               {"Fee Structure"},
		"targetDepartmentIds": {"ghost"},
	}, "file", "fees.pdf", []byte("%PDF-1.4"))
	c, w := newContext(http.MethodPost, "/api/brochures/upload", body, departmentPrincipal)
	c.Request.Header.Set("Content-Type", contentType)

	handler.Upload(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBrochureHandlerGetAllowsAnonymous(t *testing.T) {
	svc := &brochureStub{}
	handler := NewBrochureHandler(svc, &reportStub{})
	c, w := newContext(http.MethodGet, "/api/brochures/b1", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.getCalled)
	assert.Nil(t, svc.getCaller)
}

func TestBrochureHandlerReportHeaders(t *testing.T) {
	reports := &reportStub{}
	handler := NewBrochureHandler(&brochureStub{}, reports)
	c, w := newContext(http.MethodGet, "/api/brochures/b1/report?format=csv", nil, departmentPrincipal)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Report(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", reports.format)
	assert.Equal(t, `attachment; filename="delivery_b1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "department,status\n", w.Body.String())
}

func TestBrochureHandlerDelete(t *testing.T) {
	svc := &brochureStub{}
	handler := NewBrochureHandler(svc, &reportStub{})
	c, _ := newContext(http.MethodDelete, "/api/brochures/b1", nil, departmentPrincipal)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "b1", svc.deleted)
}
