package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/middleware"
	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/service"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/response"
)

var (
	adminPrincipal      = &models.Principal{Role: models.RoleAdmin, ID: "admin-1", Email: "admin"}
	collegePrincipal    = &models.Principal{Role: models.RoleCollege, ID: "col-1", CollegeID: "col-1", Email: "acme@example.com"}
	departmentPrincipal = &models.Principal{Role: models.RoleDepartment, ID: "dep-1", CollegeID: "col-1", DepartmentID: "dep-1", Email: "cs@acme.edu"}
)

func newContext(method, target string, body io.Reader, principal *models.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, body)
	c.Request = req
	if principal != nil {
		c.Set(middleware.ContextPrincipalKey, principal)
	}
	return c, w
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type tokenTable map[string]*models.Principal

func (t tokenTable) Validate(ctx context.Context, token string) (*models.Principal, error) {
	if p, ok := t[token]; ok {
		return p, nil
	}
	return nil, appErrors.ErrInvalidToken
}

type authStub struct {
	calls []string
	err   error
}

func (s *authStub) login(kind, email string) (*models.LoginResponse, error) {
	s.calls = append(s.calls, kind)
	if s.err != nil {
		return nil, s.err
	}
	return &models.LoginResponse{Token: "tok", Type: "Bearer", Email: email, Role: models.Role(kind)}, nil
}

func (s *authStub) LoginCollege(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	return s.login(string(models.RoleCollege), req.Email)
}

func (s *authStub) LoginDepartment(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	return s.login(string(models.RoleDepartment), req.Email)
}

func (s *authStub) LoginAdmin(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error) {
	return s.login(string(models.RoleAdmin), req.Username)
}

type collegeStub struct {
	registered  *dto.RegisterCollegeRequest
	upload      *dto.Upload
	uploadBytes []byte
	deactivated string
	err         error
}

func (s *collegeStub) Register(ctx context.Context, req dto.RegisterCollegeRequest, staffID *dto.Upload) (*models.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.registered = &req
	s.upload = staffID
	if staffID != nil {
		s.uploadBytes, _ = io.ReadAll(staffID.Reader)
	}
	return &models.College{ID: "col-new", Name: req.Name, Email: req.Email, Status: models.CollegeStatusPending, Active: true}, nil
}

func (s *collegeStub) Get(ctx context.Context, principal *models.Principal, id string) (*models.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.College{ID: id, Status: models.CollegeStatusApproved, Active: true}, nil
}

func (s *collegeStub) ListApproved(ctx context.Context) ([]models.College, error) {
	return []models.College{{ID: "col-1", Status: models.CollegeStatusApproved, Active: true}}, s.err
}

func (s *collegeStub) ListPending(ctx context.Context) ([]models.College, error) {
	return []models.College{}, s.err
}

func (s *collegeStub) Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateCollegeRequest) (*models.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.College{ID: id}, nil
}

func (s *collegeStub) Deactivate(ctx context.Context, principal *models.Principal, id string) error {
	s.deactivated = id
	return s.err
}

func (s *collegeStub) Approve(ctx context.Context, adminID, id string) (*models.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.College{ID: id, Status: models.CollegeStatusApproved, ApprovedBy: &adminID, Active: true}, nil
}

func (s *collegeStub) Reject(ctx context.Context, adminID, id string, req dto.RejectCollegeRequest) (*models.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.College{ID: id, Status: models.CollegeStatusRejected, RejectionReason: &req.Reason}, nil
}

func (s *collegeStub) Suspend(ctx context.Context, adminID, id string) (*models.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.College{ID: id, Status: models.CollegeStatusSuspended}, nil
}

type departmentStub struct {
	created     *dto.CreateDepartmentRequest
	deactivated string
	err         error
}

func (s *departmentStub) Create(ctx context.Context, principal *models.Principal, req dto.CreateDepartmentRequest) (*models.Department, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &req
	return &models.Department{ID: "dep-new", CollegeID: principal.CollegeID, Name: req.Name, Email: req.Email, Active: true}, nil
}

func (s *departmentStub) Get(ctx context.Context, principal *models.Principal, id string) (*models.Department, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Department{ID: id, Active: true}, nil
}

func (s *departmentStub) ListByCollege(ctx context.Context, principal *models.Principal, collegeID string) ([]models.Department, error) {
	return []models.Department{{ID: "dep-1", CollegeID: collegeID}}, s.err
}

func (s *departmentStub) Update(ctx context.Context, principal *models.Principal, id string, req dto.UpdateDepartmentRequest) (*models.Department, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Department{ID: id}, nil
}

func (s *departmentStub) Deactivate(ctx context.Context, principal *models.Principal, id string) error {
	s.deactivated = id
	return s.err
}

type brochureStub struct {
	uploaded  *dto.UploadBrochureRequest
	fileName  string
	content   []byte
	getCaller *models.Principal
	getCalled bool
	deleted   string
	err       error
}

func (s *brochureStub) Upload(ctx context.Context, principal *models.Principal, req dto.UploadBrochureRequest, file dto.Upload) (*models.BrochureUploadResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.uploaded = &req
	s.fileName = file.FileName
	s.content, _ = io.ReadAll(file.Reader)
	rows := make([]models.EmailHistory, 0, len(req.TargetDepartmentIDs))
	for _, id := range req.TargetDepartmentIDs {
		rows = append(rows, models.EmailHistory{ID: "h-" + id, DepartmentID: id, Status: models.EmailStatusSent})
	}
	return &models.BrochureUploadResult{
		Brochure:        &models.Brochure{ID: "b1", Title: req.Title, FileKey: "brochures/x.pdf"},
		EmailHistory:    rows,
		TotalEmailsSent: len(rows),
	}, nil
}

func (s *brochureStub) Get(ctx context.Context, principal *models.Principal, id string) (*models.Brochure, error) {
	s.getCalled = true
	s.getCaller = principal
	if s.err != nil {
		return nil, s.err
	}
	return &models.Brochure{ID: id, IsPublic: true}, nil
}

func (s *brochureStub) Delete(ctx context.Context, principal *models.Principal, id string) error {
	s.deleted = id
	return s.err
}

func (s *brochureStub) ListByDepartment(ctx context.Context, principal *models.Principal, departmentID string) ([]models.Brochure, error) {
	return []models.Brochure{{ID: "b1", DepartmentID: departmentID}}, s.err
}

func (s *brochureStub) ListPublicByCollege(ctx context.Context, collegeID string) ([]models.Brochure, error) {
	return []models.Brochure{{ID: "b1", CollegeID: collegeID, IsPublic: true}}, s.err
}

func (s *brochureStub) ListPublicByDepartment(ctx context.Context, departmentID string) ([]models.Brochure, error) {
	return []models.Brochure{{ID: "b1", DepartmentID: departmentID, IsPublic: true}}, s.err
}

func (s *brochureStub) History(ctx context.Context, principal *models.Principal, id string) (*models.Brochure, []models.EmailHistory, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return &models.Brochure{ID: id}, []models.EmailHistory{{ID: "h1", Status: models.EmailStatusSent}}, nil
}

type reportStub struct {
	format string
	err    error
}

func (s *reportStub) BrochureDeliveryReport(ctx context.Context, principal *models.Principal, brochureID, rawFormat string) (*service.ExportResult, error) {
	s.format = rawFormat
	if s.err != nil {
		return nil, s.err
	}
	return &service.ExportResult{FileName: "delivery_" + brochureID + ".csv", ContentType: "text/csv", Data: []byte("department,status\n")}, nil
}

type historyStub struct {
	failed *dto.MarkFailedRequest
	reader *models.Principal
	err    error
}

func (s *historyStub) ListByDepartment(ctx context.Context, principal *models.Principal, departmentID string) ([]models.EmailHistory, error) {
	return []models.EmailHistory{{ID: "h1", DepartmentID: departmentID}}, s.err
}

func (s *historyStub) MarkDelivered(ctx context.Context, id string) (*models.EmailHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.EmailHistory{ID: id, Status: models.EmailStatusDelivered}, nil
}

func (s *historyStub) MarkRead(ctx context.Context, principal *models.Principal, id string) (*models.EmailHistory, error) {
	s.reader = principal
	if s.err != nil {
		return nil, s.err
	}
	return &models.EmailHistory{ID: id, Status: models.EmailStatusRead}, nil
}

func (s *historyStub) MarkFailed(ctx context.Context, id string, req dto.MarkFailedRequest) (*models.EmailHistory, error) {
	s.failed = &req
	if s.err != nil {
		return nil, s.err
	}
	return &models.EmailHistory{ID: id, Status: models.EmailStatusFailed, ErrorMessage: &req.ErrorMessage}, nil
}

type dashboardStub struct{}

func (dashboardStub) Admin(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	return &dto.AdminDashboardResponse{}, nil
}

func (dashboardStub) College(ctx context.Context, principal *models.Principal, collegeID string) (*dto.CollegeDashboardResponse, error) {
	return &dto.CollegeDashboardResponse{}, nil
}

func (dashboardStub) Department(ctx context.Context, principal *models.Principal, departmentID string) (*dto.DepartmentDashboardResponse, error) {
	return &dto.DepartmentDashboardResponse{}, nil
}

type fileStub struct {
	files  map[string]string
	caller *models.Principal
}

func (s *fileStub) Open(ctx context.Context, principal *models.Principal, fileType, filename string) (*service.StoredFile, error) {
	s.caller = principal
	body, ok := s.files[fileType+"/"+filename]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	return &service.StoredFile{Body: io.NopCloser(bytes.NewBufferString(body)), ContentType: "application/pdf", Name: filename}, nil
}
