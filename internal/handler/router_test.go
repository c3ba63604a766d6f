package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/symbohub-api/internal/middleware"
)

type routerFixture struct {
	engine *gin.Engine
	auth   *authStub
	files  *fileStub
}

func newRouterFixture() *routerFixture {
	gin.SetMode(gin.TestMode)
	auth := &authStub{}
	files := &fileStub{files: map[string]string{"brochures/a.pdf": "pdf", "staff-ids/card.png": "png"}}
	colleges := &collegeStub{}
	departments := &departmentStub{}

	engine := gin.New()
	tokens := tokenTable{"admin": adminPrincipal, "college": collegePrincipal, "dept": departmentPrincipal}
	engine.Use(middleware.Authenticate(tokens), middleware.Authorize(AccessPolicy("/api")))
	RegisterRoutes(engine.Group("/api"), Handlers{
		Auth:         NewAuthHandler(auth),
		Colleges:     NewCollegeHandler(colleges, dashboardStub{}),
		Departments:  NewDepartmentHandler(departments, dashboardStub{}),
		Brochures:    NewBrochureHandler(&brochureStub{}, &reportStub{}),
		EmailHistory: NewEmailHistoryHandler(&historyStub{}),
		Admin:        NewAdminHandler(colleges, departments, dashboardStub{}),
		Files:        NewFileHandler(files),
	})
	return &routerFixture{engine: engine, auth: auth, files: files}
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestAccessPolicyOverRoutes(t *testing.T) {
	f := newRouterFixture()
	login := `{"email":"acme@example.com","password":"secret1"}`

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{"approved colleges are public", http.MethodGet, "/api/colleges/approved", "", "", http.StatusOK},
		{"pending colleges need a principal", http.MethodGet, "/api/colleges/pending", "", "", http.StatusUnauthorized},
		{"pending colleges are admin only", http.MethodGet, "/api/colleges/pending", "college", "", http.StatusForbidden},
		{"admin reads pending colleges", http.MethodGet, "/api/colleges/pending", "admin", "", http.StatusOK},
		{"college profile is not for departments", http.MethodGet, "/api/colleges/col-1", "dept", "", http.StatusForbidden},
		{"admin dashboard for admins", http.MethodGet, "/api/admin/dashboard", "admin", "", http.StatusOK},
		{"admin dashboard denied to colleges", http.MethodGet, "/api/admin/dashboard", "college", "", http.StatusForbidden},
		{"legacy admin login stays public", http.MethodPost, "/api/admin/login", "", `{"username":"admin","password":"x"}`, http.StatusOK},
		{"departments cannot create departments", http.MethodPost, "/api/departments", "dept", `{"name":"CS"}`, http.StatusForbidden},
		{"colleges create departments", http.MethodPost, "/api/departments", "college", `{"name":"CS","email":"cs@acme.edu","password":"secret1"}`, http.StatusCreated},
		{"departments read siblings", http.MethodGet, "/api/departments/college/col-1", "dept", "", http.StatusOK},
		{"delivery callback is admin only", http.MethodPut, "/api/email-history/h1/delivered", "dept", "", http.StatusForbidden},
		{"admin records delivery", http.MethodPut, "/api/email-history/h1/delivered", "admin", "", http.StatusOK},
		{"read receipt for departments", http.MethodPut, "/api/email-history/h1/read", "dept", "", http.StatusOK},
		{"read receipt not for colleges", http.MethodPut, "/api/email-history/h1/read", "college", "", http.StatusForbidden},
		{"public brochure list", http.MethodGet, "/api/brochures/department/dep-1/public", "", "", http.StatusOK},
		{"private brochure list needs a principal", http.MethodGet, "/api/brochures/department/dep-1", "", "", http.StatusUnauthorized},
		{"brochure detail reaches the service", http.MethodGet, "/api/brochures/b1", "", "", http.StatusOK},
		{"upload needs a principal", http.MethodPost, "/api/brochures/upload", "", "", http.StatusUnauthorized},
		{"brochure files are public", http.MethodGet, "/api/files/view/brochures/a.pdf", "", "", http.StatusOK},
		{"staff ids need a principal", http.MethodGet, "/api/files/download/staff-ids/card.png", "", "", http.StatusUnauthorized},
		{"staff ids are admin only", http.MethodGet, "/api/files/view/staff-ids/card.png", "college", "", http.StatusForbidden},
		{"admin views staff ids", http.MethodGet, "/api/files/view/staff-ids/card.png", "admin", "", http.StatusOK},
		{"invalid token on a public route", http.MethodGet, "/api/colleges/approved", "forged", "", http.StatusUnauthorized},
		{"college login", http.MethodPost, "/api/auth/college/login", "", login, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestLegacyLoginRoutes(t *testing.T) {
	f := newRouterFixture()
	login := `{"email":"acme@example.com","password":"secret1"}`

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/colleges/login", "", login).Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/departments/login", "", login).Code)

	assert.Equal(t, []string{"COLLEGE", "DEPARTMENT"}, f.auth.calls)
}

func TestPreflightIsPublic(t *testing.T) {
	f := newRouterFixture()
	w := f.do(http.MethodOptions, "/api/admin/dashboard", "", "")
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
	assert.NotEqual(t, http.StatusForbidden, w.Code)
}
