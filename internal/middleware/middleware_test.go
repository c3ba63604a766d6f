package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/service"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type tokenTable map[string]*models.Principal

func (t tokenTable) Validate(ctx context.Context, token string) (*models.Principal, error) {
	if p, ok := t[token]; ok {
		return p, nil
	}
	return nil, appErrors.ErrInvalidToken
}

var (
	adminPrincipal      = &models.Principal{Role: models.RoleAdmin, ID: "a1", Email: "root@symbohub.test"}
	collegePrincipal    = &models.Principal{Role: models.RoleCollege, ID: "c1", CollegeID: "c1", Email: "acme@u.edu"}
	departmentPrincipal = &models.Principal{Role: models.RoleDepartment, ID: "d1", CollegeID: "c1", DepartmentID: "d1", Email: "phy@u.edu"}
)

func testPolicy() *Policy {
	return NewPolicy(
		Permit(http.MethodGet, "/api/auth/me"),
		Public("", "/api/auth/**"),
		Public(http.MethodGet, "/api/colleges/approved"),
		Permit("", "/api/admin/**", models.RoleAdmin),
		Permit(http.MethodPost, "/api/brochures/upload", models.RoleDepartment, models.RoleCollege, models.RoleAdmin),
		Permit(http.MethodGet, "/api/files/*/staff-ids/*", models.RoleAdmin),
		Public(http.MethodGet, "/api/files/**"),
	)
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := tokenTable{"admin": adminPrincipal, "college": collegePrincipal, "dept": departmentPrincipal}
	r := gin.New()
	r.Use(Authenticate(tokens), Authorize(testPolicy()))
	ok := func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, string(p.Role))
	}
	for _, path := range []string{"/api/auth/me", "/api/auth/college/login", "/api/colleges/approved", "/api/admin/dashboard", "/api/departments/:id", "/api/files/view/:type/:name"} {
		r.GET(path, ok)
		r.POST(path, ok)
	}
	r.POST("/api/brochures/upload", ok)
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPolicyDecisions(t *testing.T) {
	r := newRouter()
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		body   string
	}{
		{"public login anonymous", http.MethodPost, "/api/auth/college/login", "", http.StatusOK, "anonymous"},
		{"me requires auth", http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized, ""},
		{"me with token", http.MethodGet, "/api/auth/me", "college", http.StatusOK, "COLLEGE"},
		{"approved list public", http.MethodGet, "/api/colleges/approved", "", http.StatusOK, "anonymous"},
		{"admin area anonymous", http.MethodGet, "/api/admin/dashboard", "", http.StatusUnauthorized, ""},
		{"admin area wrong role", http.MethodGet, "/api/admin/dashboard", "college", http.StatusForbidden, ""},
		{"admin area admin", http.MethodGet, "/api/admin/dashboard", "admin", http.StatusOK, "ADMIN"},
		{"default requires auth", http.MethodGet, "/api/departments/d1", "", http.StatusUnauthorized, ""},
		{"default any role", http.MethodGet, "/api/departments/d1", "dept", http.StatusOK, "DEPARTMENT"},
		{"upload department", http.MethodPost, "/api/brochures/upload", "dept", http.StatusOK, "DEPARTMENT"},
		{"brochure file public", http.MethodGet, "/api/files/view/brochures/x.pdf", "", http.StatusOK, "anonymous"},
		{"staff id file anonymous", http.MethodGet, "/api/files/view/staff-ids/x.pdf", "", http.StatusUnauthorized, ""},
		{"staff id file college", http.MethodGet, "/api/files/view/staff-ids/x.pdf", "college", http.StatusForbidden, ""},
		{"invalid token on public route", http.MethodGet, "/api/colleges/approved", "bogus", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, tc.method, tc.path, tc.token)
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/colleges/approved", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "UNAUTHORIZED"))
}

func TestGlobMatch(t *testing.T) {
	assert.True(t, globMatch(split("/a/*/c"), split("/a/b/c")))
	assert.False(t, globMatch(split("/a/*/c"), split("/a/b/c/d")))
	assert.True(t, globMatch(split("/a/**"), split("/a")))
	assert.True(t, globMatch(split("/a/**"), split("/a/b/c")))
	assert.False(t, globMatch(split("/a/*"), split("/a")))
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/api/colleges/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/api/colleges/c1", "")
	do(r, http.MethodGet, "/api/colleges/c2", "")
	do(r, http.MethodGet, "/nowhere", "")

	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
