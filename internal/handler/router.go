package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/symbohub-api/internal/middleware"
	"github.com/noah-isme/symbohub-api/internal/models"
)

var (
	anyTenant    = []models.Role{models.RoleDepartment, models.RoleCollege, models.RoleAdmin}
	collegeAdmin = []models.Role{models.RoleCollege, models.RoleAdmin}
)

// AccessPolicy returns the route table enforced by middleware.Authorize.
// Patterns are resolved under prefix; the first matching rule wins.
func AccessPolicy(prefix string) *middleware.Policy {
	p := func(pattern string) string {
		return strings.TrimRight(prefix, "/") + pattern
	}
	return middleware.NewPolicy(
		middleware.Public(http.MethodOptions, "/**"),

		middleware.Permit(http.MethodGet, p("/auth/me")),
		middleware.Public("", p("/auth/**")),
		middleware.Public(http.MethodPost, p("/colleges/register")),
		middleware.Public(http.MethodPost, p("/colleges/login")),
		middleware.Public(http.MethodGet, p("/colleges/approved")),
		middleware.Public(http.MethodPost, p("/departments/login")),
		middleware.Public(http.MethodPost, p("/admin/login")),

		middleware.Permit(http.MethodGet, p("/files/*/staff-ids/*"), models.RoleAdmin),
		middleware.Public(http.MethodGet, p("/files/**")),

		middleware.Public(http.MethodGet, p("/brochures/college/*/public")),
		middleware.Public(http.MethodGet, p("/brochures/department/*/public")),
		middleware.Public(http.MethodGet, p("/brochures/*")),

		middleware.Permit("", p("/admin/**"), models.RoleAdmin),

		middleware.Permit(http.MethodGet, p("/colleges/pending"), models.RoleAdmin),
		middleware.Permit("", p("/colleges/**"), collegeAdmin...),

		middleware.Permit(http.MethodPost, p("/departments"), collegeAdmin...),
		middleware.Permit("", p("/departments/**"), anyTenant...),

		middleware.Permit(http.MethodPut, p("/email-history/*/delivered"), models.RoleAdmin),
		middleware.Permit(http.MethodPut, p("/email-history/*/failed"), models.RoleAdmin),
		middleware.Permit(http.MethodPut, p("/email-history/*/read"), models.RoleDepartment, models.RoleAdmin),
		middleware.Permit("", p("/email-history/**"), anyTenant...),

		middleware.Permit("", p("/brochures/**"), anyTenant...),
	)
}

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Colleges     *CollegeHandler
	Departments  *DepartmentHandler
	Brochures    *BrochureHandler
	EmailHistory *EmailHistoryHandler
	Admin        *AdminHandler
	Files        *FileHandler
}

// RegisterRoutes mounts the API under group. Authentication and the access
// policy are expected to run as engine middleware.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	auth := api.Group("/auth")
	auth.POST("/college/login", h.Auth.LoginCollege)
	auth.POST("/department/login", h.Auth.LoginDepartment)
	auth.POST("/admin/login", h.Auth.LoginAdmin)
	auth.GET("/me", h.Auth.Me)

	colleges := api.Group("/colleges")
	colleges.POST("/register", h.Colleges.Register)
	colleges.POST("/login", h.Auth.LoginCollege)
	colleges.GET("/approved", h.Colleges.ListApproved)
	colleges.GET("/pending", h.Colleges.ListPending)
	colleges.GET("/:id", h.Colleges.Get)
	colleges.PUT("/:id", h.Colleges.Update)
	colleges.DELETE("/:id", h.Colleges.Delete)
	colleges.GET("/:id/dashboard", h.Colleges.Dashboard)

	departments := api.Group("/departments")
	departments.POST("", h.Departments.Create)
	departments.POST("/login", h.Auth.LoginDepartment)
	departments.GET("/college/:collegeId", h.Departments.ListByCollege)
	departments.GET("/:id", h.Departments.Get)
	departments.PUT("/:id", h.Departments.Update)
	departments.DELETE("/:id", h.Departments.Delete)
	departments.GET("/:id/dashboard", h.Departments.Dashboard)

	brochures := api.Group("/brochures")
	brochures.POST("/upload", h.Brochures.Upload)
	brochures.GET("/department/:departmentId", h.Brochures.ListByDepartment)
	brochures.GET("/department/:departmentId/public", h.Brochures.ListPublicByDepartment)
	brochures.GET("/college/:id/public", h.Brochures.ListPublicByCollege)
	brochures.GET("/:id", h.Brochures.Get)
	brochures.DELETE("/:id", h.Brochures.Delete)
	brochures.GET("/:id/email-history", h.Brochures.History)
	brochures.GET("/:id/report", h.Brochures.Report)

	history := api.Group("/email-history")
	history.GET("/department/:departmentId", h.EmailHistory.ListByDepartment)
	history.PUT("/:id/delivered", h.EmailHistory.MarkDelivered)
	history.PUT("/:id/read", h.EmailHistory.MarkRead)
	history.PUT("/:id/failed", h.EmailHistory.MarkFailed)

	admin := api.Group("/admin")
	admin.POST("/login", h.Auth.LoginAdmin)
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/colleges/pending", h.Admin.Pending)
	admin.GET("/colleges/approved", h.Admin.Approved)
	admin.PUT("/colleges/:id/approve", h.Admin.Approve)
	admin.PUT("/colleges/:id/reject", h.Admin.Reject)
	admin.PUT("/colleges/:id/suspend", h.Admin.Suspend)
	admin.DELETE("/colleges/:id", h.Admin.DeleteCollege)
	admin.DELETE("/departments/:id", h.Admin.DeleteDepartment)

	files := api.Group("/files")
	files.GET("/view/:type/:filename", h.Files.View)
	files.GET("/download/:type/:filename", h.Files.Download)
}
