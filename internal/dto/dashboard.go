package dto

import "github.com/noah-isme/symbohub-api/internal/models"

// AdminDashboardStats holds platform wide counters.
type AdminDashboardStats struct {
	TotalColleges    int `json:"totalColleges" db:"total_colleges"`
	ApprovedColleges int `json:"approvedColleges" db:"approved_colleges"`
	PendingColleges  int `json:"pendingColleges" db:"pending_colleges"`
	TotalDepartments int `json:"totalDepartments" db:"total_departments"`
	TotalBrochures   int `json:"totalBrochures" db:"total_brochures"`
	TotalEmailsSent  int `json:"totalEmailsSent" db:"total_emails_sent"`
}

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Stats                  AdminDashboardStats `json:"stats"`
	RecentPendingColleges  []models.College    `json:"recentPendingColleges"`
	RecentApprovedColleges []models.College    `json:"recentApprovedColleges"`
	RecentDepartments      []models.Department `json:"recentDepartments"`
}

// TenantStats is shared by the college and department dashboards.
type TenantStats struct {
	TotalDepartments  int `json:"totalDepartments" db:"total_departments"`
	ActiveDepartments int `json:"activeDepartments" db:"active_departments"`
	TotalBrochures    int `json:"totalBrochures" db:"total_brochures"`
	PublicBrochures   int `json:"publicBrochures" db:"public_brochures"`
	TotalEmailsSent   int `json:"totalEmailsSent" db:"total_emails_sent"`
	EmailsReceived    int `json:"emailsReceived" db:"emails_received"`
	DeliveredEmails   int `json:"deliveredEmails" db:"delivered_emails"`
	ReadEmails        int `json:"readEmails" db:"read_emails"`
}

// CollegeDashboardResponse is the college home screen.
type CollegeDashboardResponse struct {
	College           *models.College     `json:"college"`
	Stats             TenantStats         `json:"stats"`
	RecentDepartments []models.Department `json:"recentDepartments"`
	RecentBrochures   []models.Brochure   `json:"recentBrochures"`
}

// DepartmentDashboardResponse is the department home screen.
type DepartmentDashboardResponse struct {
	Department      *models.Department    `json:"department"`
	Stats           TenantStats           `json:"stats"`
	RecentBrochures []models.Brochure     `json:"recentBrochures"`
	RecentEmails    []models.EmailHistory `json:"recentEmails"`
}
