package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/internal/dto"
	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type dashboardStatsRepository interface {
	AdminStats(ctx context.Context) (*dto.AdminDashboardStats, error)
	CollegeStats(ctx context.Context, collegeID string) (*dto.TenantStats, error)
	DepartmentStats(ctx context.Context, departmentID string) (*dto.TenantStats, error)
}

type dashboardCollegeRepository interface {
	FindByID(ctx context.Context, id string) (*models.College, error)
	ListByStatus(ctx context.Context, status models.CollegeStatus, limit int) ([]models.College, error)
}

type dashboardDepartmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ListByCollege(ctx context.Context, collegeID string, limit int) ([]models.Department, error)
	ListRecent(ctx context.Context, limit int) ([]models.Department, error)
}

type dashboardBrochureRepository interface {
	ListByDepartment(ctx context.Context, departmentID string, limit int) ([]models.Brochure, error)
	ListByCollege(ctx context.Context, collegeID string, limit int) ([]models.Brochure, error)
}

type dashboardHistoryRepository interface {
	ListByDepartment(ctx context.Context, departmentID string, limit int) ([]models.EmailHistory, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	RecentLimit int
}

// DashboardService composes the admin, college and department home screens.
type DashboardService struct {
	stats       dashboardStatsRepository
	colleges    dashboardCollegeRepository
	departments dashboardDepartmentRepository
	brochures   dashboardBrochureRepository
	history     dashboardHistoryRepository
	logger      *zap.Logger
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Stats       dashboardStatsRepository
	Colleges    dashboardCollegeRepository
	Departments dashboardDepartmentRepository
	Brochures   dashboardBrochureRepository
	History     dashboardHistoryRepository
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	return &DashboardService{
		stats:       params.Stats,
		colleges:    params.Colleges,
		departments: params.Departments,
		brochures:   params.Brochures,
		history:     params.History,
		logger:      logger,
		cfg:         cfg,
	}
}

// Admin returns platform totals and the most recent activity.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	stats, err := s.stats.AdminStats(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load dashboard stats")
	}
	pending, err := s.colleges.ListByStatus(ctx, models.CollegeStatusPending, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load pending colleges")
	}
	approved, err := s.colleges.ListByStatus(ctx, models.CollegeStatusApproved, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load approved colleges")
	}
	departments, err := s.departments.ListRecent(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load recent departments")
	}
	return &dto.AdminDashboardResponse{
		Stats:                  *stats,
		RecentPendingColleges:  nonNil(pending),
		RecentApprovedColleges: nonNil(approved),
		RecentDepartments:      nonNil(departments),
	}, nil
}

// College returns the dashboard of one college.
func (s *DashboardService) College(ctx context.Context, principal *models.Principal, collegeID string) (*dto.CollegeDashboardResponse, error) {
	if !principal.CanManageCollege(collegeID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this college")
	}
	college, err := s.colleges.FindByID(ctx, collegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, internalError(err, "failed to load college")
	}
	stats, err := s.stats.CollegeStats(ctx, collegeID)
	if err != nil {
		return nil, internalError(err, "failed to load dashboard stats")
	}
	departments, err := s.departments.ListByCollege(ctx, collegeID, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load departments")
	}
	brochures, err := s.brochures.ListByCollege(ctx, collegeID, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load brochures")
	}
	return &dto.CollegeDashboardResponse{
		College:           college,
		Stats:             *stats,
		RecentDepartments: nonNil(departments),
		RecentBrochures:   nonNil(brochures),
	}, nil
}

// Department returns the dashboard of one department.
func (s *DashboardService) Department(ctx context.Context, principal *models.Principal, departmentID string) (*dto.DepartmentDashboardResponse, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, internalError(err, "failed to load department")
	}
	if !principal.CanManageDepartment(dept) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot access this department")
	}
	stats, err := s.stats.DepartmentStats(ctx, departmentID)
	if err != nil {
		return nil, internalError(err, "failed to load dashboard stats")
	}
	brochures, err := s.brochures.ListByDepartment(ctx, departmentID, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load brochures")
	}
	emails, err := s.history.ListByDepartment(ctx, departmentID, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load received emails")
	}
	return &dto.DepartmentDashboardResponse{
		Department:      dept,
		Stats:           *stats,
		RecentBrochures: nonNil(brochures),
		RecentEmails:    nonNil(emails),
	}, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
