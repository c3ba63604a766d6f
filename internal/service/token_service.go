package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type adminLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type collegeLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.College, error)
}

type departmentLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.Department, error)
}

// TokenConfig defines token signing parameters.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// TokenService issues and validates identity tokens. Tokens are stateless;
// Validate re-resolves the subject on every call so deactivation takes effect
// immediately.
type TokenService struct {
	admins      adminLookup
	colleges    collegeLookup
	departments departmentLookup
	config      TokenConfig
	now         func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(admins adminLookup, colleges collegeLookup, departments departmentLookup, config TokenConfig) *TokenService {
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "symbohub-api"
	}
	return &TokenService{admins: admins, colleges: colleges, departments: departments, config: config, now: time.Now}
}

// Expiry returns the configured token lifetime.
func (s *TokenService) Expiry() time.Duration {
	return s.config.Expiry
}

// Issue signs a token for the principal. The subject is the principal's email.
func (s *TokenService) Issue(principal *models.Principal) (string, time.Time, error) {
	if principal == nil || principal.Email == "" || !principal.Role.Valid() {
		return "", time.Time{}, errors.New("token principal requires email and role")
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.JWTClaims{
		Role: principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   principal.Email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse checks signature and expiry and returns the claims.
func (s *TokenService) Parse(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, "invalid or expired token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token claims")
	}
	return claims, nil
}

// ExtractSubject returns the email carried by a valid token.
func (s *TokenService) ExtractSubject(tokenString string) (string, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractRole returns the role carried by a valid token.
func (s *TokenService) ExtractRole(tokenString string) (models.Role, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

// Validate parses the token and resolves it to an active principal.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*models.Principal, error) {
	claims, err := s.Parse(strings.TrimSpace(tokenString))
	if err != nil {
		return nil, err
	}

	switch claims.Role {
	case models.RoleAdmin:
		admin, err := s.admins.FindByEmail(ctx, claims.Subject)
		if err != nil {
			return nil, subjectError(err)
		}
		if !admin.Active {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "account is no longer active")
		}
		return adminPrincipal(admin), nil
	case models.RoleCollege:
		college, err := s.colleges.FindByEmail(ctx, claims.Subject)
		if err != nil {
			return nil, subjectError(err)
		}
		if !college.CanLogin() {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "account is no longer active")
		}
		return collegePrincipal(college), nil
	case models.RoleDepartment:
		dept, err := s.departments.FindByEmail(ctx, claims.Subject)
		if err != nil {
			return nil, subjectError(err)
		}
		if !dept.CanLogin() {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "account is no longer active")
		}
		return departmentPrincipal(dept), nil
	}
	return nil, appErrors.Clone(appErrors.ErrInvalidToken, "unknown role")
}

func subjectError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidToken, "token subject no longer exists")
	}
	return internalError(err, "failed to resolve token subject")
}

func adminPrincipal(a *models.Admin) *models.Principal {
	return &models.Principal{Role: models.RoleAdmin, ID: a.ID, Email: a.Email, Name: a.FullName}
}

func collegePrincipal(c *models.College) *models.Principal {
	return &models.Principal{Role: models.RoleCollege, ID: c.ID, Email: c.Email, Name: c.Name, CollegeID: c.ID}
}

func departmentPrincipal(d *models.Department) *models.Principal {
	return &models.Principal{
		Role:         models.RoleDepartment,
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		CollegeID:    d.CollegeID,
		DepartmentID: d.ID,
	}
}
