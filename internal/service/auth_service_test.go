package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/pkg/config"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

type mockAuthAdminRepo struct {
	admin            *models.Admin
	lastLoginUpdated bool
}

func (m *mockAuthAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if m.admin == nil || m.admin.Username != username {
		return nil, errNoRows()
	}
	return m.admin, nil
}

func (m *mockAuthAdminRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

type memoryAttempts struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memoryAttempts) Failures(ctx context.Context, scope, identifier string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[scope+":"+identifier], nil
}

func (m *memoryAttempts) RecordFailure(ctx context.Context, scope, identifier string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	m.counts[scope+":"+identifier]++
	return m.counts[scope+":"+identifier], nil
}

func (m *memoryAttempts) Reset(ctx context.Context, scope, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, scope+":"+identifier)
	return nil
}

type authFixture struct {
	svc      *AuthService
	colleges *collegeStore
	depts    *departmentStore
	admins   *mockAuthAdminRepo
	attempts *memoryAttempts
}

func newAuthFixture(t *testing.T) authFixture {
	hash := mustHash(t, "password")
	colleges := newCollegeStore(
		&models.College{ID: "c1", Name: "Acme", Email: "admin@acme.edu", PasswordHash: hash, Status: models.CollegeStatusApproved, Active: true},
		&models.College{ID: "c2", Name: "Pending U", Email: "pending@u.edu", PasswordHash: hash, Status: models.CollegeStatusPending, Active: true},
		&models.College{ID: "c3", Name: "Rejected U", Email: "rejected@u.edu", PasswordHash: hash, Status: models.CollegeStatusRejected, Active: false},
	)
	depts := newDepartmentStore(colleges,
		&models.Department{ID: "d1", CollegeID: "c1", Name: "CS", Email: "cs@acme.edu", PasswordHash: hash, Active: true},
	)
	admins := &mockAuthAdminRepo{admin: &models.Admin{ID: "a1", Username: "root", Email: "root@symbohub.test", FullName: "Root", PasswordHash: hash, Active: true}}
	tokens := NewTokenService(adminStub{}, colleges, depts, TokenConfig{Secret: "secret", Expiry: time.Hour})
	attempts := &memoryAttempts{}
	guard := NewLoginGuard(attempts, config.LoginGuardConfig{MaxAttempts: 3, Window: time.Minute}, zap.NewNop())
	svc := NewAuthService(admins, colleges, depts, tokens, guard, nil, validator.New(), zap.NewNop())
	return authFixture{svc: svc, colleges: colleges, depts: depts, admins: admins, attempts: attempts}
}

func TestAuthServiceCollegeLogin(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.LoginCollege(context.Background(), models.LoginRequest{Email: "Admin@Acme.edu ", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.Type)
	assert.Equal(t, models.RoleCollege, res.Role)
	assert.Equal(t, "c1", res.CollegeID)
	assert.NotEmpty(t, res.Token)
	assert.EqualValues(t, 3600, res.ExpiresIn)
}

func TestAuthServiceLoginNormalizesIdentifiers(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.LoginDepartment(ctx, models.LoginRequest{Email: " CS@Acme.edu", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "d1", res.DepartmentID)

	_, err = f.svc.LoginAdmin(ctx, models.AdminLoginRequest{Username: " root ", Password: "password"})
	require.NoError(t, err)

	_, err = f.svc.LoginCollege(ctx, models.LoginRequest{Email: "   ", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceCollegeLoginBlockedUntilApproved(t *testing.T) {
	f := newAuthFixture(t)

	for _, email := range []string{"pending@u.edu", "rejected@u.edu"} {
		_, err := f.svc.LoginCollege(context.Background(), models.LoginRequest{Email: email, Password: "password"})
		assert.ErrorIs(t, err, appErrors.ErrIllegalState, email)
	}

	_, err := f.svc.LoginCollege(context.Background(), models.LoginRequest{Email: "pending@u.edu", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceDepartmentLoginFollowsCollegeStatus(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.LoginDepartment(context.Background(), models.LoginRequest{Email: "cs@acme.edu", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "d1", res.DepartmentID)
	assert.Equal(t, "c1", res.CollegeID)

	require.NoError(t, f.colleges.TransitionStatus(context.Background(), "c1", models.CollegeStatusApproved, models.CollegeStatusSuspended, repositoryChange()))
	_, err = f.svc.LoginDepartment(context.Background(), models.LoginRequest{Email: "cs@acme.edu", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrIllegalState)
}

func TestAuthServiceUnknownAccountLooksLikeBadPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.LoginDepartment(context.Background(), models.LoginRequest{Email: "ghost@acme.edu", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = f.svc.LoginDepartment(context.Background(), models.LoginRequest{Email: "cs@acme.edu", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceAdminLogin(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.LoginAdmin(context.Background(), models.AdminLoginRequest{Username: "root", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.Equal(t, "root@symbohub.test", res.Email)
	assert.True(t, f.admins.lastLoginUpdated)
}

func TestAuthServiceValidationErrors(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.LoginCollege(context.Background(), models.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "password")
}

func TestAuthServiceThrottlesRepeatedFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.LoginCollege(ctx, models.LoginRequest{Email: "admin@acme.edu", Password: "wrong"})
		assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	}
	_, err := f.svc.LoginCollege(ctx, models.LoginRequest{Email: "admin@acme.edu", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrTooManyAttempts)

	// Other scopes are unaffected.
	_, err = f.svc.LoginDepartment(ctx, models.LoginRequest{Email: "cs@acme.edu", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, f.attempts.Reset(ctx, scopeCollege, "admin@acme.edu"))
	_, err = f.svc.LoginCollege(ctx, models.LoginRequest{Email: "admin@acme.edu", Password: "password"})
	require.NoError(t, err)
}

func TestLoginGuardDisabledWithoutStore(t *testing.T) {
	guard := NewLoginGuard(nil, config.LoginGuardConfig{MaxAttempts: 1}, nil)
	guard.Fail(context.Background(), scopeAdmin, "root")
	assert.NoError(t, guard.Check(context.Background(), scopeAdmin, "root"))

	var nilGuard *LoginGuard
	assert.NoError(t, nilGuard.Check(context.Background(), scopeAdmin, "root"))
}
