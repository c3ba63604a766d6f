package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/symbohub-api/internal/models"
)

var departmentRowColumns = []string{"id", "college_id", "college_name", "college_status", "name", "email", "password_hash", "active", "created_at", "updated_at"}

func TestDepartmentFindByEmailJoinsCollegeStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("JOIN colleges c ON c.id = d.college_id WHERE d.email = $1")).
		WithArgs("cs@acme.edu").
		WillReturnRows(sqlmock.NewRows(departmentRowColumns).
			AddRow("d1", "c1", "Acme", "SUSPENDED", "CS", "cs@acme.edu", "hash", true, now, now))

	dept, err := repo.FindByEmail(context.Background(), "cs@acme.edu")
	require.NoError(t, err)
	assert.Equal(t, "Acme", dept.CollegeName)
	assert.False(t, dept.CanLogin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec("INSERT INTO departments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "departments_email_key"})

	err := repo.Create(context.Background(), &models.Department{CollegeID: "c1", Name: "CS", Email: "cs@acme.edu"})
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestDepartmentDeactivateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE departments SET active = FALSE, updated_at = $2 WHERE id = $1")).
		WithArgs("d404", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Deactivate(context.Background(), "d404"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentListByCollegeOnlyActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.college_id = $1 AND d.active = TRUE ORDER BY d.created_at DESC")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(departmentRowColumns).
			AddRow("d2", "c1", "Acme", "APPROVED", "EE", "ee@acme.edu", "hash", true, now, now).
			AddRow("d1", "c1", "Acme", "APPROVED", "CS", "cs@acme.edu", "hash", true, now.Add(-time.Hour), now))

	depts, err := repo.ListByCollege(context.Background(), "c1", 0)
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, "d2", depts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
