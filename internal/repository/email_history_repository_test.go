package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailHistoryTransitionsAreGuarded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmailHistoryRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'DELIVERED', delivered_at = $2 WHERE id = $1 AND status = 'SENT'")).
		WithArgs("h1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'READ', read_at = $2 WHERE id = $1 AND status = 'DELIVERED'")).
		WithArgs("h1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'FAILED', error_message = $2 WHERE id = $1 AND status IN ('PENDING', 'SENT')")).
		WithArgs("h2", "mailbox full").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkDelivered(context.Background(), "h1", now))
	assert.ErrorIs(t, repo.MarkRead(context.Background(), "h1", now), ErrStatusMismatch)
	require.NoError(t, repo.MarkFailed(context.Background(), "h2", "mailbox full"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailHistoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmailHistoryRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE h.department_id = $1 ORDER BY h.sent_at DESC NULLS LAST LIMIT 5")).
		WithArgs("d2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "brochure_id", "brochure_title", "department_id", "department_name",
			"receiver_email", "subject", "status", "sent_at", "delivered_at", "read_at", "error_message"}).
			AddRow("h1", "b1", "Open Day", "d2", "EE", "ee@acme.edu", "New Brochure: Open Day", "SENT", now, nil, nil, nil))

	rows, err := repo.ListByDepartment(context.Background(), "d2", 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ee@acme.edu", rows[0].ReceiverEmail)
	require.NotNil(t, rows[0].BrochureID)
	assert.Equal(t, "b1", *rows[0].BrochureID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
