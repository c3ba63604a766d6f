package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/repository"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/mailer"
	"github.com/noah-isme/symbohub-api/pkg/storage"
)

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// collegeStore is an in-memory college repository.
type collegeStore struct {
	mu          sync.Mutex
	byID        map[string]*models.College
	createErr   error
	deactivated []string
}

func newCollegeStore(colleges ...*models.College) *collegeStore {
	s := &collegeStore{byID: make(map[string]*models.College)}
	for _, c := range colleges {
		s.byID[c.ID] = c
	}
	return s
}

func (s *collegeStore) Create(ctx context.Context, college *models.College) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.byID {
		if existing.Email == college.Email {
			return &repository.DuplicateError{Constraint: "colleges_email_key"}
		}
		if existing.Name == college.Name {
			return &repository.DuplicateError{Constraint: "colleges_name_key"}
		}
	}
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	college.RegisteredAt = time.Now().UTC()
	clone := *college
	s.byID[college.ID] = &clone
	return nil
}

func (s *collegeStore) FindByID(ctx context.Context, id string) (*models.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (s *collegeStore) FindByEmail(ctx context.Context, email string) (*models.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Email == email {
			clone := *c
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *collegeStore) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Email == email && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *collegeStore) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *collegeStore) ListByStatus(ctx context.Context, status models.CollegeStatus, limit int) ([]models.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.College
	for _, c := range s.byID {
		if c.Status == status {
			out = append(out, *c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *collegeStore) TransitionStatus(ctx context.Context, id string, from, to models.CollegeStatus, change repository.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok || c.Status != from {
		return repository.ErrStatusMismatch
	}
	c.Status = to
	if to == models.CollegeStatusApproved {
		at := change.At
		c.ApprovedAt = &at
	}
	if change.AdminID != nil {
		c.ApprovedBy = change.AdminID
	}
	if change.Reason != nil {
		c.RejectionReason = change.Reason
	}
	if change.Deactivate {
		c.Active = false
	}
	return nil
}

func (s *collegeStore) UpdateProfile(ctx context.Context, college *models.College) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[college.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *college
	s.byID[college.ID] = &clone
	return nil
}

func (s *collegeStore) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Active = false
	s.deactivated = append(s.deactivated, id)
	return nil
}

// departmentStore is an in-memory department repository.
type departmentStore struct {
	mu       sync.Mutex
	byID     map[string]*models.Department
	colleges *collegeStore
}

func newDepartmentStore(colleges *collegeStore, depts ...*models.Department) *departmentStore {
	s := &departmentStore{byID: make(map[string]*models.Department), colleges: colleges}
	for _, d := range depts {
		s.byID[d.ID] = d
	}
	return s
}

func (s *departmentStore) withCollege(d models.Department) *models.Department {
	if s.colleges != nil {
		if c, err := s.colleges.FindByID(context.Background(), d.CollegeID); err == nil {
			d.CollegeName = c.Name
			d.CollegeStatus = c.Status
		}
	}
	return &d
}

func (s *departmentStore) Create(ctx context.Context, dept *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == dept.Email {
			return &repository.DuplicateError{Constraint: "departments_email_key"}
		}
	}
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	clone := *dept
	s.byID[dept.ID] = &clone
	return nil
}

func (s *departmentStore) FindByID(ctx context.Context, id string) (*models.Department, error) {
	return s.FindByIDWith(ctx, nil, id)
}

func (s *departmentStore) FindByIDWith(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Department, error) {
	s.mu.Lock()
	d, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s.withCollege(*d), nil
}

func (s *departmentStore) FindByEmail(ctx context.Context, email string) (*models.Department, error) {
	s.mu.Lock()
	var found *models.Department
	for _, d := range s.byID {
		if d.Email == email {
			found = d
		}
	}
	s.mu.Unlock()
	if found == nil {
		return nil, sql.ErrNoRows
	}
	return s.withCollege(*found), nil
}

func (s *departmentStore) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.byID {
		if d.Email == email && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *departmentStore) ListByCollege(ctx context.Context, collegeID string, limit int) ([]models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Department
	for _, d := range s.byID {
		if d.CollegeID == collegeID && d.Active {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *departmentStore) Update(ctx context.Context, dept *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[dept.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *dept
	s.byID[dept.ID] = &clone
	return nil
}

func (s *departmentStore) Deactivate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	d.Active = false
	return nil
}

func (s *departmentStore) DeactivateByCollege(ctx context.Context, exec sqlx.ExtContext, collegeID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, d := range s.byID {
		if d.CollegeID == collegeID && d.Active {
			d.Active = false
			n++
		}
	}
	return n, nil
}

// memoryBlobs records stored and deleted keys.
type memoryBlobs struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	storeErr error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string][]byte)}
}

func (b *memoryBlobs) Store(ctx context.Context, r io.Reader, originalName, subdir string) (*storage.Object, error) {
	if b.storeErr != nil {
		return nil, b.storeErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	key := subdir + "/" + uuid.NewString() + ".pdf"
	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()
	return &storage.Object{Key: key, OriginalName: originalName, Size: int64(len(data)), ContentType: "application/pdf"}, nil
}

func (b *memoryBlobs) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memoryBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *memoryBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// recordingNotifier captures queued emails.
type recordingNotifier struct {
	mu        sync.Mutex
	messages  []mailer.Message
	brochures []models.EmailHistory
	err       error
}

func (n *recordingNotifier) Notify(msg mailer.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) NotifyBrochure(history models.EmailHistory, brochure *models.Brochure, sender *models.Department) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.brochures = append(n.brochures, history)
	return nil
}

func (n *recordingNotifier) FrontendURL() string {
	return "http://frontend.test"
}



// historyStore is an in-memory email history repository enforcing the same
// guarded transitions as the SQL one.
type historyStore struct {
	mu        sync.Mutex
	rows      map[string]*models.EmailHistory
	order     []string
	createErr error
}

func newHistoryStore(rows ...*models.EmailHistory) *historyStore {
	s := &historyStore{rows: make(map[string]*models.EmailHistory)}
	for _, row := range rows {
		s.rows[row.ID] = row
		s.order = append(s.order, row.ID)
	}
	return s
}

func (s *historyStore) Create(ctx context.Context, exec sqlx.ExtContext, history *models.EmailHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	clone := *history
	s.rows[history.ID] = &clone
	s.order = append(s.order, history.ID)
	return nil
}

func (s *historyStore) FindByID(ctx context.Context, id string) (*models.EmailHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *row
	return &clone, nil
}

func (s *historyStore) ListByDepartment(ctx context.Context, departmentID string, limit int) ([]models.EmailHistory, error) {
	return s.filter(func(h *models.EmailHistory) bool { return h.DepartmentID == departmentID }), nil
}

func (s *historyStore) ListByBrochure(ctx context.Context, brochureID string) ([]models.EmailHistory, error) {
	return s.filter(func(h *models.EmailHistory) bool { return h.BrochureID != nil && *h.BrochureID == brochureID }), nil
}

func (s *historyStore) filter(keep func(*models.EmailHistory) bool) []models.EmailHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EmailHistory, 0)
	for _, id := range s.order {
		if row, ok := s.rows[id]; ok && keep(row) {
			out = append(out, *row)
		}
	}
	return out
}

func (s *historyStore) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	return s.move(id, []models.EmailStatus{models.EmailStatusSent}, func(h *models.EmailHistory) {
		h.Status = models.EmailStatusDelivered
		h.DeliveredAt = &at
	})
}

func (s *historyStore) MarkRead(ctx context.Context, id string, at time.Time) error {
	return s.move(id, []models.EmailStatus{models.EmailStatusDelivered}, func(h *models.EmailHistory) {
		h.Status = models.EmailStatusRead
		h.ReadAt = &at
	})
}

func (s *historyStore) MarkFailed(ctx context.Context, id, message string) error {
	return s.move(id, []models.EmailStatus{models.EmailStatusPending, models.EmailStatusSent}, func(h *models.EmailHistory) {
		h.Status = models.EmailStatusFailed
		h.ErrorMessage = &message
	})
}

func (s *historyStore) move(id string, from []models.EmailStatus, apply func(*models.EmailHistory)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return repository.ErrStatusMismatch
	}
	for _, status := range from {
		if row.Status == status {
			apply(row)
			return nil
		}
	}
	return repository.ErrStatusMismatch
}

func (s *historyStore) deleteByBrochure(brochureID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.rows {
		if row.BrochureID != nil && *row.BrochureID == brochureID {
			delete(s.rows, id)
		}
	}
}

func (s *historyStore) status(id string) models.EmailStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		return row.Status
	}
	return ""
}

func errNoRows() error {
	return sql.ErrNoRows
}

func repositoryChange() repository.StatusChange {
	return repository.StatusChange{At: time.Now().UTC()}
}
