package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/pkg/mailer"
)

type digestCollegeRepository interface {
	ListByStatus(ctx context.Context, status models.CollegeStatus, limit int) ([]models.College, error)
}

type digestAdminRepository interface {
	ListActive(ctx context.Context) ([]models.Admin, error)
}

// DigestService emails active admins a summary of registrations awaiting review.
type DigestService struct {
	colleges digestCollegeRepository
	admins   digestAdminRepository
	notifier emailNotifier
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewDigestService constructs a DigestService.
func NewDigestService(colleges digestCollegeRepository, admins digestAdminRepository, notifier emailNotifier, logger *zap.Logger) *DigestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestService{colleges: colleges, admins: admins, notifier: notifier, logger: logger}
}

// Start schedules the digest using a six-field cron spec (seconds first).
func (s *DigestService) Start(spec string) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.logger.Error("pending digest failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule pending digest: %w", err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("pending digest scheduled", zap.String("schedule", spec))
	return nil
}

// Stop halts the scheduler and waits for a running digest.
func (s *DigestService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Run sends one digest per active admin and returns the number queued. Nothing
// is sent when no college is pending.
func (s *DigestService) Run(ctx context.Context) (int, error) {
	pending, err := s.colleges.ListByStatus(ctx, models.CollegeStatusPending, 0)
	if err != nil {
		return 0, fmt.Errorf("list pending colleges: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	admins, err := s.admins.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list admins: %w", err)
	}

	rows := make([]map[string]string, 0, len(pending))
	for _, college := range pending {
		rows = append(rows, map[string]string{
			"Name":         college.Name,
			"Email":        college.Email,
			"RegisteredAt": college.RegisteredAt.UTC().Format("02 Jan 2006"),
		})
	}

	queued := 0
	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		err := s.notifier.Notify(mailer.Message{
			To:       admin.Email,
			Subject:  fmt.Sprintf("%d college registrations awaiting approval", len(pending)),
			Template: mailer.TemplatePendingDigest,
			Data: map[string]interface{}{
				"AdminName":    admin.FullName,
				"PendingCount": len(pending),
				"Colleges":     rows,
				"ReviewURL":    s.notifier.FrontendURL() + "/admin/colleges/pending",
			},
		})
		if err != nil {
			s.logger.Warn("failed to queue pending digest", zap.String("admin_id", admin.ID), zap.Error(err))
			continue
		}
		queued++
	}
	return queued, nil
}
