package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/internal/models"
	"github.com/noah-isme/symbohub-api/internal/repository"
	"github.com/noah-isme/symbohub-api/pkg/config"
	"github.com/noah-isme/symbohub-api/pkg/jobs"
	"github.com/noah-isme/symbohub-api/pkg/mailer"
)

const jobTypeEmail = "email"

type deliveryFailureRecorder interface {
	MarkFailed(ctx context.Context, id, message string) error
}

// notification is the queued payload. HistoryID is set for brochure
// notifications so a send failure can be recorded on the tracking row.
type notification struct {
	Message   mailer.Message
	HistoryID string
}

// NotificationService sends templated emails on a bounded worker pool. Jobs
// are unordered and never retried.
type NotificationService struct {
	queue       *jobs.Queue
	sender      mailer.Sender
	history     deliveryFailureRecorder
	metrics     *MetricsService
	logger      *zap.Logger
	frontendURL string
}

// NewNotificationService constructs the service and its queue. Call Start
// before enqueueing.
func NewNotificationService(sender mailer.Sender, history deliveryFailureRecorder, cfg config.NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		sender:      sender,
		history:     history,
		metrics:     metrics,
		logger:      logger,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
	}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		JobTimeout: 30 * time.Second,
		OnFailure:  s.onFailure,
		Logger:     logger,
	})
	return s
}

// Start launches the workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains buffered notifications and waits for in-flight sends.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// FrontendURL returns the base URL used for links in emails.
func (s *NotificationService) FrontendURL() string {
	return s.frontendURL
}

// Notify queues a standalone email.
func (s *NotificationService) Notify(msg mailer.Message) error {
	return s.enqueue(notification{Message: msg})
}

// NotifyBrochure queues the notification for one tracking row.
func (s *NotificationService) NotifyBrochure(history models.EmailHistory, brochure *models.Brochure, sender *models.Department) error {
	viewURL := s.frontendURL + "/brochures/" + brochure.ID
	return s.enqueue(notification{
		HistoryID: history.ID,
		Message: mailer.Message{
			To:       history.ReceiverEmail,
			Subject:  history.Subject,
			Template: mailer.TemplateBrochure,
			Data: map[string]interface{}{
				"BrochureTitle":    brochure.Title,
				"SenderDepartment": sender.Name,
				"Description":      brochure.Description,
				"ViewURL":          viewURL,
			},
		},
	})
}

func (s *NotificationService) enqueue(n notification) error {
	err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobTypeEmail, Payload: n})
	if err != nil {
		s.metrics.RecordNotification(n.Message.Template, "dropped")
		return err
	}
	s.metrics.RecordNotification(n.Message.Template, "queued")
	s.metrics.SetQueueDepth(s.queue.Pending())
	return nil
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(notification)
	if !ok {
		return errors.New("unexpected notification payload")
	}
	s.metrics.SetQueueDepth(s.queue.Pending())
	if err := s.sender.Send(ctx, n.Message); err != nil {
		return err
	}
	s.metrics.RecordNotification(n.Message.Template, "sent")
	return nil
}

func (s *NotificationService) onFailure(_ context.Context, job jobs.Job, jobErr error) {
	n, ok := job.Payload.(notification)
	if !ok {
		return
	}
	s.metrics.RecordNotification(n.Message.Template, "failed")
	if n.HistoryID == "" {
		return
	}
	// The job context may already be past its deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.MarkFailed(ctx, n.HistoryID, jobErr.Error()); err != nil && !errors.Is(err, repository.ErrStatusMismatch) {
		s.logger.Error("failed to record notification failure",
			zap.String("email_history_id", n.HistoryID),
			zap.Error(err),
		)
	}
}
