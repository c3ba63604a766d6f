package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/export"
)

type deliveryHistorySource interface {
	History(ctx context.Context, principal *models.Principal, id string) (*models.Brochure, []models.EmailHistory, error)
}

// ExportResult is a rendered report ready to be streamed.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders brochure delivery reports.
type ExportService struct {
	history deliveryHistorySource
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(history deliveryHistorySource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{history: history, logger: logger, now: time.Now}
}

var deliveryColumns = []export.Column{
	{Key: "receiver", Label: "Receiver", Width: 3},
	{Key: "department", Label: "Department", Width: 2.5},
	{Key: "status", Label: "Status", Width: 1.2},
	{Key: "sent", Label: "Sent At", Width: 2},
	{Key: "delivered", Label: "Delivered At", Width: 2},
	{Key: "read", Label: "Read At", Width: 2},
	{Key: "error", Label: "Error", Width: 3},
}

// BrochureDeliveryReport renders the tracking rows of a brochure as CSV or PDF.
func (s *ExportService) BrochureDeliveryReport(ctx context.Context, principal *models.Principal, brochureID, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(rawFormat)))
	if err != nil {
		return nil, appErrors.Validation(map[string]string{"format": "must be one of [csv pdf]"})
	}
	brochure, rows, err := s.history.History(ctx, principal, brochureID)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.EmailStatus]int)
	data := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		counts[row.Status]++
		data = append(data, map[string]string{
			"receiver":   row.ReceiverEmail,
			"department": row.DepartmentName,
			"status":     string(row.Status),
			"sent":       formatReportTime(row.SentAt),
			"delivered":  formatReportTime(row.DeliveredAt),
			"read":       formatReportTime(row.ReadAt),
			"error":      deref(row.ErrorMessage),
		})
	}

	report := export.Report{
		Title: fmt.Sprintf("Delivery Report: %s", brochure.Title),
		Summary: []string{
			fmt.Sprintf("Uploaded by %s on %s", brochure.DepartmentName, brochure.UploadedAt.UTC().Format("2006-01-02 15:04")),
			fmt.Sprintf("Recipients: %d", len(rows)),
			fmt.Sprintf("Sent: %d  Delivered: %d  Read: %d  Failed: %d",
				counts[models.EmailStatusSent], counts[models.EmailStatusDelivered], counts[models.EmailStatusRead], counts[models.EmailStatusFailed]),
		},
		Columns: deliveryColumns,
		Rows:    data,
	}

	renderer := export.RendererFor(format)
	payload, err := renderer.Render(report)
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}
	s.logger.Debug("delivery report rendered", zap.String("brochure_id", brochure.ID), zap.String("format", string(format)))
	return &ExportResult{
		FileName:    buildReportFilename(brochure.Title, s.now(), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

func buildReportFilename(title string, at time.Time, ext string) string {
	return fmt.Sprintf("delivery_%s_%s.%s", sanitizeFilename(title), at.UTC().Format("20060102_150405"), ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func formatReportTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
