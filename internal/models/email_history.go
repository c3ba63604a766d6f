package models

import "time"

// EmailStatus tracks a single notification's delivery.
type EmailStatus string

const (
	EmailStatusPending   EmailStatus = "PENDING"
	EmailStatusSent      EmailStatus = "SENT"
	EmailStatusDelivered EmailStatus = "DELIVERED"
	EmailStatusFailed    EmailStatus = "FAILED"
	EmailStatusRead      EmailStatus = "READ"
)

// EmailHistory records one notification sent to one department. Rows are
// removed together with their brochure; BrochureTitle is a denormalized copy.
type EmailHistory struct {
	ID             string      `db:"id" json:"id"`
	BrochureID     *string     `db:"brochure_id" json:"brochureId,omitempty"`
	BrochureTitle  string      `db:"brochure_title" json:"brochureTitle"`
	DepartmentID   string      `db:"department_id" json:"departmentId"`
	DepartmentName string      `db:"department_name" json:"departmentName,omitempty"`
	ReceiverEmail  string      `db:"receiver_email" json:"receiverEmail"`
	Subject        string      `db:"subject" json:"subject"`
	Status         EmailStatus `db:"status" json:"status"`
	SentAt         *time.Time  `db:"sent_at" json:"sentDate,omitempty"`
	DeliveredAt    *time.Time  `db:"delivered_at" json:"deliveredDate,omitempty"`
	ReadAt         *time.Time  `db:"read_at" json:"readDate,omitempty"`
	ErrorMessage   *string     `db:"error_message" json:"errorMessage,omitempty"`
}
