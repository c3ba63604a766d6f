package models

import "time"

// Brochure is an uploaded document owned by the uploading department.
type Brochure struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"departmentId"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	FileKey      string    `db:"file_key" json:"fileKey"`
	FileName     string    `db:"file_name" json:"fileName"`
	FileSize     int64     `db:"file_size" json:"fileSize"`
	FileType     string    `db:"file_type" json:"fileType"`
	IsPublic     bool      `db:"is_public" json:"isPublic"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploadDate"`

	DepartmentName string `db:"department_name" json:"departmentName,omitempty"`
	CollegeID      string `db:"college_id" json:"collegeId,omitempty"`
	CollegeName    string `db:"college_name" json:"collegeName,omitempty"`
	EmailSentCount int    `db:"email_sent_count" json:"emailSentCount"`
}

// BrochureUploadResult is returned from a distribution.
type BrochureUploadResult struct {
	Brochure        *Brochure      `json:"brochure"`
	EmailHistory    []EmailHistory `json:"emailHistory"`
	TotalEmailsSent int            `json:"totalEmailsSent"`
}
