package dto

// UploadBrochureRequest is the distribution form. DepartmentID is only read
// for college and admin callers uploading on behalf of a department.
type UploadBrochureRequest struct {
	DepartmentID        string   `form:"departmentId" json:"departmentId"`
	Title               string   `form:"title" json:"title" validate:"required,max=200"`
	Description         string   `form:"description" json:"description" validate:"max=2000"`
	IsPublic            bool     `form:"isPublic" json:"isPublic"`
	TargetDepartmentIDs []string `form:"targetDepartmentIds" json:"targetDepartmentIds"`
}

// MarkFailedRequest reports a delivery failure.
type MarkFailedRequest struct {
	ErrorMessage string `json:"errorMessage" validate:"required,max=1000"`
}
