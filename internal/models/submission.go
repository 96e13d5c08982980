package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses. The first submission is "submitted"; any submission made
// after a teacher requested resubmission is "resubmitted".
const (
	SubmissionStatusSubmitted   = "submitted"
	SubmissionStatusResubmitted = "resubmitted"
)

// Submission is one piece of work handed in by a student. Files are opaque
// URLs owned by the upload collaborator; Deadline records the effective
// deadline that applied at the moment of submission.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;index" json:"assignment_id"`
	SubmitByID   uint           `gorm:"not null" json:"submit_by_id"`
	Files        datatypes.JSON `json:"files"`
	Comment      string         `gorm:"type:text" json:"comment"`
	Status       string         `gorm:"size:32;not null" json:"status"`
	Deadline     *time.Time     `json:"deadline"`
	Seen         bool           `gorm:"not null;default:false" json:"seen"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	SubmitBy User `gorm:"foreignKey:SubmitByID" json:"submit_by"`
}
