package models

import (
	"time"

	"gorm.io/datatypes"
)

// Feedback is a teacher's response to submitted work. Deadline is set only
// when the feedback demands resubmission by a given date.
type Feedback struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;index" json:"assignment_id"`
	SubmitByID   uint           `gorm:"not null" json:"submit_by_id"`
	Comment      string         `gorm:"type:text" json:"comment"`
	Files        datatypes.JSON `json:"files"`
	Deadline     *time.Time     `json:"deadline"`
	Seen         bool           `gorm:"not null;default:false" json:"seen"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	SubmitBy User `gorm:"foreignKey:SubmitByID" json:"submit_by"`
}

// RequiresResubmission reports whether this feedback demanded another submission.
func (f Feedback) RequiresResubmission() bool {
	return f.Deadline != nil
}

// FinalFeedback is the rubric-based learning-outcome assessment. It is stored
// as a JSON column on Assignment and replaced wholesale on edit.
type FinalFeedback struct {
	Outcomes  []LearningOutcome `json:"outcomes"`
	SubmitBy  uint              `json:"submit_by"`
	CreatedAt time.Time         `json:"created_at"`
}

// LearningOutcome groups the assessment criteria for one outcome of the unit.
type LearningOutcome struct {
	Title    string                `json:"title"`
	Criteria []AssessmentCriterion `json:"criteria"`
}

// AssessmentCriterion is a single rubric line. Fulfilled is tri-state:
// nil means not yet assessed.
type AssessmentCriterion struct {
	Description string `json:"description"`
	Fulfilled   *bool  `json:"fulfilled"`
	Comment     string `json:"comment"`
}

// ObservationFeedback is a narrative, non-rubric assessment. Recording one
// moves the assignment to feedback_given rather than completed.
type ObservationFeedback struct {
	Comment   string    `json:"comment"`
	Files     []string  `json:"files"`
	SubmitBy  uint      `json:"submit_by"`
	CreatedAt time.Time `json:"created_at"`
}
