package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assignment statuses. The main cycle is
// not_submitted -> submitted <-> resubmission_required -> completed;
// feedback_given is reached only through observation feedback.
const (
	StatusNotSubmitted         = "not_submitted"
	StatusSubmitted            = "submitted"
	StatusResubmissionRequired = "resubmission_required"
	StatusFeedbackGiven        = "feedback_given"
	StatusCompleted            = "completed"
)

// Assignment tracks one student's submission/feedback cycle against a course
// material assignment. One record per (application, unit, student, material).
type Assignment struct {
	ID                         uint   `gorm:"primaryKey" json:"id"`
	ApplicationID              uint   `gorm:"not null;index:idx_assignment_tuple,unique" json:"application_id"`
	UnitID                     uint   `gorm:"not null;index:idx_assignment_tuple,unique" json:"unit_id"`
	StudentID                  uint   `gorm:"not null;index:idx_assignment_tuple,unique" json:"student_id"`
	CourseMaterialAssignmentID uint   `gorm:"not null;index:idx_assignment_tuple,unique" json:"course_material_assignment_id"`
	Status                     string `gorm:"size:32;not null;default:not_submitted" json:"status"`
	RequireResubmit            bool   `gorm:"not null;default:false" json:"require_resubmit"`

	Submissions []Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submissions"`
	Feedbacks   []Feedback   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"feedbacks"`

	FinalFeedback           datatypes.JSON `json:"final_feedback"`
	FinalFeedbackSeen       bool           `gorm:"not null;default:false" json:"final_feedback_seen"`
	ObservationFeedback     datatypes.JSON `json:"observation_feedback"`
	ObservationFeedbackSeen bool           `gorm:"not null;default:false" json:"observation_feedback_seen"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Material CourseMaterialAssignment `gorm:"foreignKey:CourseMaterialAssignmentID" json:"material"`
}

// IsCompleted reports whether the assignment has reached its terminal status
// for the ordinary submit/feedback cycle.
func (a Assignment) IsCompleted() bool {
	return a.Status == StatusCompleted
}

// HasFinalFeedback reports whether a rubric assessment has been recorded.
func (a Assignment) HasFinalFeedback() bool {
	return len(a.FinalFeedback) > 0
}

// HasObservationFeedback reports whether a narrative assessment has been recorded.
func (a Assignment) HasObservationFeedback() bool {
	return len(a.ObservationFeedback) > 0
}
