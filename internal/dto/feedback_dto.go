package dto

import "time"

// FeedbackCreateRequest is a teacher's response to submitted work. A deadline
// is mandatory when resubmission is demanded.
type FeedbackCreateRequest struct {
	Comment         string     `json:"comment" validate:"omitempty,max=4000"`
	Files           []string   `json:"files" validate:"omitempty,dive,url"`
	RequireResubmit bool       `json:"require_resubmit"`
	Deadline        *time.Time `json:"deadline" validate:"required_if=RequireResubmit true"`
}

// FeedbackUpdateRequest replaces a feedback wholesale; status is re-derived
// from the edited resubmission demand.
type FeedbackUpdateRequest struct {
	Comment         string     `json:"comment" validate:"omitempty,max=4000"`
	Files           []string   `json:"files" validate:"omitempty,dive,url"`
	RequireResubmit bool       `json:"require_resubmit"`
	Deadline        *time.Time `json:"deadline" validate:"required_if=RequireResubmit true"`
}

// AssessmentCriterionRequest is one rubric line. The comment is mandatory;
// fulfilled may stay nil for criteria not yet assessed.
type AssessmentCriterionRequest struct {
	Description string `json:"description" validate:"required"`
	Fulfilled   *bool  `json:"fulfilled"`
	Comment     string `json:"comment" validate:"required"`
}

// LearningOutcomeRequest groups criteria under one learning outcome.
type LearningOutcomeRequest struct {
	Title    string                       `json:"title" validate:"required"`
	Criteria []AssessmentCriterionRequest `json:"criteria" validate:"required,min=1,dive"`
}

// FinalFeedbackRequest carries the whole rubric; it replaces any previous
// final feedback rather than patching it.
type FinalFeedbackRequest struct {
	Outcomes []LearningOutcomeRequest `json:"outcomes" validate:"required,min=1,dive"`
}

// ObservationFeedbackRequest is the narrative, non-rubric assessment.
type ObservationFeedbackRequest struct {
	Comment string   `json:"comment" validate:"required,min=3,max=8000"`
	Files   []string `json:"files" validate:"omitempty,dive,url"`
}
