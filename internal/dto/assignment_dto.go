package dto

import (
	"encoding/json"
	"time"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
	"github.com/hridoy-islam/watenycollage-sub000/internal/utils"
	"github.com/hridoy-islam/watenycollage-sub000/internal/workflow"
)

// SubmissionCreateRequest is the payload for handing in work. StudentID is
// accepted only from staff submitting on a student's behalf.
type SubmissionCreateRequest struct {
	ApplicationID              uint     `json:"application_id" validate:"required,gt=0"`
	UnitID                     uint     `json:"unit_id" validate:"required,gt=0"`
	CourseMaterialAssignmentID uint     `json:"course_material_assignment_id" validate:"required,gt=0"`
	StudentID                  *uint    `json:"student_id" validate:"omitempty,gt=0"`
	Files                      []string `json:"files" validate:"required,min=1,dive,url"`
	Comment                    string   `json:"comment" validate:"omitempty,max=4000"`
}

// SubmissionUpdateRequest replaces a submission's files and comment.
type SubmissionUpdateRequest struct {
	Files   []string `json:"files" validate:"required,min=1,dive,url"`
	Comment string   `json:"comment" validate:"omitempty,max=4000"`
}

// AssignmentFilter describes query string filters for listing assignments.
type AssignmentFilter struct {
	ApplicationID *uint   `query:"application_id"`
	UnitID        *uint   `query:"unit_id"`
	StudentID     *uint   `query:"student_id"`
	Status        *string `query:"status" validate:"omitempty,oneof=not_submitted submitted resubmission_required feedback_given completed"`
}

// FileResponse pairs an opaque file URL with its derived display name.
type FileResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// UserLite summarizes the author of a submission or feedback.
type UserLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// SubmissionResponse serializes one submission, including the permission
// flags evaluated for the requesting actor.
type SubmissionResponse struct {
	ID        uint           `json:"id"`
	SubmitBy  UserLite       `json:"submit_by"`
	Files     []FileResponse `json:"files"`
	Comment   string         `json:"comment"`
	Status    string         `json:"status"`
	Deadline  *time.Time     `json:"deadline"`
	Seen      bool           `json:"seen"`
	CanEdit   bool           `json:"can_edit"`
	CanDelete bool           `json:"can_delete"`
	CreatedAt time.Time      `json:"created_at"`
}

// FeedbackResponse serializes one feedback item.
type FeedbackResponse struct {
	ID              uint           `json:"id"`
	SubmitBy        UserLite       `json:"submit_by"`
	Comment         string         `json:"comment"`
	Files           []FileResponse `json:"files"`
	RequireResubmit bool           `json:"require_resubmit"`
	Deadline        *time.Time     `json:"deadline"`
	Seen            bool           `json:"seen"`
	CanEdit         bool           `json:"can_edit"`
	CanDelete       bool           `json:"can_delete"`
	CreatedAt       time.Time      `json:"created_at"`
}

// TimelineEntryResponse is one item of the merged chronological view.
type TimelineEntryResponse struct {
	Type       string              `json:"type"`
	Submission *SubmissionResponse `json:"submission,omitempty"`
	Feedback   *FeedbackResponse   `json:"feedback,omitempty"`
}

// MaterialLite summarizes the course material definition inside an assignment.
type MaterialLite struct {
	ID       uint       `json:"id"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Deadline *time.Time `json:"deadline"`
}

// AssignmentResponse is the full assignment view: workflow state, the merged
// timeline, and the advisory deadline evaluation for the requesting actor.
type AssignmentResponse struct {
	ID                         uint                        `json:"id"`
	ApplicationID              uint                        `json:"application_id"`
	UnitID                     uint                        `json:"unit_id"`
	StudentID                  uint                        `json:"student_id"`
	CourseMaterialAssignmentID uint                        `json:"course_material_assignment_id"`
	Status                     string                      `json:"status"`
	RequireResubmit            bool                        `json:"require_resubmit"`
	Material                   MaterialLite                `json:"material"`
	Submissions                []SubmissionResponse        `json:"submissions"`
	Feedbacks                  []FeedbackResponse          `json:"feedbacks"`
	Timeline                   []TimelineEntryResponse     `json:"timeline"`
	FinalFeedback              *models.FinalFeedback       `json:"final_feedback"`
	FinalFeedbackSeen          bool                        `json:"final_feedback_seen"`
	ObservationFeedback        *models.ObservationFeedback `json:"observation_feedback"`
	ObservationFeedbackSeen    bool                        `json:"observation_feedback_seen"`
	EffectiveDeadline          *time.Time                  `json:"effective_deadline"`
	DeadlinePassed             bool                        `json:"deadline_passed"`
	CanSubmit                  bool                        `json:"can_submit"`
	CreatedAt                  time.Time                   `json:"created_at"`
	UpdatedAt                  time.Time                   `json:"updated_at"`
}

// NewSubmissionResponse converts a submission, evaluating permissions for actor.
func NewSubmissionResponse(a models.Assignment, s models.Submission, actor workflow.Actor) SubmissionResponse {
	return SubmissionResponse{
		ID:        s.ID,
		SubmitBy:  UserLite{ID: s.SubmitBy.ID, Name: s.SubmitBy.Name, Role: s.SubmitBy.Role},
		Files:     fileResponses(s.Files),
		Comment:   s.Comment,
		Status:    s.Status,
		Deadline:  s.Deadline,
		Seen:      s.Seen,
		CanEdit:   workflow.CanEditSubmission(actor, a, s),
		CanDelete: workflow.CanDeleteSubmission(actor, a, s),
		CreatedAt: s.CreatedAt,
	}
}

// NewFeedbackResponse converts a feedback item.
func NewFeedbackResponse(f models.Feedback, actor workflow.Actor) FeedbackResponse {
	return FeedbackResponse{
		ID:              f.ID,
		SubmitBy:        UserLite{ID: f.SubmitBy.ID, Name: f.SubmitBy.Name, Role: f.SubmitBy.Role},
		Comment:         f.Comment,
		Files:           fileResponses(f.Files),
		RequireResubmit: f.RequiresResubmission(),
		Deadline:        f.Deadline,
		Seen:            f.Seen,
		CanEdit:         workflow.CanEditFeedback(actor),
		CanDelete:       workflow.CanDeleteFeedback(actor),
		CreatedAt:       f.CreatedAt,
	}
}

// NewAssignmentResponse builds the full assignment view for one actor at one
// instant. The timeline and permission flags are re-derived on every call.
func NewAssignmentResponse(a models.Assignment, actor workflow.Actor, now time.Time) AssignmentResponse {
	submissions := make([]SubmissionResponse, 0, len(a.Submissions))
	for _, s := range a.Submissions {
		submissions = append(submissions, NewSubmissionResponse(a, s, actor))
	}

	feedbacks := make([]FeedbackResponse, 0, len(a.Feedbacks))
	for _, f := range a.Feedbacks {
		feedbacks = append(feedbacks, NewFeedbackResponse(f, actor))
	}

	timeline := make([]TimelineEntryResponse, 0, len(submissions)+len(feedbacks))
	for _, entry := range workflow.BuildTimeline(a.Submissions, a.Feedbacks) {
		switch entry.Type {
		case workflow.EntrySubmission:
			item := NewSubmissionResponse(a, *entry.Submission, actor)
			timeline = append(timeline, TimelineEntryResponse{Type: string(entry.Type), Submission: &item})
		case workflow.EntryFeedback:
			item := NewFeedbackResponse(*entry.Feedback, actor)
			timeline = append(timeline, TimelineEntryResponse{Type: string(entry.Type), Feedback: &item})
		}
	}

	effective := workflow.EffectiveDeadline(a, a.Material.Deadline)

	response := AssignmentResponse{
		ID:                         a.ID,
		ApplicationID:              a.ApplicationID,
		UnitID:                     a.UnitID,
		StudentID:                  a.StudentID,
		CourseMaterialAssignmentID: a.CourseMaterialAssignmentID,
		Status:                     a.Status,
		RequireResubmit:            a.RequireResubmit,
		Material: MaterialLite{
			ID:       a.Material.ID,
			Title:    a.Material.Title,
			Content:  a.Material.Content,
			Deadline: a.Material.Deadline,
		},
		Submissions:             submissions,
		Feedbacks:               feedbacks,
		Timeline:                timeline,
		FinalFeedbackSeen:       a.FinalFeedbackSeen,
		ObservationFeedbackSeen: a.ObservationFeedbackSeen,
		EffectiveDeadline:       effective,
		DeadlinePassed:          workflow.DeadlinePassed(now, effective),
		CanSubmit:               workflow.CanSubmit(a),
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
	}

	if a.HasFinalFeedback() {
		var final models.FinalFeedback
		if err := json.Unmarshal(a.FinalFeedback, &final); err == nil {
			response.FinalFeedback = &final
		}
	}
	if a.HasObservationFeedback() {
		var obs models.ObservationFeedback
		if err := json.Unmarshal(a.ObservationFeedback, &obs); err == nil {
			response.ObservationFeedback = &obs
		}
	}

	return response
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, actor workflow.Actor, now time.Time) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, actor, now))
	}

	return responses
}

func fileResponses(raw []byte) []FileResponse {
	var urls []string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &urls)
	}

	files := make([]FileResponse, 0, len(urls))
	for _, u := range urls {
		files = append(files, FileResponse{URL: u, Name: utils.FileDisplayName(u)})
	}

	return files
}
