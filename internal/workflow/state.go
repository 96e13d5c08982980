package workflow

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

// Workflow rule violations. Handlers map these to 403/404/409 responses; the
// service rejects them before any persistence call is issued.
var (
	ErrSubmissionNotAllowed = errors.New("submission is not allowed in the current state")
	ErrFeedbackNotAllowed   = errors.New("feedback is not allowed in the current state")
	ErrPermissionDenied     = errors.New("actor is not permitted to perform this action")
	ErrSubmissionNotFound   = errors.New("submission not found on assignment")
	ErrFeedbackNotFound     = errors.New("feedback not found on assignment")
)

// Action is a workflow mutation intent. The closed set of implementations
// below covers every transition of the submission/feedback lifecycle.
type Action interface {
	// Name identifies the action in events and log lines.
	Name() string
}

// SubmitWork appends a submission. Students pass the canSubmit gate;
// staff may submit on a student's behalf with OnBehalf set.
type SubmitWork struct {
	Actor    Actor
	OnBehalf bool
	Files    []string
	Comment  string
	Deadline *time.Time
}

// GiveFeedback appends teacher feedback, optionally demanding resubmission.
type GiveFeedback struct {
	Actor           Actor
	Comment         string
	Files           []string
	RequireResubmit bool
	Deadline        *time.Time
}

// EditSubmission replaces the files and comment of an existing submission.
type EditSubmission struct {
	Actor        Actor
	SubmissionID uint
	Files        []string
	Comment      string
}

// EditFeedback replaces an existing feedback and re-derives the assignment
// status from the edited resubmission demand.
type EditFeedback struct {
	Actor           Actor
	FeedbackID      uint
	Comment         string
	Files           []string
	RequireResubmit bool
	Deadline        *time.Time
}

// DeleteSubmission removes a submission by id.
type DeleteSubmission struct {
	Actor        Actor
	SubmissionID uint
}

// DeleteFeedback removes a feedback by id. Status is intentionally not
// recomputed afterwards; the preceding transition's result stands.
type DeleteFeedback struct {
	Actor      Actor
	FeedbackID uint
}

// MarkCompleted closes the assignment from any non-completed status.
type MarkCompleted struct {
	Actor Actor
}

// GiveFinalFeedback records the rubric assessment and completes the assignment.
// The rubric replaces any previous one wholesale.
type GiveFinalFeedback struct {
	Actor Actor
	Final models.FinalFeedback
}

// GiveObservationFeedback records a narrative assessment and moves the
// assignment to feedback_given.
type GiveObservationFeedback struct {
	Actor       Actor
	Observation models.ObservationFeedback
}

// Name implements Action.
func (SubmitWork) Name() string { return "submit_work" }

// Name implements Action.
func (GiveFeedback) Name() string { return "give_feedback" }

// Name implements Action.
func (EditSubmission) Name() string { return "edit_submission" }

// Name implements Action.
func (EditFeedback) Name() string { return "edit_feedback" }

// Name implements Action.
func (DeleteSubmission) Name() string { return "delete_submission" }

// Name implements Action.
func (DeleteFeedback) Name() string { return "delete_feedback" }

// Name implements Action.
func (MarkCompleted) Name() string { return "mark_completed" }

// Name implements Action.
func (GiveFinalFeedback) Name() string { return "give_final_feedback" }

// Name implements Action.
func (GiveObservationFeedback) Name() string { return "give_observation_feedback" }

// CanSubmit is the student submission gate. A brand-new assignment always
// accepts a first submission, even past any deadline; after that, submission
// is only open while a teacher has explicitly requested one. Deadlines are
// advisory and never close this gate.
func CanSubmit(a models.Assignment) bool {
	if a.Status == models.StatusCompleted {
		return false
	}
	if len(a.Submissions) == 0 {
		return true
	}

	return a.RequireResubmit
}

// Apply computes the assignment state resulting from one action. It is pure:
// the input assignment is never modified, and the returned copy reflects every
// status/requireResubmit rule of the lifecycle. Callers persist the difference.
func Apply(a models.Assignment, action Action, now time.Time) (models.Assignment, error) {
	next := clone(a)

	switch act := action.(type) {
	case SubmitWork:
		return applySubmit(next, act, now)
	case GiveFeedback:
		return applyGiveFeedback(next, act, now)
	case EditSubmission:
		return applyEditSubmission(next, act)
	case EditFeedback:
		return applyEditFeedback(next, act)
	case DeleteSubmission:
		return applyDeleteSubmission(next, act)
	case DeleteFeedback:
		return applyDeleteFeedback(next, act)
	case MarkCompleted:
		return applyMarkCompleted(next, act)
	case GiveFinalFeedback:
		return applyFinalFeedback(next, act, now)
	case GiveObservationFeedback:
		return applyObservationFeedback(next, act, now)
	default:
		return models.Assignment{}, errors.New("unknown workflow action")
	}
}

func applySubmit(a models.Assignment, act SubmitWork, now time.Time) (models.Assignment, error) {
	if act.OnBehalf {
		if !act.Actor.IsStaff() {
			return models.Assignment{}, ErrPermissionDenied
		}
	} else {
		if !act.Actor.IsStudent() || act.Actor.ID != a.StudentID {
			return models.Assignment{}, ErrPermissionDenied
		}
		if !CanSubmit(a) {
			return models.Assignment{}, ErrSubmissionNotAllowed
		}
	}

	status := models.SubmissionStatusSubmitted
	if len(a.Submissions) > 0 {
		status = models.SubmissionStatusResubmitted
	}

	a.Submissions = append(a.Submissions, models.Submission{
		AssignmentID: a.ID,
		SubmitByID:   act.Actor.ID,
		Files:        filesJSON(act.Files),
		Comment:      act.Comment,
		Status:       status,
		Deadline:     act.Deadline,
		CreatedAt:    now,
	})
	a.Status = models.StatusSubmitted
	a.RequireResubmit = false

	return a, nil
}

func applyGiveFeedback(a models.Assignment, act GiveFeedback, now time.Time) (models.Assignment, error) {
	if !act.Actor.IsStaff() {
		return models.Assignment{}, ErrPermissionDenied
	}
	if a.Status == models.StatusNotSubmitted || a.Status == models.StatusCompleted {
		return models.Assignment{}, ErrFeedbackNotAllowed
	}

	fb := models.Feedback{
		AssignmentID: a.ID,
		SubmitByID:   act.Actor.ID,
		Comment:      act.Comment,
		Files:        filesJSON(act.Files),
		CreatedAt:    now,
	}
	a = deriveFeedbackStatus(a, &fb, act.RequireResubmit, act.Deadline)
	a.Feedbacks = append(a.Feedbacks, fb)

	return a, nil
}

func applyEditSubmission(a models.Assignment, act EditSubmission) (models.Assignment, error) {
	idx := submissionIndex(a, act.SubmissionID)
	if idx < 0 {
		return models.Assignment{}, ErrSubmissionNotFound
	}
	if !CanEditSubmission(act.Actor, a, a.Submissions[idx]) {
		return models.Assignment{}, ErrPermissionDenied
	}

	a.Submissions[idx].Files = filesJSON(act.Files)
	a.Submissions[idx].Comment = act.Comment

	return a, nil
}

func applyEditFeedback(a models.Assignment, act EditFeedback) (models.Assignment, error) {
	if !CanEditFeedback(act.Actor) {
		return models.Assignment{}, ErrPermissionDenied
	}
	idx := feedbackIndex(a, act.FeedbackID)
	if idx < 0 {
		return models.Assignment{}, ErrFeedbackNotFound
	}

	a.Feedbacks[idx].Comment = act.Comment
	a.Feedbacks[idx].Files = filesJSON(act.Files)
	a = deriveFeedbackStatus(a, &a.Feedbacks[idx], act.RequireResubmit, act.Deadline)

	return a, nil
}

func applyDeleteSubmission(a models.Assignment, act DeleteSubmission) (models.Assignment, error) {
	idx := submissionIndex(a, act.SubmissionID)
	if idx < 0 {
		return models.Assignment{}, ErrSubmissionNotFound
	}
	target := a.Submissions[idx]
	if !CanDeleteSubmission(act.Actor, a, target) {
		return models.Assignment{}, ErrPermissionDenied
	}

	wasLast := true
	for i := range a.Submissions {
		if a.Submissions[i].ID != target.ID && a.Submissions[i].CreatedAt.After(target.CreatedAt) {
			wasLast = false
			break
		}
	}

	a.Submissions = append(a.Submissions[:idx], a.Submissions[idx+1:]...)
	if len(a.Submissions) == 0 || wasLast {
		a.Status = models.StatusNotSubmitted
		a.RequireResubmit = false
	}

	return a, nil
}

func applyDeleteFeedback(a models.Assignment, act DeleteFeedback) (models.Assignment, error) {
	if !CanDeleteFeedback(act.Actor) {
		return models.Assignment{}, ErrPermissionDenied
	}
	idx := feedbackIndex(a, act.FeedbackID)
	if idx < 0 {
		return models.Assignment{}, ErrFeedbackNotFound
	}

	// Status deliberately left as-is after feedback removal.
	a.Feedbacks = append(a.Feedbacks[:idx], a.Feedbacks[idx+1:]...)

	return a, nil
}

func applyMarkCompleted(a models.Assignment, act MarkCompleted) (models.Assignment, error) {
	if !act.Actor.IsStaff() {
		return models.Assignment{}, ErrPermissionDenied
	}
	if a.Status == models.StatusCompleted {
		return a, nil
	}

	a.Status = models.StatusCompleted
	a.RequireResubmit = false

	return a, nil
}

func applyFinalFeedback(a models.Assignment, act GiveFinalFeedback, now time.Time) (models.Assignment, error) {
	if !act.Actor.IsStaff() {
		return models.Assignment{}, ErrPermissionDenied
	}

	final := act.Final
	final.SubmitBy = act.Actor.ID
	final.CreatedAt = now

	payload, err := json.Marshal(final)
	if err != nil {
		return models.Assignment{}, err
	}

	a.FinalFeedback = payload
	a.FinalFeedbackSeen = false
	a.Status = models.StatusCompleted
	a.RequireResubmit = false

	return a, nil
}

func applyObservationFeedback(a models.Assignment, act GiveObservationFeedback, now time.Time) (models.Assignment, error) {
	if !act.Actor.IsStaff() {
		return models.Assignment{}, ErrPermissionDenied
	}

	obs := act.Observation
	obs.SubmitBy = act.Actor.ID
	obs.CreatedAt = now

	payload, err := json.Marshal(obs)
	if err != nil {
		return models.Assignment{}, err
	}

	a.ObservationFeedback = payload
	a.ObservationFeedbackSeen = false
	a.Status = models.StatusFeedbackGiven
	a.RequireResubmit = false

	return a, nil
}

// deriveFeedbackStatus applies the shared rule for new and edited feedback:
// a resubmission demand with a deadline reopens the cycle, anything else
// closes the assignment.
func deriveFeedbackStatus(a models.Assignment, fb *models.Feedback, requireResubmit bool, deadline *time.Time) models.Assignment {
	if requireResubmit && deadline != nil {
		fb.Deadline = deadline
		a.Status = models.StatusResubmissionRequired
		a.RequireResubmit = true
		return a
	}

	fb.Deadline = nil
	a.Status = models.StatusCompleted
	a.RequireResubmit = false

	return a
}

func submissionIndex(a models.Assignment, id uint) int {
	for i := range a.Submissions {
		if a.Submissions[i].ID == id {
			return i
		}
	}
	return -1
}

func feedbackIndex(a models.Assignment, id uint) int {
	for i := range a.Feedbacks {
		if a.Feedbacks[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(a models.Assignment) models.Assignment {
	out := a
	out.Submissions = append([]models.Submission(nil), a.Submissions...)
	out.Feedbacks = append([]models.Feedback(nil), a.Feedbacks...)

	return out
}

func filesJSON(files []string) []byte {
	if files == nil {
		files = []string{}
	}
	payload, err := json.Marshal(files)
	if err != nil {
		return []byte("[]")
	}

	return payload
}
