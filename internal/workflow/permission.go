package workflow

import "github.com/hridoy-islam/watenycollage-sub000/internal/models"

// CanEditSubmission decides whether the actor may edit the given submission.
// Staff may always edit. A student may edit only their own submission, only
// while it is the temporally last submission, and only until a teacher has
// responded: any feedback created after the submission locks it.
func CanEditSubmission(actor Actor, a models.Assignment, s models.Submission) bool {
	if actor.IsStaff() {
		return true
	}
	if !actor.IsStudent() || actor.ID != a.StudentID {
		return false
	}

	for i := range a.Submissions {
		other := a.Submissions[i]
		if other.ID != s.ID && other.CreatedAt.After(s.CreatedAt) {
			return false
		}
	}
	for i := range a.Feedbacks {
		if a.Feedbacks[i].CreatedAt.After(s.CreatedAt) {
			return false
		}
	}

	return true
}

// CanDeleteSubmission follows the same rule as CanEditSubmission.
func CanDeleteSubmission(actor Actor, a models.Assignment, s models.Submission) bool {
	return CanEditSubmission(actor, a, s)
}

// CanEditFeedback reports whether the actor may edit feedback. Students never may.
func CanEditFeedback(actor Actor) bool {
	return actor.IsStaff()
}

// CanDeleteFeedback reports whether the actor may delete feedback.
func CanDeleteFeedback(actor Actor) bool {
	return actor.IsStaff()
}
