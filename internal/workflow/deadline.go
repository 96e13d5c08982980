package workflow

import (
	"time"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

// EffectiveDeadline resolves the single deadline currently governing an
// assignment: the deadline of the most recently created feedback that carries
// one, falling back to the course material deadline. "Most recent" is by
// CreatedAt rather than insertion index because feedback can be edited.
func EffectiveDeadline(a models.Assignment, materialDeadline *time.Time) *time.Time {
	var latest *models.Feedback
	for i := range a.Feedbacks {
		fb := &a.Feedbacks[i]
		if fb.Deadline == nil {
			continue
		}
		if latest == nil || fb.CreatedAt.After(latest.CreatedAt) {
			latest = fb
		}
	}

	if latest != nil {
		return latest.Deadline
	}

	return materialDeadline
}

// DeadlinePassed reports whether the given deadline lies in the past. This is
// advisory UI state only; it never gates submission (see CanSubmit).
func DeadlinePassed(now time.Time, deadline *time.Time) bool {
	if deadline == nil {
		return false
	}

	return now.After(*deadline)
}
