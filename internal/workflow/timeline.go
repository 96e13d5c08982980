package workflow

import (
	"sort"
	"time"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

// EntryType tags a timeline entry as a submission or a feedback.
type EntryType string

// Timeline entry kinds.
const (
	EntrySubmission EntryType = "submission"
	EntryFeedback   EntryType = "feedback"
)

// TimelineEntry is one item in the merged chronological view. Exactly one of
// Submission and Feedback is set, matching Type.
type TimelineEntry struct {
	Type       EntryType
	Submission *models.Submission
	Feedback   *models.Feedback
}

// CreatedAt returns the creation time of the underlying item.
func (e TimelineEntry) CreatedAt() time.Time {
	if e.Type == EntrySubmission && e.Submission != nil {
		return e.Submission.CreatedAt
	}
	if e.Feedback != nil {
		return e.Feedback.CreatedAt
	}

	return time.Time{}
}

// BuildTimeline merges submissions and feedback into one sequence sorted
// ascending by creation time. The sort is stable, with submissions placed
// before feedback on equal timestamps, so identical inputs always produce an
// identical timeline.
func BuildTimeline(submissions []models.Submission, feedbacks []models.Feedback) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(submissions)+len(feedbacks))
	for i := range submissions {
		entries = append(entries, TimelineEntry{Type: EntrySubmission, Submission: &submissions[i]})
	}
	for i := range feedbacks {
		entries = append(entries, TimelineEntry{Type: EntryFeedback, Feedback: &feedbacks[i]})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt().Before(entries[j].CreatedAt())
	})

	return entries
}
