package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

func TestEffectiveDeadlineFallsBackToMaterial(t *testing.T) {
	material := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assignment := newAssignment()

	require.Equal(t, &material, EffectiveDeadline(assignment, &material))
	require.Nil(t, EffectiveDeadline(assignment, nil))
}

func TestEffectiveDeadlinePrefersLatestFeedbackDeadline(t *testing.T) {
	material := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	early := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assignment := newAssignment()
	assignment.Feedbacks = []models.Feedback{
		// insertion order deliberately not chronological; resolution is by CreatedAt
		{ID: 2, Deadline: &late, CreatedAt: timeAt(12)},
		{ID: 1, Deadline: &early, CreatedAt: timeAt(10)},
		{ID: 3, CreatedAt: timeAt(14)},
	}

	require.Equal(t, &late, EffectiveDeadline(assignment, &material))
}

func TestDeadlinePassed(t *testing.T) {
	deadline := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.True(t, DeadlinePassed(deadline.Add(time.Hour), &deadline))
	require.False(t, DeadlinePassed(deadline.Add(-time.Hour), &deadline))
	require.False(t, DeadlinePassed(deadline, &deadline))
	require.False(t, DeadlinePassed(time.Now(), nil))
}
