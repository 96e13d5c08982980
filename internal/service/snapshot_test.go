package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

func TestSnapshotCommitReplacesOptimisticState(t *testing.T) {
	store := newSnapshotStore()

	seq, _, hadPrevious := store.Begin(1, models.Assignment{ID: 1, Status: models.StatusSubmitted})
	require.False(t, hadPrevious)

	committed := store.Commit(1, seq, models.Assignment{ID: 1, Status: models.StatusCompleted})
	require.True(t, committed)

	snapshot, ok := store.Get(1)
	require.True(t, ok)
	require.Equal(t, models.StatusCompleted, snapshot.Status)
}

func TestSnapshotStaleCommitDiscarded(t *testing.T) {
	store := newSnapshotStore()

	firstSeq, _, _ := store.Begin(1, models.Assignment{ID: 1, Status: models.StatusSubmitted})
	secondSeq, _, _ := store.Begin(1, models.Assignment{ID: 1, Status: models.StatusResubmissionRequired})
	require.Greater(t, secondSeq, firstSeq)

	// the older mutation's response arrives after the newer one began
	committed := store.Commit(1, firstSeq, models.Assignment{ID: 1, Status: models.StatusCompleted})
	require.False(t, committed)

	snapshot, ok := store.Get(1)
	require.True(t, ok)
	require.Equal(t, models.StatusResubmissionRequired, snapshot.Status)
}

func TestSnapshotRollbackRestoresPrevious(t *testing.T) {
	store := newSnapshotStore()
	store.Store(1, models.Assignment{ID: 1, Status: models.StatusSubmitted})

	seq, previous, hadPrevious := store.Begin(1, models.Assignment{ID: 1, Status: models.StatusCompleted})
	require.True(t, hadPrevious)
	require.Equal(t, models.StatusSubmitted, previous.Status)

	store.Rollback(1, seq, previous, hadPrevious)

	snapshot, ok := store.Get(1)
	require.True(t, ok)
	require.Equal(t, models.StatusSubmitted, snapshot.Status)
}

func TestSnapshotRollbackWithoutPreviousDropsEntry(t *testing.T) {
	store := newSnapshotStore()

	seq, previous, hadPrevious := store.Begin(7, models.Assignment{ID: 7, Status: models.StatusSubmitted})
	store.Rollback(7, seq, previous, hadPrevious)

	_, ok := store.Get(7)
	require.False(t, ok)
}

func TestSnapshotRollbackSkippedWhenSuperseded(t *testing.T) {
	store := newSnapshotStore()
	store.Store(1, models.Assignment{ID: 1, Status: models.StatusSubmitted})

	firstSeq, firstPrev, firstHad := store.Begin(1, models.Assignment{ID: 1, Status: models.StatusCompleted})
	store.Begin(1, models.Assignment{ID: 1, Status: models.StatusResubmissionRequired})

	store.Rollback(1, firstSeq, firstPrev, firstHad)

	snapshot, ok := store.Get(1)
	require.True(t, ok)
	require.Equal(t, models.StatusResubmissionRequired, snapshot.Status)
}
