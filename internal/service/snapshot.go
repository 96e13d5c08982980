package service

import (
	"sync"

	"github.com/hridoy-islam/watenycollage-sub000/internal/models"
)

// snapshotStore keeps the last known-good assignment state per id, plus a
// monotonic sequence number per assignment. Mutations apply optimistically,
// then either commit the authoritative server row or roll back; a commit whose
// sequence number has been superseded by a newer mutation is discarded so a
// stale in-flight response can never overwrite fresher state.
type snapshotStore struct {
	mu      sync.Mutex
	entries map[uint]*snapshotEntry
}

type snapshotEntry struct {
	assignment models.Assignment
	seq        uint64
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{entries: make(map[uint]*snapshotEntry)}
}

// Get returns the cached snapshot when one exists.
func (s *snapshotStore) Get(id uint) (models.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return models.Assignment{}, false
	}

	return entry.assignment, true
}

// Begin stores the optimistic state and returns the sequence number of this
// mutation together with the previous snapshot for rollback.
func (s *snapshotStore) Begin(id uint, optimistic models.Assignment) (uint64, models.Assignment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		entry = &snapshotEntry{}
		s.entries[id] = entry
	}

	previous := entry.assignment
	hadPrevious := ok
	entry.seq++
	entry.assignment = optimistic

	return entry.seq, previous, hadPrevious
}

// Commit overwrites the snapshot with the authoritative state. It reports
// false when a newer mutation has begun since seq was issued; the caller's
// response is stale and must be dropped.
func (s *snapshotStore) Commit(id uint, seq uint64, authoritative models.Assignment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.seq != seq {
		return false
	}

	entry.assignment = authoritative

	return true
}

// Rollback restores the pre-mutation snapshot, unless a newer mutation has
// already replaced the optimistic state.
func (s *snapshotStore) Rollback(id uint, seq uint64, previous models.Assignment, hadPrevious bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.seq != seq {
		return
	}

	if hadPrevious {
		entry.assignment = previous
		return
	}

	delete(s.entries, id)
}

// Store unconditionally refreshes the snapshot from an authoritative read.
func (s *snapshotStore) Store(id uint, assignment models.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		entry = &snapshotEntry{}
		s.entries[id] = entry
	}
	entry.assignment = assignment
}

// Drop removes the snapshot for an assignment.
func (s *snapshotStore) Drop(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
}
