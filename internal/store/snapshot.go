package store

import (
	"sync"

	"github.com/stegverse/cfp-tickets-api/internal/models"
)

// SnapshotStore keeps the last loaded report for the export endpoint. The
// snapshot is always replaced as a whole; overlapping loads race and the last
// write wins, which matches the report contract.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap *models.ExportSnapshot
}

func NewSnapshotStore() *SnapshotStore { return &SnapshotStore{} }

func (s *SnapshotStore) Replace(snap *models.ExportSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Last returns the most recent snapshot, or nil before the first load.
func (s *SnapshotStore) Last() *models.ExportSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
