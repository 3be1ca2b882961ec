package records

import (
	"context"
	"sync"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
	"baranex/pkg/platform/sentinel"
)

type recordKey struct {
	dataType models.DataType
	recordID id.RecordID
}

// InMemory is the development and unit-test record store. ReassignOwner
// validates the full batch before touching anything, all under one lock, so
// a failed reassignment changes zero records.
type InMemory struct {
	mu      sync.RWMutex
	records map[recordKey]*Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[recordKey]*Record)}
}

func (s *InMemory) Put(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := *record
	s.records[recordKey{record.DataType, record.ID}] = &dup
	return nil
}

func (s *InMemory) Delete(_ context.Context, dataType models.DataType, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{dataType, recordID}
	if _, ok := s.records[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

func (s *InMemory) ListOwned(_ context.Context, barangayID id.BarangayID, dataType models.DataType) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0)
	for key, record := range s.records {
		if key.dataType == dataType && record.BarangayID == barangayID {
			out = append(out, Summary{ID: record.ID, BarangayID: record.BarangayID, DataType: record.DataType})
		}
	}
	return out, nil
}

func (s *InMemory) GetOwningBarangay(_ context.Context, dataType models.DataType, ids []id.RecordID) (map[id.RecordID]id.BarangayID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make(map[id.RecordID]id.BarangayID, len(ids))
	for _, recordID := range ids {
		if record, ok := s.records[recordKey{dataType, recordID}]; ok {
			owners[recordID] = record.BarangayID
		}
	}
	return owners, nil
}

func (s *InMemory) ReassignOwner(_ context.Context, dataType models.DataType, ids []id.RecordID, from, to id.BarangayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch first; apply only when every id qualifies.
	targets := make([]*Record, 0, len(ids))
	for _, recordID := range ids {
		record, ok := s.records[recordKey{dataType, recordID}]
		if !ok || record.BarangayID != from {
			return sentinel.ErrInvalidState
		}
		targets = append(targets, record)
	}
	for _, record := range targets {
		record.BarangayID = to
	}
	return nil
}
