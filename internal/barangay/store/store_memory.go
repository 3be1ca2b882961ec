package store

import (
	"context"
	"strings"
	"sync"

	"baranex/internal/barangay/models"
	id "baranex/pkg/domain"
	"baranex/pkg/platform/sentinel"
)

type memberKey struct {
	userID     id.UserID
	barangayID id.BarangayID
}

// InMemory is the development and unit-test directory store.
type InMemory struct {
	mu        sync.RWMutex
	barangays map[id.BarangayID]*models.Barangay
	names     map[string]struct{}
	members   map[memberKey]*models.Member
}

func NewInMemory() *InMemory {
	return &InMemory{
		barangays: make(map[id.BarangayID]*models.Barangay),
		names:     make(map[string]struct{}),
		members:   make(map[memberKey]*models.Member),
	}
}

func (s *InMemory) CreateIfNameAvailable(_ context.Context, barangay *models.Barangay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(barangay.Name)
	if _, taken := s.names[nameKey]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.barangays[barangay.ID]; exists {
		return sentinel.ErrConflict
	}

	dup := *barangay
	s.barangays[barangay.ID] = &dup
	s.names[nameKey] = struct{}{}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, barangayID id.BarangayID) (*models.Barangay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	barangay, ok := s.barangays[barangayID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	dup := *barangay
	return &dup, nil
}

func (s *InMemory) AddMember(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.barangays[member.BarangayID]; !exists {
		return sentinel.ErrNotFound
	}
	dup := *member
	s.members[memberKey{member.UserID, member.BarangayID}] = &dup
	return nil
}

func (s *InMemory) IsMember(_ context.Context, userID id.UserID, barangayID id.BarangayID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.members[memberKey{userID, barangayID}]
	return ok, nil
}
