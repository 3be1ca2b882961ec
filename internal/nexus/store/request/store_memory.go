package request

import (
	"context"
	"sort"
	"sync"
	"time"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
	"baranex/pkg/platform/sentinel"
)

// InMemory is the development and unit-test ledger. The mutex makes
// TransitionStatus a true compare-and-swap: the expected-status check and
// the write happen under one critical section.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.TransferRequest
	seq      map[id.RequestID]uint64
	nextSeq  uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		requests: make(map[id.RequestID]*models.TransferRequest),
		seq:      make(map[id.RequestID]uint64),
	}
}

func (s *InMemory) Create(_ context.Context, req *models.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.nextSeq++
	s.seq[req.ID] = s.nextSeq
	s.requests[req.ID] = copyRequest(req)
	return nil
}

func (s *InMemory) GetByID(_ context.Context, requestID id.RequestID) (*models.TransferRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRequest(req), nil
}

func (s *InMemory) ListByDestination(_ context.Context, barangayID id.BarangayID) ([]*models.TransferRequest, error) {
	return s.list(func(r *models.TransferRequest) bool {
		return r.DestinationBarangay == barangayID
	}), nil
}

func (s *InMemory) ListBySource(_ context.Context, barangayID id.BarangayID) ([]*models.TransferRequest, error) {
	return s.list(func(r *models.TransferRequest) bool {
		return r.SourceBarangay == barangayID
	}), nil
}

func (s *InMemory) TransitionStatus(
	_ context.Context,
	requestID id.RequestID,
	expected, next models.Status,
	reviewer id.UserID,
	resolvedAt time.Time,
) (*models.TransferRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Status != expected {
		return nil, sentinel.ErrStaleState
	}

	updated := copyRequest(req)
	if err := updated.ApplyResolution(next, reviewer, resolvedAt); err != nil {
		return nil, err
	}
	s.requests[requestID] = updated
	return copyRequest(updated), nil
}

func (s *InMemory) list(match func(*models.TransferRequest) bool) []*models.TransferRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.TransferRequest, 0)
	for _, req := range s.requests {
		if match(req) {
			out = append(out, copyRequest(req))
		}
	}
	// Newest first; creation sequence breaks ties for requests created
	// within the same clock tick.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out
}

func copyRequest(req *models.TransferRequest) *models.TransferRequest {
	dup := *req
	dup.ItemIDs = append([]id.RecordID(nil), req.ItemIDs...)
	if req.Reviewer != nil {
		reviewer := *req.Reviewer
		dup.Reviewer = &reviewer
	}
	if req.ResolvedAt != nil {
		at := *req.ResolvedAt
		dup.ResolvedAt = &at
	}
	return &dup
}
