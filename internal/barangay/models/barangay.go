package models

import (
	"strings"
	"time"

	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
)

// Barangay is the aggregate root for a tenant barangay.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - CreatedAt is immutable after construction
//
// The directory is authoritative for existence and display metadata. It is
// never consulted for record ownership; ownership lives on the records
// themselves.
type Barangay struct {
	ID           id.BarangayID `json:"id"`
	Name         string        `json:"name"`
	Municipality string        `json:"municipality"`
	Province     string        `json:"province"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewBarangay validates and constructs a Barangay.
func NewBarangay(barangayID id.BarangayID, name, municipality, province string, now time.Time) (*Barangay, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "barangay name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "barangay name must be 128 characters or less")
	}
	return &Barangay{
		ID:           barangayID,
		Name:         name,
		Municipality: strings.TrimSpace(municipality),
		Province:     strings.TrimSpace(province),
		CreatedAt:    now,
	}, nil
}

// DisplayName is the human-facing label used when labeling transfer
// requests.
func (b *Barangay) DisplayName() string {
	if b.Municipality == "" {
		return b.Name
	}
	return b.Name + ", " + b.Municipality
}

// Member links a user to their home barangay. A user belongs to exactly one
// barangay at a time; cross-barangay actions are authorized against this
// membership, never against client-supplied ids.
type Member struct {
	UserID     id.UserID     `json:"user_id"`
	BarangayID id.BarangayID `json:"barangay_id"`
	Role       string        `json:"role"`
	JoinedAt   time.Time     `json:"joined_at"`
}
