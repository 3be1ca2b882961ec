package models

import (
	"time"

	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
)

// DataType tags which record catalog a transfer moves. The enumeration is
// closed: the executor never inspects record contents, so a single pipeline
// serves every type.
type DataType string

const (
	DataTypeResident     DataType = "resident"
	DataTypeHousehold    DataType = "household"
	DataTypeOfficial     DataType = "official"
	DataTypeAnnouncement DataType = "announcement"
	DataTypeEvent        DataType = "event"
	DataTypeDocument     DataType = "document"
)

// DataTypes lists every recognized data type.
var DataTypes = []DataType{
	DataTypeResident,
	DataTypeHousehold,
	DataTypeOfficial,
	DataTypeAnnouncement,
	DataTypeEvent,
	DataTypeDocument,
}

// ParseDataType validates a raw string against the closed enumeration.
func ParseDataType(raw string) (DataType, error) {
	for _, dt := range DataTypes {
		if DataType(raw) == dt {
			return dt, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown data type: "+raw)
}

func (d DataType) String() string { return string(d) }

// Status is the transfer request lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// CanTransitionTo reports whether the transition is legal. The only legal
// transitions are pending→accepted and pending→rejected; terminal states
// never re-open.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusAccepted || next == StatusRejected
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// TransferRequest is the aggregate root for a cross-barangay transfer
// proposal and the audit record of its resolution.
//
// Invariants:
//   - SourceBarangay != DestinationBarangay
//   - ItemIDs is non-empty, unique within the set, order preserved, and
//     immutable after creation (a changed selection means a new request)
//   - Status starts at pending; accepted and rejected are terminal
//   - Reviewer and ResolvedAt are unset while pending and set exactly once,
//     at the terminal transition; the reviewer belongs to the destination
//   - Requests are never deleted: the ledger is the migration audit trail
//
// The status/reviewer/resolvedAt triple is only ever written through the
// store's conditional TransitionStatus; no other path may change it.
type TransferRequest struct {
	ID                  id.RequestID  `json:"id"`
	SourceBarangay      id.BarangayID `json:"source"`
	DestinationBarangay id.BarangayID `json:"destination"`
	DataType            DataType      `json:"datatype"`
	ItemIDs             []id.RecordID `json:"dataid"`
	Status              Status        `json:"status"`
	Initiator           id.UserID     `json:"initiator"`
	Reviewer            *id.UserID    `json:"reviewer,omitempty"`
	Notes               string        `json:"notes,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	ResolvedAt          *time.Time    `json:"resolved_at,omitempty"`
}

// NewTransferRequest builds a pending request, enforcing the creation-time
// invariants. Item ids are deduplicated preserving first-seen order.
func NewTransferRequest(
	source, destination id.BarangayID,
	dataType DataType,
	itemIDs []id.RecordID,
	initiator id.UserID,
	notes string,
	now time.Time,
) (*TransferRequest, error) {
	if source.IsNil() || destination.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "source and destination barangays are required")
	}
	if source == destination {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "source and destination barangays must differ")
	}
	if _, err := ParseDataType(string(dataType)); err != nil {
		return nil, err
	}
	if initiator.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "initiator is required")
	}

	items := dedupeRecordIDs(itemIDs)
	if len(items) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "item selection cannot be empty")
	}

	return &TransferRequest{
		ID:                  id.NewRequestID(),
		SourceBarangay:      source,
		DestinationBarangay: destination,
		DataType:            dataType,
		ItemIDs:             items,
		Status:              StatusPending,
		Initiator:           initiator,
		Notes:               notes,
		CreatedAt:           now,
	}, nil
}

// CanResolve checks that the request still accepts a terminal transition.
func (r *TransferRequest) CanResolve() error {
	if r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeConflict, "request already resolved")
	}
	return nil
}

// ApplyResolution transitions the request into a terminal state in memory.
// The authoritative write is the store's conditional TransitionStatus; this
// method exists so in-memory copies stay consistent and so the transition
// table is validated in one place.
func (r *TransferRequest) ApplyResolution(next Status, reviewer id.UserID, at time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeConflict, "illegal status transition from "+string(r.Status)+" to "+string(next))
	}
	if reviewer.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "reviewer is required")
	}
	r.Status = next
	r.Reviewer = &reviewer
	r.ResolvedAt = &at
	return nil
}

func dedupeRecordIDs(ids []id.RecordID) []id.RecordID {
	seen := make(map[id.RecordID]struct{}, len(ids))
	out := make([]id.RecordID, 0, len(ids))
	for _, rid := range ids {
		if rid.IsNil() {
			continue
		}
		if _, ok := seen[rid]; ok {
			continue
		}
		seen[rid] = struct{}{}
		out = append(out, rid)
	}
	return out
}
