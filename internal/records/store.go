// Package records stores the transferable domain records (residents,
// households, officials, announcements, events, documents) keyed by owning
// barangay and data type. Payloads are opaque to this package: the transfer
// pipeline only ever reads and rewrites the owning-barangay field.
package records

import (
	"context"
	"encoding/json"
	"time"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
)

// Record is one transferable entry. Payload passes through migration
// unchanged.
type Record struct {
	ID         id.RecordID
	BarangayID id.BarangayID
	DataType   models.DataType
	Payload    json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Summary is the listing projection used to build transfer selections.
type Summary struct {
	ID         id.RecordID     `json:"id"`
	BarangayID id.BarangayID   `json:"barangay_id"`
	DataType   models.DataType `json:"datatype"`
}

// Store is the record store contract consumed by the migration executor.
//
// ReassignOwner must be atomic across ids: every id must currently be owned
// by from, and either all rows change owner or none do. A failure mid-batch
// leaves the store exactly as it was.
type Store interface {
	Put(ctx context.Context, record *Record) error
	Delete(ctx context.Context, dataType models.DataType, recordID id.RecordID) error

	ListOwned(ctx context.Context, barangayID id.BarangayID, dataType models.DataType) ([]Summary, error)
	GetOwningBarangay(ctx context.Context, dataType models.DataType, ids []id.RecordID) (map[id.RecordID]id.BarangayID, error)
	ReassignOwner(ctx context.Context, dataType models.DataType, ids []id.RecordID, from, to id.BarangayID) error
}
