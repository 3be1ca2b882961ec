package audit

import (
	"time"

	id "baranex/pkg/domain"
)

// Action labels the transfer lifecycle step an event records.
type Action string

const (
	ActionTransferRequested Action = "transfer_requested"
	ActionTransferAccepted  Action = "transfer_accepted"
	ActionTransferRejected  Action = "transfer_rejected"
)

// Event is emitted from the nexus service to capture transfer lifecycle
// actions. Keep it transport-agnostic so sinks can fan out.
//
// The authoritative audit trail is the never-deleted transfer request
// ledger; these events exist for downstream consumers (notifications,
// municipal reporting) and are delivered at-most-once.
type Event struct {
	Timestamp           time.Time     `json:"timestamp"`
	Action              Action        `json:"action"`
	RequestID           id.RequestID  `json:"request_id"`
	Actor               id.UserID     `json:"actor"`
	SourceBarangay      id.BarangayID `json:"source_barangay"`
	DestinationBarangay id.BarangayID `json:"destination_barangay"`
	SourceLabel         string        `json:"source_label,omitempty"`
	DestinationLabel    string        `json:"destination_label,omitempty"`
	DataType            string        `json:"datatype"`
	ItemCount           int           `json:"item_count"`
	MigratedCount       int           `json:"migrated_count,omitempty"`
}
