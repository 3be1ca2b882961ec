// Package request provides the transfer request ledger: the authoritative,
// append-mostly registry of cross-barangay transfer proposals.
package request

import (
	"context"
	"time"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
)

// Store is the ledger contract. Rows are never deleted; the ledger doubles
// as the audit trail of every migration.
//
// TransitionStatus is the single mutation point for the status/reviewer/
// resolvedAt triple. It is a compare-and-swap: implementations must perform
// one atomic conditional write (never a read-then-write pair) and return
// sentinel.ErrStaleState when the stored status no longer matches expected.
type Store interface {
	Create(ctx context.Context, req *models.TransferRequest) error
	GetByID(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, error)

	// ListByDestination returns the barangay's incoming queue, newest first.
	ListByDestination(ctx context.Context, barangayID id.BarangayID) ([]*models.TransferRequest, error)
	// ListBySource returns the barangay's outgoing queue, newest first.
	ListBySource(ctx context.Context, barangayID id.BarangayID) ([]*models.TransferRequest, error)

	TransitionStatus(
		ctx context.Context,
		requestID id.RequestID,
		expected, next models.Status,
		reviewer id.UserID,
		resolvedAt time.Time,
	) (*models.TransferRequest, error)
}
