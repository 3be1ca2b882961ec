// Package store persists the barangay directory: barangays and their user
// memberships.
package store

import (
	"context"

	"baranex/internal/barangay/models"
	id "baranex/pkg/domain"
)

// Store is the directory contract. Name uniqueness is enforced at create
// time (sentinel.ErrConflict) so two barangays can never share a label.
type Store interface {
	CreateIfNameAvailable(ctx context.Context, barangay *models.Barangay) error
	FindByID(ctx context.Context, barangayID id.BarangayID) (*models.Barangay, error)

	AddMember(ctx context.Context, member *models.Member) error
	IsMember(ctx context.Context, userID id.UserID, barangayID id.BarangayID) (bool, error)
}
