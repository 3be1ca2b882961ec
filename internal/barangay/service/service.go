// Package service exposes the barangay directory consumed by the nexus
// transfer subsystem: existence checks, display labeling, and membership
// authorization lookups.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"baranex/internal/barangay/models"
	"baranex/internal/barangay/store"
	"baranex/internal/platform/config"
	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
	"baranex/pkg/platform/sentinel"
	"baranex/pkg/requestcontext"
)

// NameCache caches display names. Lookups are hot on every transfer listing
// while renames are rare, so a short TTL cache-aside is enough.
type NameCache interface {
	Get(ctx context.Context, barangayID id.BarangayID) (string, bool)
	Set(ctx context.Context, barangayID id.BarangayID, name string, ttl time.Duration)
}

// Directory orchestrates directory reads and admin writes.
type Directory struct {
	store  store.Store
	cache  NameCache
	logger *slog.Logger
	ttl    time.Duration
}

// Option configures the Directory.
type Option func(*Directory)

// WithNameCache enables display-name caching.
func WithNameCache(cache NameCache) Option {
	return func(d *Directory) {
		d.cache = cache
	}
}

// WithCacheTTL overrides the display-name cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		d.ttl = ttl
	}
}

func NewDirectory(st store.Store, logger *slog.Logger, opts ...Option) *Directory {
	d := &Directory{
		store:  st,
		logger: logger,
		ttl:    config.DirectoryCacheTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateBarangay registers a new barangay with a unique name.
func (d *Directory) CreateBarangay(ctx context.Context, name, municipality, province string) (*models.Barangay, error) {
	barangay, err := models.NewBarangay(id.NewBarangayID(), name, municipality, province, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := d.store.CreateIfNameAvailable(ctx, barangay); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "barangay name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create barangay")
	}
	return barangay, nil
}

// AddMember registers a user under their home barangay.
func (d *Directory) AddMember(ctx context.Context, userID id.UserID, barangayID id.BarangayID, role string) error {
	if userID.IsNil() || barangayID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "user and barangay ids are required")
	}
	member := &models.Member{
		UserID:     userID,
		BarangayID: barangayID,
		Role:       role,
		JoinedAt:   requestcontext.Now(ctx),
	}
	if err := d.store.AddMember(ctx, member); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "barangay does not exist")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add member")
	}
	return nil
}

// Exists reports whether the barangay is registered.
func (d *Directory) Exists(ctx context.Context, barangayID id.BarangayID) (bool, error) {
	_, err := d.store.FindByID(ctx, barangayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up barangay")
	}
	return true, nil
}

// DisplayName resolves the human-facing label for request labeling,
// cache-aside when a cache is configured. Cache failures degrade to store
// reads; labeling never blocks on Redis.
func (d *Directory) DisplayName(ctx context.Context, barangayID id.BarangayID) (string, error) {
	if d.cache != nil {
		if name, ok := d.cache.Get(ctx, barangayID); ok {
			return name, nil
		}
	}

	barangay, err := d.store.FindByID(ctx, barangayID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "barangay does not exist")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up barangay")
	}

	name := barangay.DisplayName()
	if d.cache != nil {
		d.cache.Set(ctx, barangayID, name, d.ttl)
	}
	return name, nil
}

// IsMember reports whether the user belongs to the barangay. Membership is
// the authorization boundary for resolving transfers; it is never cached.
func (d *Directory) IsMember(ctx context.Context, userID id.UserID, barangayID id.BarangayID) (bool, error) {
	ok, err := d.store.IsMember(ctx, userID, barangayID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}
	return ok, nil
}
