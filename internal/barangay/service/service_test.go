package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baranex/internal/barangay/store"
	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
)

type fakeNameCache struct {
	mu    sync.Mutex
	names map[id.BarangayID]string
	sets  int
}

func newFakeNameCache() *fakeNameCache {
	return &fakeNameCache{names: make(map[id.BarangayID]string)}
}

func (c *fakeNameCache) Get(_ context.Context, barangayID id.BarangayID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[barangayID]
	return name, ok
}

func (c *fakeNameCache) Set(_ context.Context, barangayID id.BarangayID, name string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[barangayID] = name
	c.sets++
}

func newDirectory(t *testing.T, opts ...Option) *Directory {
	t.Helper()
	return NewDirectory(store.NewInMemory(), slog.Default(), opts...)
}

func TestDirectory_CreateBarangay(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t)

	brgy, err := dir.CreateBarangay(ctx, "San Isidro", "Quezon City", "Metro Manila")
	require.NoError(t, err)
	assert.False(t, brgy.ID.IsNil())

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := dir.CreateBarangay(ctx, "San Isidro", "Other Town", "Other Province")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := dir.CreateBarangay(ctx, "   ", "Quezon City", "Metro Manila")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestDirectory_Exists(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t)

	brgy, err := dir.CreateBarangay(ctx, "Poblacion", "Makati", "Metro Manila")
	require.NoError(t, err)

	ok, err := dir.Exists(ctx, brgy.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(ctx, id.NewBarangayID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectory_DisplayName(t *testing.T) {
	ctx := context.Background()

	t.Run("without cache reads through", func(t *testing.T) {
		dir := newDirectory(t)
		brgy, err := dir.CreateBarangay(ctx, "Bagong Silang", "Caloocan", "Metro Manila")
		require.NoError(t, err)

		name, err := dir.DisplayName(ctx, brgy.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bagong Silang, Caloocan", name)
	})

	t.Run("cache-aside populates on miss and serves on hit", func(t *testing.T) {
		cache := newFakeNameCache()
		dir := newDirectory(t, WithNameCache(cache), WithCacheTTL(time.Minute))
		brgy, err := dir.CreateBarangay(ctx, "Malanday", "Marikina", "Metro Manila")
		require.NoError(t, err)

		name, err := dir.DisplayName(ctx, brgy.ID)
		require.NoError(t, err)
		assert.Equal(t, "Malanday, Marikina", name)
		assert.Equal(t, 1, cache.sets)

		name, err = dir.DisplayName(ctx, brgy.ID)
		require.NoError(t, err)
		assert.Equal(t, "Malanday, Marikina", name)
		assert.Equal(t, 1, cache.sets, "second lookup must hit the cache")
	})

	t.Run("unknown barangay not found", func(t *testing.T) {
		dir := newDirectory(t)
		_, err := dir.DisplayName(ctx, id.NewBarangayID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestDirectory_Membership(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t)

	brgy, err := dir.CreateBarangay(ctx, "Santo Nino", "Taguig", "Metro Manila")
	require.NoError(t, err)
	userID := id.NewUserID()

	ok, err := dir.IsMember(ctx, userID, brgy.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, dir.AddMember(ctx, userID, brgy.ID, "secretary"))

	ok, err = dir.IsMember(ctx, userID, brgy.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("membership does not leak across barangays", func(t *testing.T) {
		other, err := dir.CreateBarangay(ctx, "Ususan", "Taguig", "Metro Manila")
		require.NoError(t, err)
		ok, err := dir.IsMember(ctx, userID, other.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("adding member to missing barangay fails", func(t *testing.T) {
		err := dir.AddMember(ctx, id.NewUserID(), id.NewBarangayID(), "captain")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
