package request

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
	"baranex/pkg/platform/sentinel"
)

func newPendingRequest(t *testing.T, source, destination id.BarangayID, createdAt time.Time) *models.TransferRequest {
	t.Helper()
	req, err := models.NewTransferRequest(
		source, destination, models.DataTypeResident,
		[]id.RecordID{id.NewRecordID(), id.NewRecordID()},
		id.NewUserID(), "", createdAt)
	require.NoError(t, err)
	return req
}

func TestInMemory_CreateAndGet(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	req := newPendingRequest(t, id.NewBarangayID(), id.NewBarangayID(), time.Now().UTC())

	require.NoError(t, store.Create(ctx, req))

	got, err := store.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req, got)

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := store.Create(ctx, req)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("missing id not found", func(t *testing.T) {
		_, err := store.GetByID(ctx, id.NewRequestID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("stored copy is isolated from caller mutation", func(t *testing.T) {
		req.ItemIDs[0] = id.NewRecordID()
		fresh, err := store.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.NotEqual(t, req.ItemIDs[0], fresh.ItemIDs[0])
	})
}

func TestInMemory_ListQueues(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	brgyX := id.NewBarangayID()
	brgyY := id.NewBarangayID()
	brgyZ := id.NewBarangayID()

	base := time.Now().UTC().Truncate(time.Second)
	oldest := newPendingRequest(t, brgyX, brgyY, base.Add(-2*time.Hour))
	middle := newPendingRequest(t, brgyX, brgyY, base.Add(-time.Hour))
	newest := newPendingRequest(t, brgyZ, brgyY, base)
	unrelated := newPendingRequest(t, brgyY, brgyZ, base)

	for _, req := range []*models.TransferRequest{oldest, middle, newest, unrelated} {
		require.NoError(t, store.Create(ctx, req))
	}

	t.Run("incoming queue is newest first", func(t *testing.T) {
		incoming, err := store.ListByDestination(ctx, brgyY)
		require.NoError(t, err)
		require.Len(t, incoming, 3)
		assert.Equal(t, newest.ID, incoming[0].ID)
		assert.Equal(t, middle.ID, incoming[1].ID)
		assert.Equal(t, oldest.ID, incoming[2].ID)
	})

	t.Run("outgoing queue filters by source", func(t *testing.T) {
		outgoing, err := store.ListBySource(ctx, brgyX)
		require.NoError(t, err)
		require.Len(t, outgoing, 2)
		assert.Equal(t, middle.ID, outgoing[0].ID)
		assert.Equal(t, oldest.ID, outgoing[1].ID)
	})

	t.Run("same-timestamp requests order by creation sequence", func(t *testing.T) {
		first := newPendingRequest(t, brgyZ, brgyX, base)
		second := newPendingRequest(t, brgyZ, brgyX, base)
		require.NoError(t, store.Create(ctx, first))
		require.NoError(t, store.Create(ctx, second))

		incoming, err := store.ListByDestination(ctx, brgyX)
		require.NoError(t, err)
		require.Len(t, incoming, 2)
		assert.Equal(t, second.ID, incoming[0].ID)
		assert.Equal(t, first.ID, incoming[1].ID)
	})
}

func TestInMemory_TransitionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to rejected sets the resolution triple", func(t *testing.T) {
		store := NewInMemory()
		req := newPendingRequest(t, id.NewBarangayID(), id.NewBarangayID(), time.Now().UTC())
		require.NoError(t, store.Create(ctx, req))

		reviewer := id.NewUserID()
		resolvedAt := time.Now().UTC()
		updated, err := store.TransitionStatus(ctx, req.ID, models.StatusPending, models.StatusRejected, reviewer, resolvedAt)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, updated.Status)
		require.NotNil(t, updated.Reviewer)
		assert.Equal(t, reviewer, *updated.Reviewer)
		require.NotNil(t, updated.ResolvedAt)
		assert.Equal(t, resolvedAt, *updated.ResolvedAt)
	})

	t.Run("stale expected status loses", func(t *testing.T) {
		store := NewInMemory()
		req := newPendingRequest(t, id.NewBarangayID(), id.NewBarangayID(), time.Now().UTC())
		require.NoError(t, store.Create(ctx, req))

		_, err := store.TransitionStatus(ctx, req.ID, models.StatusPending, models.StatusAccepted, id.NewUserID(), time.Now())
		require.NoError(t, err)

		_, err = store.TransitionStatus(ctx, req.ID, models.StatusPending, models.StatusRejected, id.NewUserID(), time.Now())
		assert.ErrorIs(t, err, sentinel.ErrStaleState)

		got, err := store.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, got.Status, "losing transition must not overwrite the winner")
	})

	t.Run("missing request not found", func(t *testing.T) {
		store := NewInMemory()
		_, err := store.TransitionStatus(ctx, id.NewRequestID(), models.StatusPending, models.StatusRejected, id.NewUserID(), time.Now())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

// TestInMemory_TransitionStatus_MutualExclusion races N resolvers against a
// single pending request: exactly one transition may win.
func TestInMemory_TransitionStatus_MutualExclusion(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	req := newPendingRequest(t, id.NewBarangayID(), id.NewBarangayID(), time.Now().UTC())
	require.NoError(t, store.Create(ctx, req))

	const resolvers = 50
	var wg sync.WaitGroup
	wg.Add(resolvers)
	results := make(chan error, resolvers)

	for i := 0; i < resolvers; i++ {
		next := models.StatusAccepted
		if i%2 == 1 {
			next = models.StatusRejected
		}
		go func(next models.Status) {
			defer wg.Done()
			_, err := store.TransitionStatus(ctx, req.ID, models.StatusPending, next, id.NewUserID(), time.Now())
			results <- err
		}(next)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, sentinel.ErrStaleState):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one resolution must win")
	assert.Equal(t, resolvers-1, losses)

	final, err := store.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, final.Status.IsTerminal())
}
