package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzielCF/az-citas/repository"
)

type brokenMarkerStore struct{}

func (brokenMarkerStore) Seen(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenMarkerStore) Mark(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenMarkerStore) Cleanup(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection refused")
}

func newGormDedup(t *testing.T) (*DedupService, *repository.ProcessedMessageGormStore) {
	t.Helper()
	store := repository.NewProcessedMessageGormStore(newTestDB(t))
	require.NoError(t, store.Init(context.Background()))
	return NewDedupService(store, nil, DedupOptions{}), store
}

func TestDedupService_CheckAndMarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gate, _ := newGormDedup(t)

	assert.False(t, gate.CheckAndMark(ctx, "wamid.1"))
	assert.True(t, gate.CheckAndMark(ctx, "wamid.1"))
	assert.True(t, gate.CheckAndMark(ctx, "wamid.1"))
	assert.True(t, gate.IsDuplicate(ctx, "wamid.1"))
	assert.False(t, gate.IsDuplicate(ctx, "wamid.2"))
}

func TestDedupService_EmptyIDFailsOpen(t *testing.T) {
	ctx := context.Background()
	gate, _ := newGormDedup(t)

	gate.MarkProcessed(ctx, "")
	assert.False(t, gate.IsDuplicate(ctx, ""))
	assert.False(t, gate.CheckAndMark(ctx, ""))
	assert.False(t, gate.CheckAndMark(ctx, ""))
}

func TestDedupService_DurableSurvivesMemoryLoss(t *testing.T) {
	ctx := context.Background()
	store := repository.NewProcessedMessageGormStore(newTestDB(t))
	require.NoError(t, store.Init(ctx))

	first := NewDedupService(store, nil, DedupOptions{})
	first.MarkProcessed(ctx, "wamid.restart")

	// proceso reiniciado: cache vacía, mismo store
	second := NewDedupService(store, nil, DedupOptions{})
	assert.True(t, second.IsDuplicate(ctx, "wamid.restart"))
	assert.True(t, second.CheckAndMark(ctx, "wamid.restart"))
}

func TestDedupService_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()
	gate := NewDedupService(brokenMarkerStore{}, nil, DedupOptions{})

	assert.False(t, gate.CheckAndMark(ctx, "wamid.x"))
	assert.True(t, gate.CheckAndMark(ctx, "wamid.x"))
	assert.True(t, gate.IsDuplicate(ctx, "wamid.x"))

	_, err := gate.Cleanup(ctx)
	assert.Error(t, err)
}

func TestDedupService_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	gate := NewDedupService(nil, repository.NewMemoryProcessedMessageCache(2, time.Hour), DedupOptions{})

	assert.False(t, gate.CheckAndMark(ctx, "a"))
	assert.True(t, gate.CheckAndMark(ctx, "a"))

	n, err := gate.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDedupService_CleanupUsesRetention(t *testing.T) {
	ctx := context.Background()
	gate, store := newGormDedup(t)

	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	_, err := store.Mark(ctx, "wamid.old", old)
	require.NoError(t, err)
	gate.MarkProcessed(ctx, "wamid.fresh")

	n, err := gate.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	seen, err := store.Seen(ctx, "wamid.old")
	require.NoError(t, err)
	assert.False(t, seen)
	seen, err = store.Seen(ctx, "wamid.fresh")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupService_StartStop(t *testing.T) {
	gate := NewDedupService(nil, nil, DedupOptions{SweepInterval: 10 * time.Millisecond})
	gate.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	gate.Stop()
	gate.Stop()
}
