package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

func newTestStore(t *testing.T, offerTTL time.Duration) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(zap.NewNop(), offerTTL, time.Hour)
	t.Cleanup(store.Stop)
	return store
}

func TestMemoryStoreEffectivenessMean(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.RecordFeedback(ctx, "d1", "a", 1.0))
	require.NoError(t, store.RecordFeedback(ctx, "d2", "a", 0.5))
	require.NoError(t, store.RecordFeedback(ctx, "d1", "b", 0.2))

	eff, err := store.GetEffectiveness(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, eff["a"], 1e-9)
	assert.InDelta(t, 0.2, eff["b"], 1e-9)
	assert.Equal(t, core.EffectivenessNoData, eff["missing"])
}

func TestMemoryStoreCleanupExpiresOffers(t *testing.T) {
	store := newTestStore(t, -time.Minute) // already expired on insert
	ctx := context.Background()

	require.NoError(t, store.RecordOffers(ctx, "d1", "u1", []string{"a", "b"}))
	require.NoError(t, store.Cleanup(ctx))

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.offers)
}

func TestMemoryStoreCleanupKeepsLiveOffers(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.RecordOffers(ctx, "d1", "u1", []string{"a"}))
	require.NoError(t, store.Cleanup(ctx))

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Len(t, store.offers, 1)
}

func TestMemoryStoreFeedbackSurvivesOfferCleanup(t *testing.T) {
	store := newTestStore(t, -time.Minute)
	ctx := context.Background()

	require.NoError(t, store.RecordOffers(ctx, "d1", "u1", []string{"a"}))
	require.NoError(t, store.RecordFeedback(ctx, "d1", "a", 0.9))
	require.NoError(t, store.Cleanup(ctx))

	eff, err := store.GetEffectiveness(ctx, []string{"a"})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, eff["a"], 1e-9)
}
