package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

func newChromemTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex(t.TempDir(), 3, 10, zap.NewNop())
	require.NoError(t, err)
	return idx
}

func TestChromemIndexRoundTrip(t *testing.T) {
	idx := newChromemTestIndex(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	require.NoError(t, idx.Upsert(ctx, newTestExample("a", "u1", "friends", vec, time.Now())))

	results, err := idx.Search(ctx, &core.SearchQuery{UserID: "u1", QueryVector: vec})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-3)
	assert.Equal(t, "text for a", results[0].Metadata.ExtractedText)
	assert.Equal(t, "friends", results[0].Metadata.Relationship.Type)
}

func TestChromemIndexUpsertReplaces(t *testing.T) {
	idx := newChromemTestIndex(t)
	ctx := context.Background()

	vec := []float32{0, 1, 0}
	require.NoError(t, idx.Upsert(ctx, newTestExample("a", "u1", "friends", vec, time.Now())))
	require.NoError(t, idx.Upsert(ctx, newTestExample("a", "u1", "colleagues", vec, time.Now())))

	stats, err := idx.GetRelationshipStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"colleagues": 1}, stats)

	results, err := idx.Search(ctx, &core.SearchQuery{UserID: "u1", QueryVector: vec})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestChromemIndexRelationshipFilter(t *testing.T) {
	idx := newChromemTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, newTestExample("a", "u1", "friends", []float32{1, 0, 0}, time.Now())))
	require.NoError(t, idx.Upsert(ctx, newTestExample("b", "u1", "colleagues", []float32{0, 1, 0}, time.Now())))

	results, err := idx.Search(ctx, &core.SearchQuery{
		UserID:       "u1",
		QueryVector:  []float32{1, 0, 0},
		Relationship: "colleagues",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestChromemIndexSearchUnknownUser(t *testing.T) {
	idx := newChromemTestIndex(t)

	results, err := idx.Search(context.Background(), &core.SearchQuery{
		UserID:      "nobody",
		QueryVector: []float32{1, 0, 0},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemIndexGetByRelationship(t *testing.T) {
	idx := newChromemTestIndex(t)
	ctx := context.Background()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, idx.Upsert(ctx, newTestExample("old", "u1", "friends", []float32{1, 0, 0}, older)))
	require.NoError(t, idx.Upsert(ctx, newTestExample("new", "u1", "friends", []float32{0, 1, 0}, newer)))
	require.NoError(t, idx.Upsert(ctx, newTestExample("work", "u1", "colleagues", []float32{0, 0, 1}, newer)))

	results, err := idx.GetByRelationship(ctx, "u1", "friends", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "new", results[0].ID)
	assert.Equal(t, "old", results[1].ID)
}

func TestChromemIndexDeleteUserData(t *testing.T) {
	idx := newChromemTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, newTestExample("a", "u1", "friends", []float32{1, 0, 0}, time.Now())))
	require.NoError(t, idx.Upsert(ctx, newTestExample("b", "u2", "friends", []float32{1, 0, 0}, time.Now())))

	require.NoError(t, idx.DeleteUserData(ctx, "u1"))

	gone, err := idx.Search(ctx, &core.SearchQuery{UserID: "u1", QueryVector: []float32{1, 0, 0}})
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := idx.Search(ctx, &core.SearchQuery{UserID: "u2", QueryVector: []float32{1, 0, 0}})
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestChromemIndexUpdateUsageStats(t *testing.T) {
	idx := newChromemTestIndex(t)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	require.NoError(t, idx.Upsert(ctx, newTestExample("a", "u1", "friends", vec, time.Now())))

	rating := 0.9
	require.NoError(t, idx.UpdateUsageStats(ctx, []core.UsageUpdate{
		{VectorID: "a", WasUsed: true, UserRating: &rating},
		{VectorID: "unknown", WasUsed: true, UserRating: &rating},
	}))

	results, err := idx.Search(ctx, &core.SearchQuery{UserID: "u1", QueryVector: vec})
	require.NoError(t, err)
	require.Len(t, results, 1)

	usage := results[0].Metadata.Usage
	assert.Equal(t, 1, usage.TimesUsed)
	require.NotNil(t, usage.EffectivenessScore)
	assert.InDelta(t, 0.9, *usage.EffectivenessScore, 1e-9)
	// the vector survives the metadata rewrite
	assert.InDelta(t, 1.0, results[0].Score, 1e-3)
}

func TestChromemIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewChromemIndex(dir, 3, 10, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, newTestExample("a", "u1", "friends", []float32{1, 0, 0}, time.Now())))

	reopened, err := NewChromemIndex(dir, 3, 10, zap.NewNop())
	require.NoError(t, err)

	results, err := reopened.Search(ctx, &core.SearchQuery{UserID: "u1", QueryVector: []float32{1, 0, 0}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)

	stats, err := reopened.GetRelationshipStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"friends": 1}, stats)
}
