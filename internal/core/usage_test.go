package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsageStore struct {
	offers    map[string][]string // draftID -> example IDs
	feedback  map[string][]float64
	offersErr error
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{
		offers:   make(map[string][]string),
		feedback: make(map[string][]float64),
	}
}

func (f *fakeUsageStore) RecordOffers(ctx context.Context, draftID, userID string, exampleIDs []string) error {
	if f.offersErr != nil {
		return f.offersErr
	}
	f.offers[draftID] = append(f.offers[draftID], exampleIDs...)
	return nil
}

func (f *fakeUsageStore) RecordFeedback(ctx context.Context, draftID, exampleID string, rating float64) error {
	f.feedback[exampleID] = append(f.feedback[exampleID], rating)
	return nil
}

func (f *fakeUsageStore) GetEffectiveness(ctx context.Context, exampleIDs []string) (map[string]float64, error) {
	result := make(map[string]float64, len(exampleIDs))
	for _, id := range exampleIDs {
		ratings := f.feedback[id]
		if len(ratings) == 0 {
			result[id] = EffectivenessNoData
			continue
		}
		sum := 0.0
		for _, r := range ratings {
			sum += r
		}
		result[id] = sum / float64(len(ratings))
	}
	return result, nil
}

func (f *fakeUsageStore) Cleanup(ctx context.Context) error { return nil }

type fakeUsageIndex struct {
	VectorIndex
	updates []UsageUpdate
}

func (f *fakeUsageIndex) UpdateUsageStats(ctx context.Context, updates []UsageUpdate) error {
	f.updates = append(f.updates, updates...)
	return nil
}

func TestDeriveRatingAnchors(t *testing.T) {
	acceptedUnedited := DeriveRating(DraftFeedback{Accepted: true})
	acceptedSmallEdit := DeriveRating(DraftFeedback{Accepted: true, Edited: true, EditDistance: 0.05})
	acceptedMidEdit := DeriveRating(DraftFeedback{Accepted: true, Edited: true, EditDistance: 0.25})
	acceptedLargeEdit := DeriveRating(DraftFeedback{Accepted: true, Edited: true, EditDistance: 0.6})
	notAccepted := DeriveRating(DraftFeedback{Accepted: false})

	assert.Equal(t, 1.0, acceptedUnedited)
	assert.Equal(t, 0.9, acceptedSmallEdit)
	assert.Equal(t, 0.4, acceptedLargeEdit)
	assert.Equal(t, 0.2, notAccepted)

	// evidence quality orders the ratings
	assert.Greater(t, acceptedUnedited, acceptedSmallEdit)
	assert.Greater(t, acceptedSmallEdit, acceptedMidEdit)
	assert.Greater(t, acceptedMidEdit, acceptedLargeEdit)
	assert.Greater(t, acceptedLargeEdit, notAccepted)
}

func TestDeriveRatingInterpolation(t *testing.T) {
	// halfway between the small and large edit anchors
	mid := DeriveRating(DraftFeedback{Accepted: true, Edited: true, EditDistance: 0.25})
	assert.InDelta(t, 0.65, mid, 1e-9)
}

func TestDeriveRatingUserRatingAveragedIn(t *testing.T) {
	// accepted unedited (1.0) averaged with a 5-star rating (1.0) stays 1.0
	assert.Equal(t, 1.0, DeriveRating(DraftFeedback{Accepted: true, UserRating: 5}))

	// accepted unedited averaged with a 1-star rating (0.0) halves
	assert.InDelta(t, 0.5, DeriveRating(DraftFeedback{Accepted: true, UserRating: 1}), 1e-9)

	// out-of-range ratings are ignored
	assert.Equal(t, 1.0, DeriveRating(DraftFeedback{Accepted: true, UserRating: 6}))
	assert.Equal(t, 1.0, DeriveRating(DraftFeedback{Accepted: true, UserRating: 0}))
}

func TestTrackExampleUsage(t *testing.T) {
	store := newFakeUsageStore()
	tracker := NewUsageTracker(store, &fakeUsageIndex{}, zap.NewNop())

	tracker.TrackExampleUsage(context.Background(), "draft-1", "u1", []string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, store.offers["draft-1"])

	// empty draft ID and empty ID list are no-ops
	tracker.TrackExampleUsage(context.Background(), "", "u1", []string{"a"})
	tracker.TrackExampleUsage(context.Background(), "draft-2", "u1", nil)
	assert.Len(t, store.offers, 1)
}

func TestTrackExampleUsageSwallowsStoreErrors(t *testing.T) {
	store := newFakeUsageStore()
	store.offersErr = errors.New("store down")
	tracker := NewUsageTracker(store, &fakeUsageIndex{}, zap.NewNop())

	// must not panic or propagate
	tracker.TrackExampleUsage(context.Background(), "draft-1", "u1", []string{"a"})
}

func TestTrackExampleFeedback(t *testing.T) {
	store := newFakeUsageStore()
	index := &fakeUsageIndex{}
	tracker := NewUsageTracker(store, index, zap.NewNop())

	err := tracker.TrackExampleFeedback(context.Background(), "draft-1", []string{"a", "b"},
		DraftFeedback{Accepted: true})
	require.NoError(t, err)

	assert.Equal(t, []float64{1.0}, store.feedback["a"])
	assert.Equal(t, []float64{1.0}, store.feedback["b"])

	require.Len(t, index.updates, 2)
	for _, update := range index.updates {
		assert.True(t, update.WasUsed)
		require.NotNil(t, update.UserRating)
		assert.Equal(t, 1.0, *update.UserRating)
	}
}

func TestGetExampleEffectiveness(t *testing.T) {
	store := newFakeUsageStore()
	store.feedback["a"] = []float64{1.0, 0.5}
	tracker := NewUsageTracker(store, &fakeUsageIndex{}, zap.NewNop())

	eff, err := tracker.GetExampleEffectiveness(context.Background(), []string{"a", "missing"})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, eff["a"], 1e-9)
	assert.Equal(t, EffectivenessNoData, eff["missing"])

	empty, err := tracker.GetExampleEffectiveness(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
