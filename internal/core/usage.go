package core

import (
	"context"

	"go.uber.org/zap"
)

// Rating anchors for the derived effectiveness rating. The rating is
// monotonic in evidence quality:
// no-edit-accepted > small-edit-accepted > large-edit-accepted > not-accepted.
const (
	ratingAcceptedUnedited  = 1.0
	ratingAcceptedSmallEdit = 0.9
	ratingAcceptedLargeEdit = 0.4
	ratingNotAccepted       = 0.2

	smallEditDistance = 0.1
	largeEditDistance = 0.4
)

// UsageTracker records which retrieved examples were offered for a draft
// and folds user feedback back into each example's effectiveness score.
type UsageTracker struct {
	store  UsageStore
	index  VectorIndex
	logger *zap.Logger
}

// NewUsageTracker creates a new usage tracker
func NewUsageTracker(store UsageStore, index VectorIndex, logger *zap.Logger) *UsageTracker {
	return &UsageTracker{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// TrackExampleUsage records that these examples were offered for a draft.
// It is fire-and-forget: failures are logged, never returned, because a
// tracking problem must not fail draft generation.
func (t *UsageTracker) TrackExampleUsage(ctx context.Context, draftID, userID string, exampleIDs []string) {
	if draftID == "" || len(exampleIDs) == 0 {
		return
	}
	if err := t.store.RecordOffers(ctx, draftID, userID, exampleIDs); err != nil {
		t.logger.Warn("Failed to record example offers",
			zap.String("draft_id", draftID),
			zap.Int("example_count", len(exampleIDs)),
			zap.Error(err))
	}
}

// TrackExampleFeedback converts edit/acceptance feedback into a derived
// rating, records it, and merges it into each example's usage metadata.
func (t *UsageTracker) TrackExampleFeedback(ctx context.Context, draftID string, exampleIDs []string, feedback DraftFeedback) error {
	if len(exampleIDs) == 0 {
		return nil
	}

	rating := DeriveRating(feedback)

	updates := make([]UsageUpdate, 0, len(exampleIDs))
	for _, id := range exampleIDs {
		if err := t.store.RecordFeedback(ctx, draftID, id, rating); err != nil {
			t.logger.Warn("Failed to record feedback",
				zap.String("draft_id", draftID),
				zap.String("example_id", id),
				zap.Error(err))
		}
		editDistance := feedback.EditDistance
		updates = append(updates, UsageUpdate{
			VectorID:     id,
			WasUsed:      true,
			WasEdited:    feedback.Edited,
			EditDistance: &editDistance,
			UserRating:   &rating,
		})
	}

	if err := t.index.UpdateUsageStats(ctx, updates); err != nil {
		return err
	}

	t.logger.Debug("Recorded example feedback",
		zap.String("draft_id", draftID),
		zap.Int("example_count", len(exampleIDs)),
		zap.Float64("rating", rating))
	return nil
}

// GetExampleEffectiveness returns the current effectiveness per example ID.
// IDs with no recorded feedback map to EffectivenessNoData.
func (t *UsageTracker) GetExampleEffectiveness(ctx context.Context, exampleIDs []string) (map[string]float64, error) {
	if len(exampleIDs) == 0 {
		return map[string]float64{}, nil
	}
	return t.store.GetEffectiveness(ctx, exampleIDs)
}

// DeriveRating maps edit/acceptance feedback onto the rating anchors.
// Edit distances between the anchors interpolate linearly. An explicit user
// rating (1-5) is normalized and averaged with the derived value.
func DeriveRating(feedback DraftFeedback) float64 {
	var rating float64
	switch {
	case !feedback.Accepted:
		rating = ratingNotAccepted
	case !feedback.Edited:
		rating = ratingAcceptedUnedited
	default:
		rating = editRating(feedback.EditDistance)
	}

	if feedback.UserRating >= 1 && feedback.UserRating <= 5 {
		normalized := float64(feedback.UserRating-1) / 4.0
		rating = (rating + normalized) / 2
	}

	if rating < 0 {
		return 0
	}
	if rating > 1 {
		return 1
	}
	return rating
}

func editRating(distance float64) float64 {
	switch {
	case distance <= smallEditDistance:
		return ratingAcceptedSmallEdit
	case distance >= largeEditDistance:
		return ratingAcceptedLargeEdit
	default:
		span := largeEditDistance - smallEditDistance
		return ratingAcceptedSmallEdit - (distance-smallEditDistance)/span*(ratingAcceptedSmallEdit-ratingAcceptedLargeEdit)
	}
}
