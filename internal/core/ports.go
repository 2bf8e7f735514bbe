package core

import (
	"context"
	"errors"
)

var (
	// ErrMissingUserID is returned when an operation is called without a user ID
	ErrMissingUserID = errors.New("user id is required")
	// ErrDimensionMismatch is returned when a vector does not match the configured dimensionality
	ErrDimensionMismatch = errors.New("vector dimensionality mismatch")
	// ErrMissingExampleID is returned when an example has no ID
	ErrMissingExampleID = errors.New("example id is required")
)

// EmbeddingProvider defines the interface for turning text into fixed-length
// vectors. Implementations talk to an external embedding service.
type EmbeddingProvider interface {
	// EmbedText embeds a single text
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds many texts, chunked internally. A single bad input
	// reports its own error and does not block the rest of the batch.
	EmbedBatch(ctx context.Context, texts []string) (*BatchEmbeddingResult, error)

	// Dimensions returns the fixed output vector length
	Dimensions() int
}

// VectorIndex defines the interface for the durable per-user store of
// (vector, metadata) pairs with filtered similarity search.
//
// Scores everywhere on this interface are cosine similarity in [-1, 1];
// 1.0 is a self-match.
type VectorIndex interface {
	// Upsert stores an example, idempotent by (UserID, ID)
	Upsert(ctx context.Context, example *StoredExample) error

	// UpsertBatch stores many examples; an empty batch is a no-op. Per-item
	// failures are collected, not raised.
	UpsertBatch(ctx context.Context, examples []*StoredExample) (*BatchUpsertResult, error)

	// Search returns examples ranked by descending similarity, intersecting
	// every supplied filter
	Search(ctx context.Context, query *SearchQuery) ([]*RetrievedExample, error)

	// FindNearDuplicates returns stored examples whose similarity to the
	// given vector is at or above threshold. The index has no dedup side
	// effect; the caller decides whether to skip ingestion.
	FindNearDuplicates(ctx context.Context, userID string, vector []float32, threshold float64) ([]*RetrievedExample, error)

	// GetByRelationship returns up to limit examples tagged with the given
	// relationship type
	GetByRelationship(ctx context.Context, userID, relationshipType string, limit int) ([]*RetrievedExample, error)

	// GetRelationshipStats returns per-relationship-type example counts; the
	// values sum to the user's total stored examples
	GetRelationshipStats(ctx context.Context, userID string) (map[string]int, error)

	// DeleteUserData removes every example for the user
	DeleteUserData(ctx context.Context, userID string) error

	// UpdateUsageStats merges usage feedback into the referenced examples
	// without touching vectors or other metadata. Unknown vector IDs are
	// silently ignored.
	UpdateUsageStats(ctx context.Context, updates []UsageUpdate) error
}

// EmailSource streams sent emails for ingestion
type EmailSource interface {
	// Next returns the next email, or io.EOF when the source is exhausted
	Next(ctx context.Context) (*SentEmail, error)

	// Close releases the underlying resource
	Close() error
}

// UsageStore is the event ledger behind the usage tracker: which examples
// were offered for which draft, and what feedback came back.
type UsageStore interface {
	// RecordOffers records that these examples were offered for a draft
	RecordOffers(ctx context.Context, draftID, userID string, exampleIDs []string) error

	// RecordFeedback records a derived rating for one example
	RecordFeedback(ctx context.Context, draftID, exampleID string, rating float64) error

	// GetEffectiveness returns the aggregated effectiveness per example ID.
	// IDs with no feedback map to EffectivenessNoData.
	GetEffectiveness(ctx context.Context, exampleIDs []string) (map[string]float64, error)

	// Cleanup removes expired offer rows
	Cleanup(ctx context.Context) error
}
