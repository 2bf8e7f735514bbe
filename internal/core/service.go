package core

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// FeatureExtractor turns raw email text into EmailFeatures. It is pure and
// total: it never fails.
type FeatureExtractor interface {
	Extract(text string, hint *RecipientHint) *EmailFeatures
}

// RelationshipResolver assigns a relationship category to an email, either
// from a configured recipient override or from the linguistic signal.
type RelationshipResolver interface {
	Resolve(recipientEmail string, level FamiliarityLevel) RelationshipTag
}

// IngestError reports a single failed email inside an ingestion batch,
// identified by its email ID rather than a batch position
type IngestError struct {
	EmailID string
	Reason  string
}

// IngestResult summarizes one ingestion batch
type IngestResult struct {
	Stored            int
	SkippedShort      int
	SkippedDuplicates int
	Errors            []IngestError
	Incomplete        bool
}

// RetrievalService composes the feature extractor, the embedding provider
// and the vector index: it ingests historical sent emails and answers
// relationship-aware similarity queries.
type RetrievalService struct {
	extractor           FeatureExtractor
	embedder            EmbeddingProvider
	index               VectorIndex
	resolver            RelationshipResolver
	logger              *zap.Logger
	defaultLimit        int
	nearDupThreshold    float64
	minWordCount        int
	effectivenessWeight float64
}

// NewRetrievalService creates a new retrieval service
func NewRetrievalService(
	extractor FeatureExtractor,
	embedder EmbeddingProvider,
	index VectorIndex,
	resolver RelationshipResolver,
	logger *zap.Logger,
	defaultLimit int,
	nearDupThreshold float64,
	minWordCount int,
	effectivenessWeight float64,
) *RetrievalService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &RetrievalService{
		extractor:           extractor,
		embedder:            embedder,
		index:               index,
		resolver:            resolver,
		logger:              logger,
		defaultLimit:        defaultLimit,
		nearDupThreshold:    nearDupThreshold,
		minWordCount:        minWordCount,
		effectivenessWeight: effectivenessWeight,
	}
}

// IngestEmails feature-extracts, embeds and stores a batch of historical
// sent emails for one user. Per-item failures are collected in the result,
// not raised; a deadline abort returns completed work with Incomplete set.
func (s *RetrievalService) IngestEmails(ctx context.Context, emails []*SentEmail) (*IngestResult, error) {
	result := &IngestResult{}
	if len(emails) == 0 {
		return result, nil
	}
	for _, email := range emails {
		if email.UserID == "" {
			return nil, ErrMissingUserID
		}
	}

	recipientCounts := make(map[string]int, len(emails))
	for _, email := range emails {
		recipientCounts[email.RecipientEmail]++
	}

	type candidate struct {
		email    *SentEmail
		features *EmailFeatures
	}
	candidates := make([]candidate, 0, len(emails))
	texts := make([]string, 0, len(emails))
	for _, email := range emails {
		features := s.extractor.Extract(email.ExtractedText, &RecipientHint{Email: email.RecipientEmail})
		if features.Stats.WordCount < s.minWordCount {
			result.SkippedShort++
			s.logger.Debug("Skipping short email",
				zap.String("email_id", email.ID),
				zap.Int("word_count", features.Stats.WordCount))
			continue
		}
		candidates = append(candidates, candidate{email: email, features: features})
		texts = append(texts, email.ExtractedText)
	}
	if len(candidates) == 0 {
		return result, nil
	}

	embedded, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed ingestion batch: %w", err)
	}
	result.Incomplete = embedded.Incomplete
	for _, e := range embedded.Errors {
		ingestErr := IngestError{Reason: e.Reason}
		if e.Index >= 0 && e.Index < len(candidates) {
			ingestErr.EmailID = candidates[e.Index].email.ID
		}
		result.Errors = append(result.Errors, ingestErr)
	}

	examples := make([]*StoredExample, 0, len(candidates))
	for i, c := range candidates {
		vector := embedded.Embeddings[i]
		if vector == nil {
			continue
		}

		duplicates, err := s.index.FindNearDuplicates(ctx, c.email.UserID, vector, s.nearDupThreshold)
		if err != nil {
			s.logger.Warn("Near-duplicate check failed, storing anyway",
				zap.String("email_id", c.email.ID),
				zap.Error(err))
		} else if len(duplicates) > 0 {
			result.SkippedDuplicates++
			s.logger.Debug("Skipping near-duplicate email",
				zap.String("email_id", c.email.ID),
				zap.String("duplicate_of", duplicates[0].ID),
				zap.Float64("similarity", duplicates[0].Score))
			continue
		}

		examples = append(examples, s.buildExample(c.email, c.features, vector, recipientCounts, len(emails)))
	}

	if len(examples) == 0 {
		return result, nil
	}

	upserted, err := s.index.UpsertBatch(ctx, examples)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert ingestion batch: %w", err)
	}
	result.Stored = len(upserted.UpsertedIDs)
	for _, e := range upserted.Errors {
		ingestErr := IngestError{Reason: e.Reason}
		if e.Index >= 0 && e.Index < len(examples) {
			ingestErr.EmailID = examples[e.Index].ID
		}
		result.Errors = append(result.Errors, ingestErr)
	}
	result.Incomplete = result.Incomplete || upserted.Incomplete

	s.logger.Info("Ingested email batch",
		zap.String("user_id", emails[0].UserID),
		zap.Int("stored", result.Stored),
		zap.Int("skipped_short", result.SkippedShort),
		zap.Int("skipped_duplicates", result.SkippedDuplicates),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

func (s *RetrievalService) buildExample(email *SentEmail, features *EmailFeatures, vector []float32, recipientCounts map[string]int, batchSize int) *StoredExample {
	relationship := s.resolver.Resolve(email.RecipientEmail, features.RelationshipHints.FamiliarityLevel)

	frequency := 0.0
	if batchSize > 0 {
		frequency = float64(recipientCounts[email.RecipientEmail]) / float64(batchSize)
	}

	return &StoredExample{
		ID:     email.ID,
		UserID: email.UserID,
		Vector: vector,
		Metadata: ExampleMetadata{
			ExtractedText:  email.ExtractedText,
			RecipientEmail: email.RecipientEmail,
			Subject:        email.Subject,
			SentDate:       email.SentDate,
			Features: FeatureSnapshot{
				SentimentPrimary:     features.Sentiment.Primary,
				SentimentScore:       features.Sentiment.Score,
				Warmth:               features.TonalQualities.Warmth,
				Formality:            features.TonalQualities.Formality,
				Urgency:              features.TonalQualities.Urgency,
				FamiliarityLevel:     features.RelationshipHints.FamiliarityLevel,
				ContextType:          features.ContextType,
				VocabularyComplexity: features.LinguisticStyle.VocabularyComplexity,
			},
			Relationship:   relationship,
			FrequencyScore: frequency,
			WordCount:      features.Stats.WordCount,
		},
	}
}

// Search runs a filtered similarity query. Transient index failures degrade
// to an empty result set so a downstream generator can still run with fewer
// or no grounding examples; validation failures are returned to the caller.
func (s *RetrievalService) Search(ctx context.Context, query *SearchQuery) ([]*RetrievedExample, error) {
	if query.UserID == "" {
		return nil, ErrMissingUserID
	}
	if query.Limit <= 0 {
		query.Limit = s.defaultLimit
	}

	results, err := s.index.Search(ctx, query)
	if err != nil {
		s.logger.Error("Search failed, degrading to empty result",
			zap.String("user_id", query.UserID),
			zap.Error(err))
		return []*RetrievedExample{}, nil
	}

	return s.rankByEffectiveness(results), nil
}

// rankByEffectiveness biases similarity ranking by observed usefulness.
// Examples with no feedback keep their similarity rank.
func (s *RetrievalService) rankByEffectiveness(results []*RetrievedExample) []*RetrievedExample {
	if s.effectivenessWeight <= 0 {
		return results
	}
	ranked := make([]*RetrievedExample, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.biasedScore(ranked[i]) > s.biasedScore(ranked[j])
	})
	return ranked
}

func (s *RetrievalService) biasedScore(r *RetrievedExample) float64 {
	score := r.Score
	if eff := r.Metadata.Usage.EffectivenessScore; eff != nil {
		score += s.effectivenessWeight * (*eff - 0.5)
	}
	return score
}

// FindNearDuplicates checks whether stored content is nearly identical to
// the given vector, using the configured threshold when threshold <= 0
func (s *RetrievalService) FindNearDuplicates(ctx context.Context, userID string, vector []float32, threshold float64) ([]*RetrievedExample, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if threshold <= 0 {
		threshold = s.nearDupThreshold
	}
	return s.index.FindNearDuplicates(ctx, userID, vector, threshold)
}

// GetByRelationship returns stored examples for one relationship category
func (s *RetrievalService) GetByRelationship(ctx context.Context, userID, relationshipType string, limit int) ([]*RetrievedExample, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return s.index.GetByRelationship(ctx, userID, relationshipType, limit)
}

// GetRelationshipStats returns per-relationship example counts for a user
func (s *RetrievalService) GetRelationshipStats(ctx context.Context, userID string) (map[string]int, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.index.GetRelationshipStats(ctx, userID)
}

// DeleteUserData wipes every stored example for a user
func (s *RetrievalService) DeleteUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if err := s.index.DeleteUserData(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user data: %w", err)
	}
	s.logger.Info("Deleted all stored examples for user", zap.String("user_id", userID))
	return nil
}
