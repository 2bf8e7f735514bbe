package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(text string, hint *RecipientHint) *EmailFeatures {
	return &EmailFeatures{
		Sentiment:         Sentiment{Primary: SentimentNeutral},
		RelationshipHints: RelationshipHints{FamiliarityLevel: FamiliarityProfessional},
		ContextType:       ContextOther,
		Stats:             TextStats{WordCount: len(strings.Fields(text))},
	}
}

type fakeResolver struct{}

func (fakeResolver) Resolve(recipientEmail string, level FamiliarityLevel) RelationshipTag {
	return RelationshipTag{Type: "colleagues", Confidence: 0.6, DetectionMethod: "linguistic"}
}

// fakeEmbedder derives a deterministic vector from the text length
type fakeEmbedder struct {
	failTexts map[string]bool
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if f.failTexts[text] {
		return nil, errors.New("embedding failed")
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) (*BatchEmbeddingResult, error) {
	result := &BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		vec, err := f.EmbedText(ctx, text)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{Index: i, Reason: err.Error()})
			continue
		}
		result.Embeddings[i] = vec
	}
	return result, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

// fakeIndex is a minimal VectorIndex for service tests
type fakeIndex struct {
	examples      map[string]*StoredExample
	searchResults []*RetrievedExample
	searchErr     error
	dupVectors    [][]float32
	upsertFailIDs map[string]bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{examples: make(map[string]*StoredExample)}
}

func (f *fakeIndex) Upsert(ctx context.Context, example *StoredExample) error {
	f.examples[example.ID] = example
	return nil
}

func (f *fakeIndex) UpsertBatch(ctx context.Context, examples []*StoredExample) (*BatchUpsertResult, error) {
	result := &BatchUpsertResult{}
	for i, example := range examples {
		if f.upsertFailIDs[example.ID] {
			result.Errors = append(result.Errors, BatchError{Index: i, Reason: "upsert failed"})
			continue
		}
		f.examples[example.ID] = example
		result.UpsertedIDs = append(result.UpsertedIDs, example.ID)
	}
	return result, nil
}

func (f *fakeIndex) Search(ctx context.Context, query *SearchQuery) ([]*RetrievedExample, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeIndex) FindNearDuplicates(ctx context.Context, userID string, vector []float32, threshold float64) ([]*RetrievedExample, error) {
	for _, dup := range f.dupVectors {
		if fmt.Sprint(dup) == fmt.Sprint(vector) {
			return []*RetrievedExample{{ID: "existing", Score: 0.99}}, nil
		}
	}
	return nil, nil
}

func (f *fakeIndex) GetByRelationship(ctx context.Context, userID, relationshipType string, limit int) ([]*RetrievedExample, error) {
	return nil, nil
}

func (f *fakeIndex) GetRelationshipStats(ctx context.Context, userID string) (map[string]int, error) {
	return map[string]int{}, nil
}

func (f *fakeIndex) DeleteUserData(ctx context.Context, userID string) error { return nil }

func (f *fakeIndex) UpdateUsageStats(ctx context.Context, updates []UsageUpdate) error { return nil }

func newTestService(index VectorIndex, embedder EmbeddingProvider) *RetrievalService {
	return NewRetrievalService(fakeExtractor{}, embedder, index, fakeResolver{},
		zap.NewNop(), 10, 0.95, 3, 0.1)
}

func testEmail(id, userID, recipient, text string) *SentEmail {
	return &SentEmail{
		ID:             id,
		UserID:         userID,
		RecipientEmail: recipient,
		Subject:        "subject",
		SentDate:       time.Now(),
		ExtractedText:  text,
	}
}

func TestIngestEmailsStoresExamples(t *testing.T) {
	index := newFakeIndex()
	service := newTestService(index, &fakeEmbedder{})

	result, err := service.IngestEmails(context.Background(), []*SentEmail{
		testEmail("a", "u1", "pat@example.com", "hello there my friend"),
		testEmail("b", "u1", "pat@example.com", "another long enough email"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stored)
	assert.Equal(t, 0, result.SkippedShort)
	assert.Empty(t, result.Errors)

	stored := index.examples["a"]
	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, "colleagues", stored.Metadata.Relationship.Type)
	assert.Equal(t, 4, stored.Metadata.WordCount)
	// both emails went to the same recipient
	assert.InDelta(t, 1.0, stored.Metadata.FrequencyScore, 1e-9)
}

func TestIngestEmailsSkipsShort(t *testing.T) {
	index := newFakeIndex()
	service := newTestService(index, &fakeEmbedder{})

	result, err := service.IngestEmails(context.Background(), []*SentEmail{
		testEmail("short", "u1", "pat@example.com", "ok thanks"),
		testEmail("long", "u1", "pat@example.com", "this one has enough words"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, result.SkippedShort)
	assert.NotContains(t, index.examples, "short")
}

func TestIngestEmailsSkipsNearDuplicates(t *testing.T) {
	index := newFakeIndex()
	text := "a perfectly ordinary email body"
	index.dupVectors = [][]float32{{float32(len(text)), 1, 0}}
	service := newTestService(index, &fakeEmbedder{})

	result, err := service.IngestEmails(context.Background(), []*SentEmail{
		testEmail("dup", "u1", "pat@example.com", text),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stored)
	assert.Equal(t, 1, result.SkippedDuplicates)
}

func TestIngestEmailsCollectsEmbeddingErrors(t *testing.T) {
	index := newFakeIndex()
	embedder := &fakeEmbedder{failTexts: map[string]bool{"this email cannot be embedded": true}}
	service := newTestService(index, embedder)

	result, err := service.IngestEmails(context.Background(), []*SentEmail{
		testEmail("bad", "u1", "pat@example.com", "this email cannot be embedded"),
		testEmail("good", "u1", "pat@example.com", "this email embeds just fine"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad", result.Errors[0].EmailID)
}

func TestIngestErrorsNameTheFailingEmail(t *testing.T) {
	badEmbedText := "this text refuses to embed properly"
	dupText := "an email body we already stored once"

	index := newFakeIndex()
	index.dupVectors = [][]float32{{float32(len(dupText)), 1, 0}}
	index.upsertFailIDs = map[string]bool{"bad-upsert": true}
	embedder := &fakeEmbedder{failTexts: map[string]bool{badEmbedText: true}}
	service := newTestService(index, embedder)

	// Skips before each failure shift the batch positions, so the reported
	// errors must identify emails by ID, not position.
	result, err := service.IngestEmails(context.Background(), []*SentEmail{
		testEmail("tiny", "u1", "pat@example.com", "ok thanks"),
		testEmail("bad-embed", "u1", "pat@example.com", badEmbedText),
		testEmail("dup", "u1", "pat@example.com", dupText),
		testEmail("bad-upsert", "u1", "pat@example.com", "this email fails only at the upsert stage"),
		testEmail("good", "u1", "pat@example.com", "a perfectly good email body"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, 1, result.SkippedShort)
	assert.Equal(t, 1, result.SkippedDuplicates)

	require.Len(t, result.Errors, 2)
	failedIDs := []string{result.Errors[0].EmailID, result.Errors[1].EmailID}
	assert.Contains(t, failedIDs, "bad-embed")
	assert.Contains(t, failedIDs, "bad-upsert")
	assert.Contains(t, index.examples, "good")
}

func TestIngestEmailsRequiresUserID(t *testing.T) {
	service := newTestService(newFakeIndex(), &fakeEmbedder{})

	_, err := service.IngestEmails(context.Background(), []*SentEmail{
		testEmail("a", "", "pat@example.com", "some email body text here"),
	})
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestIngestEmailsEmptyBatch(t *testing.T) {
	service := newTestService(newFakeIndex(), &fakeEmbedder{})

	result, err := service.IngestEmails(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stored)
}

func TestSearchDegradesOnIndexError(t *testing.T) {
	index := newFakeIndex()
	index.searchErr = errors.New("index unavailable")
	service := newTestService(index, &fakeEmbedder{})

	results, err := service.Search(context.Background(), &SearchQuery{
		UserID:      "u1",
		QueryVector: []float32{1, 0, 0},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRequiresUserID(t *testing.T) {
	service := newTestService(newFakeIndex(), &fakeEmbedder{})

	_, err := service.Search(context.Background(), &SearchQuery{QueryVector: []float32{1, 0, 0}})
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestSearchRanksByEffectiveness(t *testing.T) {
	low := 0.1
	high := 0.9
	index := newFakeIndex()
	index.searchResults = []*RetrievedExample{
		{ID: "similar-but-useless", Score: 0.80, Metadata: ExampleMetadata{Usage: UsageStats{EffectivenessScore: &low}}},
		{ID: "slightly-less-similar-but-useful", Score: 0.79, Metadata: ExampleMetadata{Usage: UsageStats{EffectivenessScore: &high}}},
		{ID: "no-feedback", Score: 0.78},
	}
	service := newTestService(index, &fakeEmbedder{})

	results, err := service.Search(context.Background(), &SearchQuery{
		UserID:      "u1",
		QueryVector: []float32{1, 0, 0},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	// 0.79 + 0.1*(0.9-0.5) = 0.83 beats 0.80 + 0.1*(0.1-0.5) = 0.76
	assert.Equal(t, "slightly-less-similar-but-useful", results[0].ID)
	assert.Equal(t, "no-feedback", results[1].ID)
	assert.Equal(t, "similar-but-useless", results[2].ID)
}

func TestFindNearDuplicatesUsesConfiguredThreshold(t *testing.T) {
	service := newTestService(newFakeIndex(), &fakeEmbedder{})

	_, err := service.FindNearDuplicates(context.Background(), "", []float32{1, 0, 0}, 0)
	assert.ErrorIs(t, err, ErrMissingUserID)

	dups, err := service.FindNearDuplicates(context.Background(), "u1", []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestDeleteUserDataRequiresUserID(t *testing.T) {
	service := newTestService(newFakeIndex(), &fakeEmbedder{})

	assert.ErrorIs(t, service.DeleteUserData(context.Background(), ""), ErrMissingUserID)
	assert.NoError(t, service.DeleteUserData(context.Background(), "u1"))
}
