package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

const (
	metadataKeyRelationship = "relationship"
	metadataKeyMeta         = "meta"
)

// ChromemIndex is a persistent implementation of the VectorIndex interface
// backed by chromem-go, an embedded vector database. Each user gets its own
// collection, so cross-user leakage is impossible by construction.
type ChromemIndex struct {
	db           *chromem.DB
	registry     *registry
	logger       *zap.Logger
	dimensions   int
	defaultLimit int

	// mu serializes read-modify-write cycles (upsert, usage updates)
	mu sync.Mutex
}

// NewChromemIndex creates a persistent vector index rooted at path
func NewChromemIndex(path string, dimensions, defaultLimit int, logger *zap.Logger) (*ChromemIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", dimensions)
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem database: %w", err)
	}

	reg, err := loadRegistry(path)
	if err != nil {
		return nil, err
	}

	logger.Info("Chromem index initialized",
		zap.String("path", path),
		zap.Int("dimensions", dimensions))

	return &ChromemIndex{
		db:           db,
		registry:     reg,
		logger:       logger,
		dimensions:   dimensions,
		defaultLimit: defaultLimit,
	}, nil
}

// collectionName maps a user ID onto a valid chromem collection name
func collectionName(userID string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, userID)
	return "user-" + sanitized
}

// noEmbedding is passed to chromem so it never computes embeddings itself;
// every document and query carries a precomputed vector.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("index does not embed; vectors must be precomputed")
}

func (c *ChromemIndex) collection(userID string, create bool) (*chromem.Collection, error) {
	name := collectionName(userID)
	if create {
		col, err := c.db.GetOrCreateCollection(name, nil, noEmbedding)
		if err != nil {
			return nil, fmt.Errorf("failed to open collection for user %s: %w", userID, err)
		}
		return col, nil
	}
	return c.db.GetCollection(name, noEmbedding), nil
}

func (c *ChromemIndex) validate(example *core.StoredExample) error {
	if example.UserID == "" {
		return core.ErrMissingUserID
	}
	if example.ID == "" {
		return core.ErrMissingExampleID
	}
	if len(example.Vector) != c.dimensions {
		return fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(example.Vector), c.dimensions)
	}
	return nil
}

// Upsert stores an example, replacing any existing document with the same ID
func (c *ChromemIndex) Upsert(ctx context.Context, example *core.StoredExample) error {
	if err := c.validate(example); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.upsertLocked(ctx, example); err != nil {
		return err
	}
	if err := c.registry.save(); err != nil {
		c.logger.Error("Failed to persist index registry", zap.Error(err))
	}
	return nil
}

func (c *ChromemIndex) upsertLocked(ctx context.Context, example *core.StoredExample) error {
	col, err := c.collection(example.UserID, true)
	if err != nil {
		return err
	}

	meta, err := json.Marshal(example.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode example metadata: %w", err)
	}

	// drop any previous version so re-adding acts as a replace
	_ = col.Delete(ctx, nil, nil, example.ID)

	doc := chromem.Document{
		ID:      example.ID,
		Content: example.Metadata.ExtractedText,
		Metadata: map[string]string{
			metadataKeyRelationship: example.Metadata.Relationship.Type,
			metadataKeyMeta:         string(meta),
		},
		Embedding: example.Vector,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	c.registry.put(example.UserID, example.ID, example.Metadata.Relationship.Type)
	return nil
}

// UpsertBatch stores many examples; an empty batch is a no-op. Per-item
// failures are collected, not raised.
func (c *ChromemIndex) UpsertBatch(ctx context.Context, examples []*core.StoredExample) (*core.BatchUpsertResult, error) {
	result := &core.BatchUpsertResult{}
	if len(examples) == 0 {
		return result, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, example := range examples {
		if err := ctx.Err(); err != nil {
			result.Incomplete = true
			break
		}
		if err := c.validate(example); err != nil {
			result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
			continue
		}
		if err := c.upsertLocked(ctx, example); err != nil {
			result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
			continue
		}
		result.UpsertedIDs = append(result.UpsertedIDs, example.ID)
	}

	if err := c.registry.save(); err != nil {
		c.logger.Error("Failed to persist index registry", zap.Error(err))
	}
	return result, nil
}

// Search returns examples ranked by descending cosine similarity,
// intersecting every supplied filter
func (c *ChromemIndex) Search(ctx context.Context, query *core.SearchQuery) ([]*core.RetrievedExample, error) {
	if query.UserID == "" {
		return nil, core.ErrMissingUserID
	}
	if len(query.QueryVector) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(query.QueryVector), c.dimensions)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}

	col, err := c.collection(query.UserID, false)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return []*core.RetrievedExample{}, nil
	}
	count := col.Count()
	if count == 0 {
		return []*core.RetrievedExample{}, nil
	}

	// Date-range, exclusion and threshold filtering happen after the vector
	// query, so fetch the whole candidate set whenever such a filter is
	// present; chromem only intersects equality filters natively.
	fetch := limit
	if query.DateRange != nil || len(query.ExcludeIDs) > 0 || query.ScoreThreshold != nil {
		fetch = count
	}
	if fetch > count {
		fetch = count
	}

	var where map[string]string
	if query.Relationship != "" {
		where = map[string]string{metadataKeyRelationship: query.Relationship}
	}

	hits, err := col.QueryEmbedding(ctx, query.QueryVector, fetch, where, nil)
	if err != nil {
		// chromem rejects nResults larger than the filtered candidate set;
		// retry once with a conservative fetch size
		if fetch > 1 && strings.Contains(err.Error(), "nResults") {
			return c.retrySearch(ctx, col, query, where, limit)
		}
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	return c.filterHits(hits, query, limit)
}

// retrySearch steps the fetch size down until chromem accepts it. Needed
// because the filtered candidate count is not observable up front.
func (c *ChromemIndex) retrySearch(ctx context.Context, col *chromem.Collection, query *core.SearchQuery, where map[string]string, limit int) ([]*core.RetrievedExample, error) {
	fetch := col.Count() / 2
	for fetch >= 1 {
		hits, err := col.QueryEmbedding(ctx, query.QueryVector, fetch, where, nil)
		if err == nil {
			return c.filterHits(hits, query, limit)
		}
		if !strings.Contains(err.Error(), "nResults") {
			return nil, fmt.Errorf("failed to query collection: %w", err)
		}
		fetch /= 2
	}
	return []*core.RetrievedExample{}, nil
}

func (c *ChromemIndex) filterHits(hits []chromem.Result, query *core.SearchQuery, limit int) ([]*core.RetrievedExample, error) {
	excluded := make(map[string]struct{}, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	results := []*core.RetrievedExample{}
	for _, hit := range hits {
		if _, ok := excluded[hit.ID]; ok {
			continue
		}
		score := float64(hit.Similarity)
		if query.ScoreThreshold != nil && score < *query.ScoreThreshold {
			continue
		}
		meta, err := decodeMetadata(hit.Metadata)
		if err != nil {
			c.logger.Warn("Skipping result with unreadable metadata",
				zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		if dr := query.DateRange; dr != nil {
			if meta.SentDate.Before(dr.Start) || meta.SentDate.After(dr.End) {
				continue
			}
		}
		results = append(results, &core.RetrievedExample{
			ID:       hit.ID,
			Score:    score,
			Metadata: *meta,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func decodeMetadata(raw map[string]string) (*core.ExampleMetadata, error) {
	var meta core.ExampleMetadata
	if err := json.Unmarshal([]byte(raw[metadataKeyMeta]), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode example metadata: %w", err)
	}
	return &meta, nil
}

// FindNearDuplicates returns stored examples at or above the similarity
// threshold
func (c *ChromemIndex) FindNearDuplicates(ctx context.Context, userID string, vector []float32, threshold float64) ([]*core.RetrievedExample, error) {
	return c.Search(ctx, &core.SearchQuery{
		UserID:         userID,
		QueryVector:    vector,
		ScoreThreshold: &threshold,
		Limit:          c.defaultLimit,
	})
}

// GetByRelationship returns up to limit examples with the given
// relationship type, most recent first
func (c *ChromemIndex) GetByRelationship(ctx context.Context, userID, relationshipType string, limit int) ([]*core.RetrievedExample, error) {
	if userID == "" {
		return nil, core.ErrMissingUserID
	}
	if limit <= 0 {
		limit = c.defaultLimit
	}

	col, err := c.collection(userID, false)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return []*core.RetrievedExample{}, nil
	}

	results := []*core.RetrievedExample{}
	for _, id := range c.registry.idsByRelationship(userID, relationshipType) {
		doc, err := col.GetByID(ctx, id)
		if err != nil {
			continue
		}
		meta, err := decodeMetadata(doc.Metadata)
		if err != nil {
			continue
		}
		results = append(results, &core.RetrievedExample{ID: id, Metadata: *meta})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Metadata.SentDate.After(results[j].Metadata.SentDate)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetRelationshipStats returns per-relationship example counts; values sum
// to the user's total
func (c *ChromemIndex) GetRelationshipStats(ctx context.Context, userID string) (map[string]int, error) {
	if userID == "" {
		return nil, core.ErrMissingUserID
	}
	return c.registry.stats(userID), nil
}

// DeleteUserData drops the user's collection and registry entries
func (c *ChromemIndex) DeleteUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrMissingUserID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.db.DeleteCollection(collectionName(userID)); err != nil {
		return fmt.Errorf("failed to delete collection for user %s: %w", userID, err)
	}
	c.registry.deleteUser(userID)
	if err := c.registry.save(); err != nil {
		c.logger.Error("Failed to persist index registry", zap.Error(err))
	}
	c.logger.Info("Deleted user collection", zap.String("user_id", userID))
	return nil
}

// UpdateUsageStats merges usage feedback into the referenced examples
// without touching vectors or other metadata. Unknown vector IDs are
// silently ignored.
func (c *ChromemIndex) UpdateUsageStats(ctx context.Context, updates []core.UsageUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, update := range updates {
		userID, ok := c.registry.findUser(update.VectorID)
		if !ok {
			continue
		}
		col, err := c.collection(userID, false)
		if err != nil || col == nil {
			continue
		}
		doc, err := col.GetByID(ctx, update.VectorID)
		if err != nil {
			continue
		}
		meta, err := decodeMetadata(doc.Metadata)
		if err != nil {
			c.logger.Warn("Skipping usage update with unreadable metadata",
				zap.String("id", update.VectorID), zap.Error(err))
			continue
		}

		mergeUsage(&meta.Usage, update, now)

		encoded, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to encode example metadata: %w", err)
		}
		doc.Metadata[metadataKeyMeta] = string(encoded)

		if err := col.Delete(ctx, nil, nil, doc.ID); err != nil {
			return fmt.Errorf("failed to replace document %s: %w", doc.ID, err)
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to re-add document %s: %w", doc.ID, err)
		}
	}
	return nil
}
