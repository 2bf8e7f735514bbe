package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

// effectivenessSmoothing is the weight of a new rating when folded into an
// existing effectiveness score
const effectivenessSmoothing = 0.3

// MemoryIndex is an in-memory implementation of the VectorIndex interface,
// intended for tests and single-process deployments without persistence.
type MemoryIndex struct {
	users        map[string]map[string]*core.StoredExample
	mu           sync.RWMutex
	logger       *zap.Logger
	dimensions   int
	defaultLimit int
}

// NewMemoryIndex creates a new in-memory vector index
func NewMemoryIndex(dimensions, defaultLimit int, logger *zap.Logger) *MemoryIndex {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &MemoryIndex{
		users:        make(map[string]map[string]*core.StoredExample),
		logger:       logger,
		dimensions:   dimensions,
		defaultLimit: defaultLimit,
	}
}

func (m *MemoryIndex) validate(example *core.StoredExample) error {
	if example.UserID == "" {
		return core.ErrMissingUserID
	}
	if example.ID == "" {
		return core.ErrMissingExampleID
	}
	if len(example.Vector) != m.dimensions {
		return fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(example.Vector), m.dimensions)
	}
	return nil
}

// Upsert stores an example, replacing any existing example with the same ID
func (m *MemoryIndex) Upsert(ctx context.Context, example *core.StoredExample) error {
	if err := m.validate(example); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	namespace, ok := m.users[example.UserID]
	if !ok {
		namespace = make(map[string]*core.StoredExample)
		m.users[example.UserID] = namespace
	}
	stored := *example
	stored.Vector = append([]float32(nil), example.Vector...)
	namespace[example.ID] = &stored
	return nil
}

// UpsertBatch stores many examples; an empty batch is a no-op. Items that
// fail validation are collected per index, the rest are stored.
func (m *MemoryIndex) UpsertBatch(ctx context.Context, examples []*core.StoredExample) (*core.BatchUpsertResult, error) {
	result := &core.BatchUpsertResult{}
	for i, example := range examples {
		if err := ctx.Err(); err != nil {
			result.Incomplete = true
			return result, nil
		}
		if err := m.Upsert(ctx, example); err != nil {
			result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
			continue
		}
		result.UpsertedIDs = append(result.UpsertedIDs, example.ID)
	}
	return result, nil
}

// Search returns examples ranked by descending cosine similarity,
// intersecting every supplied filter
func (m *MemoryIndex) Search(ctx context.Context, query *core.SearchQuery) ([]*core.RetrievedExample, error) {
	if query.UserID == "" {
		return nil, core.ErrMissingUserID
	}
	if len(query.QueryVector) != m.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(query.QueryVector), m.dimensions)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = m.defaultLimit
	}

	excluded := make(map[string]struct{}, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []*core.RetrievedExample{}
	for _, example := range m.users[query.UserID] {
		if query.Relationship != "" && example.Metadata.Relationship.Type != query.Relationship {
			continue
		}
		if dr := query.DateRange; dr != nil {
			if example.Metadata.SentDate.Before(dr.Start) || example.Metadata.SentDate.After(dr.End) {
				continue
			}
		}
		if _, ok := excluded[example.ID]; ok {
			continue
		}
		score := cosineSimilarity(query.QueryVector, example.Vector)
		if query.ScoreThreshold != nil && score < *query.ScoreThreshold {
			continue
		}
		results = append(results, &core.RetrievedExample{
			ID:       example.ID,
			Score:    score,
			Metadata: example.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindNearDuplicates returns stored examples at or above the similarity
// threshold
func (m *MemoryIndex) FindNearDuplicates(ctx context.Context, userID string, vector []float32, threshold float64) ([]*core.RetrievedExample, error) {
	return m.Search(ctx, &core.SearchQuery{
		UserID:         userID,
		QueryVector:    vector,
		ScoreThreshold: &threshold,
		Limit:          m.defaultLimit,
	})
}

// GetByRelationship returns up to limit examples with the given
// relationship type, most recent first
func (m *MemoryIndex) GetByRelationship(ctx context.Context, userID, relationshipType string, limit int) ([]*core.RetrievedExample, error) {
	if userID == "" {
		return nil, core.ErrMissingUserID
	}
	if limit <= 0 {
		limit = m.defaultLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []*core.RetrievedExample{}
	for _, example := range m.users[userID] {
		if example.Metadata.Relationship.Type != relationshipType {
			continue
		}
		results = append(results, &core.RetrievedExample{
			ID:       example.ID,
			Score:    0,
			Metadata: example.Metadata,
		})
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
func (m *MemoryIndex) GetRelationshipStats(ctx context.Context, userID string) (map[string]int, error) {
	if userID == "" {
		return nil, core.ErrMissingUserID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, example := range m.users[userID] {
		stats[example.Metadata.Relationship.Type]++
	}
	return stats, nil
}

// DeleteUserData removes every example for the user
func (m *MemoryIndex) DeleteUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return core.ErrMissingUserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, userID)
	m.logger.Debug("Deleted user namespace", zap.String("user_id", userID))
	return nil
}

// UpdateUsageStats merges usage feedback into the referenced examples.
// Unknown vector IDs are silently ignored.
func (m *MemoryIndex) UpdateUsageStats(ctx context.Context, updates []core.UsageUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, update := range updates {
		example := m.findByID(update.VectorID)
		if example == nil {
			continue
		}
		mergeUsage(&example.Metadata.Usage, update, now)
	}
	return nil
}

func (m *MemoryIndex) findByID(id string) *core.StoredExample {
	for _, namespace := range m.users {
		if example, ok := namespace[id]; ok {
			return example
		}
	}
	return nil
}

// mergeUsage applies one usage update to a usage sub-record. Shared by both
// index implementations so the effectiveness fold stays identical.
func mergeUsage(usage *core.UsageStats, update core.UsageUpdate, now time.Time) {
	if update.WasUsed {
		usage.TimesUsed++
		t := now
		usage.LastUsedAt = &t
	}
	if update.UserRating != nil {
		rating := *update.UserRating
		if usage.EffectivenessScore == nil {
			usage.EffectivenessScore = &rating
		} else {
			folded := (1-effectivenessSmoothing)*(*usage.EffectivenessScore) + effectivenessSmoothing*rating
			usage.EffectivenessScore = &folded
		}
	}
}
