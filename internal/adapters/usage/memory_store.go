package usage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

// offerRecord is one offered example for one draft
type offerRecord struct {
	DraftID   string
	UserID    string
	ExampleID string
	OfferedAt time.Time
	ExpiresAt time.Time
}

// feedbackRecord is one derived rating for one example
type feedbackRecord struct {
	DraftID   string
	ExampleID string
	Rating    float64
	CreatedAt time.Time
}

// MemoryStore is an in-memory implementation of the UsageStore interface
type MemoryStore struct {
	offers      []offerRecord
	feedback    map[string][]feedbackRecord
	mu          sync.RWMutex
	logger      *zap.Logger
	offerTTL    time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryStore creates a new in-memory usage store
func NewMemoryStore(logger *zap.Logger, offerTTL, cleanupFreq time.Duration) *MemoryStore {
	store := &MemoryStore{
		feedback:    make(map[string][]feedbackRecord),
		logger:      logger,
		offerTTL:    offerTTL,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go store.startCleanupTask()

	return store
}

// RecordOffers records that these examples were offered for a draft
func (s *MemoryStore) RecordOffers(ctx context.Context, draftID, userID string, exampleIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, id := range exampleIDs {
		s.offers = append(s.offers, offerRecord{
			DraftID:   draftID,
			UserID:    userID,
			ExampleID: id,
			OfferedAt: now,
			ExpiresAt: now.Add(s.offerTTL),
		})
	}

	return nil
}

// RecordFeedback records a derived rating for one example
func (s *MemoryStore) RecordFeedback(ctx context.Context, draftID, exampleID string, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feedback[exampleID] = append(s.feedback[exampleID], feedbackRecord{
		DraftID:   draftID,
		ExampleID: exampleID,
		Rating:    rating,
		CreatedAt: time.Now(),
	})

	return nil
}

// GetEffectiveness returns the mean rating per example ID
func (s *MemoryStore) GetEffectiveness(ctx context.Context, exampleIDs []string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]float64, len(exampleIDs))
	for _, id := range exampleIDs {
		records := s.feedback[id]
		if len(records) == 0 {
			result[id] = core.EffectivenessNoData
			continue
		}
		sum := 0.0
		for _, rec := range records {
			sum += rec.Rating
		}
		result[id] = sum / float64(len(records))
	}

	return result, nil
}

// Cleanup removes expired offer records
func (s *MemoryStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	kept := s.offers[:0]
	expiredCount := 0

	for _, offer := range s.offers {
		if now.After(offer.ExpiresAt) {
			expiredCount++
			continue
		}
		kept = append(kept, offer)
	}
	s.offers = kept

	s.logger.Debug("Cleaned up expired offer records", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired offers
func (s *MemoryStore) startCleanupTask() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up usage store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (s *MemoryStore) Stop() {
	close(s.stopCh)
}
