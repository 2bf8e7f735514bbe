package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
)

// MySQLStore is a MySQL implementation of the UsageStore interface
type MySQLStore struct {
	db          *sql.DB
	logger      *zap.Logger
	offerTTL    time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLStore creates a new MySQL usage store
func NewMySQLStore(dsn string, logger *zap.Logger, offerTTL, cleanupFreq time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create tables if they don't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS example_offers (
			draft_id VARCHAR(64),
			user_id VARCHAR(255),
			example_id VARCHAR(64),
			offered_at TIMESTAMP,
			expires_at TIMESTAMP,
			PRIMARY KEY (draft_id, example_id),
			INDEX idx_offers_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create offers table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS example_feedback (
			draft_id VARCHAR(64),
			example_id VARCHAR(64),
			rating FLOAT,
			created_at TIMESTAMP,
			INDEX idx_feedback_example_id (example_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create feedback table: %w", err)
	}

	store := &MySQLStore{
		db:          db,
		logger:      logger,
		offerTTL:    offerTTL,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go store.startCleanupTask()

	return store, nil
}

// RecordOffers records that these examples were offered for a draft
func (s *MySQLStore) RecordOffers(ctx context.Context, draftID, userID string, exampleIDs []string) error {
	now := time.Now()
	expiresAt := now.Add(s.offerTTL)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, id := range exampleIDs {
		_, err := tx.ExecContext(ctx, `
			REPLACE INTO example_offers (draft_id, user_id, example_id, offered_at, expires_at)
			VALUES (?, ?, ?, ?, ?)
		`, draftID, userID, id, now, expiresAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert offer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit offers: %w", err)
	}

	return nil
}

// RecordFeedback records a derived rating for one example
func (s *MySQLStore) RecordFeedback(ctx context.Context, draftID, exampleID string, rating float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO example_feedback (draft_id, example_id, rating, created_at)
		VALUES (?, ?, ?, ?)
	`, draftID, exampleID, rating, time.Now())

	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	return nil
}

// GetEffectiveness returns the mean rating per example ID
func (s *MySQLStore) GetEffectiveness(ctx context.Context, exampleIDs []string) (map[string]float64, error) {
	result := make(map[string]float64, len(exampleIDs))
	for _, id := range exampleIDs {
		result[id] = core.EffectivenessNoData
	}
	if len(exampleIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT example_id, AVG(rating)
		FROM example_feedback
		WHERE example_id IN (` + placeholders(len(exampleIDs)) + `)
		GROUP BY example_id
	`
	args := make([]interface{}, len(exampleIDs))
	for i, id := range exampleIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var avg sql.NullFloat64
		if err := rows.Scan(&id, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		if avg.Valid {
			result[id] = avg.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback rows: %w", err)
	}

	return result, nil
}

// Cleanup removes expired offer rows
func (s *MySQLStore) Cleanup(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM example_offers
		WHERE expires_at <= NOW()
	`)

	if err != nil {
		return fmt.Errorf("failed to clean up expired offers: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Cleaned up expired offer rows", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired offers
func (s *MySQLStore) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database connection
func (s *MySQLStore) Stop() {
	close(s.stopCh)
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
