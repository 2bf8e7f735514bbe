package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/adapters/usage"
	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/core"
)

// UsageStoreFactory creates usage stores based on configuration
type UsageStoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewUsageStoreFactory creates a new usage store factory
func NewUsageStoreFactory(cfg *config.Config, logger *zap.Logger) *UsageStoreFactory {
	return &UsageStoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateUsageStore creates a usage store based on the configuration
func (f *UsageStoreFactory) CreateUsageStore() (core.UsageStore, error) {
	usageConfig := f.cfg.GetUsage()

	offerTTL, err := f.cfg.GetDuration("usage.offer_ttl")
	if err != nil {
		return nil, fmt.Errorf("invalid usage offer TTL: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("usage.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid usage cleanup frequency: %w", err)
	}

	switch usageConfig.Store {
	case "memory":
		return usage.NewMemoryStore(f.logger, offerTTL, cleanupFreq), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(usageConfig.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		store, err := usage.NewSQLiteStore(usageConfig.SQLitePath, f.logger, offerTTL, cleanupFreq)
		return store, err
	case "mysql":
		store, err := usage.NewMySQLStore(usageConfig.MySQLDSN, f.logger, offerTTL, cleanupFreq)
		return store, err
	default:
		return nil, fmt.Errorf("unsupported usage store: %s", usageConfig.Store)
	}
}
