package factory

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/adapters/index"
	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/core"
)

// IndexFactory creates vector indexes based on configuration
type IndexFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIndexFactory creates a new index factory
func NewIndexFactory(cfg *config.Config, logger *zap.Logger) *IndexFactory {
	return &IndexFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVectorIndex creates a vector index based on the configuration
func (f *IndexFactory) CreateVectorIndex() (core.VectorIndex, error) {
	indexConfig := f.cfg.GetIndex()
	dimensions := f.cfg.GetEmbedding().Dimensions
	defaultLimit := f.cfg.GetRetrieval().DefaultLimit

	switch indexConfig.Type {
	case "memory":
		return index.NewMemoryIndex(dimensions, defaultLimit, f.logger), nil
	case "chromem":
		// Ensure directory exists
		if err := os.MkdirAll(indexConfig.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		idx, err := index.NewChromemIndex(indexConfig.Path, dimensions, defaultLimit, f.logger)
		return idx, err
	default:
		return nil, fmt.Errorf("unsupported index type: %s", indexConfig.Type)
	}
}
