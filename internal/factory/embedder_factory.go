package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/adapters/bedrock"
	"github.com/mikey/voice-retrieval/internal/adapters/gemini"
	"github.com/mikey/voice-retrieval/internal/adapters/openai"
	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/core"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// EmbedderFactory creates embedding providers
type EmbedderFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbedderFactory creates a new embedder factory
func NewEmbedderFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *EmbedderFactory {
	return &EmbedderFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbeddingProvider creates an embedding provider based on the
// configuration
func (f *EmbedderFactory) CreateEmbeddingProvider() (core.EmbeddingProvider, error) {
	embeddingConfig := f.cfg.GetEmbedding()

	switch embeddingConfig.Provider {
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		embedder, err := factory.CreateEmbedder()
		return embedder, err
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		embedder, err := factory.CreateEmbedder()
		return embedder, err
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		embedder, err := factory.CreateEmbedder()
		return embedder, err
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", embeddingConfig.Provider)
	}
}
