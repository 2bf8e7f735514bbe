package openai

import (
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// Factory creates new instances of OpenAIEmbedder
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAIEmbedder instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbedder creates a new OpenAIEmbedder
func (f *Factory) CreateEmbedder() (*OpenAIEmbedder, error) {
	openaiCfg := f.cfg.GetOpenAI()
	embeddingCfg := f.cfg.GetEmbedding()

	return NewOpenAIEmbedder(
		openaiCfg.APIKey,
		openaiCfg.ModelName,
		embeddingCfg.Dimensions,
		embeddingCfg.BatchSize,
		embeddingCfg.MaxTextSize,
		f.logger,
		f.textProcessor,
	), nil
}
