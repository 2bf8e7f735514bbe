package gemini

import (
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// Factory creates Gemini embedders
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Gemini factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbedder creates a new GeminiEmbedder
func (f *Factory) CreateEmbedder() (*GeminiEmbedder, error) {
	geminiCfg := f.cfg.GetGemini()
	embeddingCfg := f.cfg.GetEmbedding()

	return NewGeminiEmbedder(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		embeddingCfg.Dimensions,
		embeddingCfg.BatchSize,
		embeddingCfg.MaxTextSize,
		f.logger,
		f.textProcessor,
	)
}
