package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// Factory creates Bedrock embedders
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbedder creates a new BedrockEmbedder
func (f *Factory) CreateEmbedder() (*BedrockEmbedder, error) {
	bedrockCfg := f.cfg.GetBedrock()
	embeddingCfg := f.cfg.GetEmbedding()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg)

	return NewBedrockEmbedder(
		client,
		bedrockCfg.ModelID,
		embeddingCfg.Dimensions,
		embeddingCfg.MaxTextSize,
		f.logger,
		f.textProcessor,
	), nil
}
