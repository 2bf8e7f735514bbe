package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/core"
	"github.com/mikey/voice-retrieval/internal/factory"
	"github.com/mikey/voice-retrieval/internal/features"
	"github.com/mikey/voice-retrieval/internal/logging"
	"github.com/mikey/voice-retrieval/internal/relmap"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEmbedderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewIndexFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewUsageStoreFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register embedding provider
	if err := container.Provide(func(f *factory.EmbedderFactory) (core.EmbeddingProvider, error) {
		return f.CreateEmbeddingProvider()
	}); err != nil {
		return nil, err
	}

	// Register vector index
	if err := container.Provide(func(f *factory.IndexFactory) (core.VectorIndex, error) {
		return f.CreateVectorIndex()
	}); err != nil {
		return nil, err
	}

	// Register usage store
	if err := container.Provide(func(f *factory.UsageStoreFactory) (core.UsageStore, error) {
		return f.CreateUsageStore()
	}); err != nil {
		return nil, err
	}

	// Register feature extractor
	if err := container.Provide(func() core.FeatureExtractor {
		return features.NewExtractor()
	}); err != nil {
		return nil, err
	}

	// Register relationship resolver
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.RelationshipResolver {
		return relmap.NewResolver(cfg.GetRelationshipOverrides(), logger)
	}); err != nil {
		return nil, err
	}

	// Register retrieval service
	if err := container.Provide(func(
		extractor core.FeatureExtractor,
		embedder core.EmbeddingProvider,
		index core.VectorIndex,
		resolver core.RelationshipResolver,
		logger *zap.Logger,
		cfg *config.Config,
	) *core.RetrievalService {
		retrievalConfig := cfg.GetRetrieval()
		return core.NewRetrievalService(
			extractor,
			embedder,
			index,
			resolver,
			logger,
			retrievalConfig.DefaultLimit,
			retrievalConfig.NearDuplicateThreshold,
			retrievalConfig.MinWordCount,
			retrievalConfig.EffectivenessWeight,
		)
	}); err != nil {
		return nil, err
	}

	// Register usage tracker
	if err := container.Provide(core.NewUsageTracker); err != nil {
		return nil, err
	}

	return container, nil
}
