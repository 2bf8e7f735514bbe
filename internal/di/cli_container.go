package di

import (
	"flag"

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

// CLIFlags contains all command line flags for the CLI binaries
type CLIFlags struct {
	// Embedding provider flags
	Provider   string
	Dimensions int
	BatchSize  int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Index flags
	IndexType string
	IndexPath string

	// Retrieval flags
	UserID       string
	Relationship string
	Limit        int

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Embedding provider flags
	flag.StringVar(&flags.Provider, "provider", "openai", "Embedding provider (openai, gemini, bedrock)")
	flag.IntVar(&flags.Dimensions, "dimensions", 384, "Embedding vector dimensionality")
	flag.IntVar(&flags.BatchSize, "batch-size", 32, "Embedding request batch size")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "amazon.titan-embed-text-v2:0", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "text-embedding-004", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "text-embedding-3-small", "OpenAI model name")

	// Index flags
	flag.StringVar(&flags.IndexType, "index", "chromem", "Vector index type (chromem, memory)")
	flag.StringVar(&flags.IndexPath, "index-path", "./voice-index", "Vector index directory")

	// Retrieval flags
	flag.StringVar(&flags.UserID, "user", "", "User ID to ingest or query for")
	flag.StringVar(&flags.Relationship, "relationship", "", "Restrict results to one relationship type")
	flag.IntVar(&flags.Limit, "limit", 10, "Maximum number of results")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "-", "Input JSONL file (use stdin if \"-\")")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container
// for the one-shot CLI binaries
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
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

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set embedding provider
	v.Set("embedding.provider", flags.Provider)
	v.Set("embedding.dimensions", flags.Dimensions)
	v.Set("embedding.batch_size", flags.BatchSize)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
	}

	// Set index configuration
	v.Set("index.type", flags.IndexType)
	v.Set("index.path", flags.IndexPath)

	// Set retrieval limit
	v.Set("retrieval.default_limit", flags.Limit)

	return config.NewFromViper(v)
}
