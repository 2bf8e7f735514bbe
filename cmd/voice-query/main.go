package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/config"
	"github.com/mikey/voice-retrieval/internal/core"
	"github.com/mikey/voice-retrieval/internal/di"
	"github.com/mikey/voice-retrieval/internal/factory"
	"github.com/mikey/voice-retrieval/internal/features"
	"github.com/mikey/voice-retrieval/internal/logging"
	"github.com/mikey/voice-retrieval/internal/relmap"
)

var (
	// Embedding provider flags
	provider   = flag.String("provider", "openai", "Embedding provider (openai, gemini, bedrock)")
	dimensions = flag.Int("dimensions", 384, "Embedding vector dimensionality")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "amazon.titan-embed-text-v2:0", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "text-embedding-004", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "text-embedding-3-small", "OpenAI model name")

	// Index flags
	indexType = flag.String("index", "chromem", "Vector index type (chromem, memory)")
	indexPath = flag.String("index-path", "./voice-index", "Vector index directory")

	// Query flags
	userID         = flag.String("user", "", "User ID to query for")
	relationship   = flag.String("relationship", "", "Restrict results to one relationship type")
	limit          = flag.Int("limit", 10, "Maximum number of results")
	scoreThreshold = flag.Float64("min-score", 0, "Minimum similarity score (0 disables)")

	// Usage tracking flags
	usageStoreType = flag.String("usage-store", "sqlite", "Usage store backend (sqlite, mysql, memory)")
	usagePath      = flag.String("usage-path", "./voice-usage.db", "SQLite usage store path")
	draftID        = flag.String("draft", "", "Draft ID to record offers under (generated if empty)")
	track          = flag.Bool("track", true, "Record offered examples for later feedback")

	// Feedback mode flags; feedback mode reads the config file, not the query flags
	feedbackDraft    = flag.String("feedback-draft", "", "Run in feedback mode for this draft ID")
	feedbackExamples = flag.String("feedback-examples", "", "Comma-separated example IDs the feedback applies to")
	accepted         = flag.Bool("accepted", false, "The generated draft was accepted")
	edited           = flag.Bool("edited", false, "The accepted draft was edited before sending")
	editDistance     = flag.Float64("edit-distance", 0, "Normalized edit distance of the edits, in [0, 1]")
	userRating       = flag.Int("rating", 0, "Explicit 1-5 user rating (0 when not provided)")

	// Input flags
	inputFile  = flag.String("file", "", "Draft context file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Feedback mode folds the outcome of an earlier draft back into the
	// index; it needs no embedding provider, so it is wired from the full
	// container instead of the query flags.
	if *feedbackDraft != "" {
		container, err := di.BuildContainer()
		if err != nil {
			logger.Fatal("Failed to build dependency container", zap.Error(err))
		}
		if err := container.Invoke(recordFeedback); err != nil {
			logger.Fatal("Failed to record draft feedback", zap.Error(err))
		}
		return
	}

	if *userID == "" {
		logger.Fatal("A user ID is required (-user)")
	}

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Initialize embedding provider and vector index
	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	embedder, err := factory.NewEmbedderFactory(cfg, logger, textProcessor).CreateEmbeddingProvider()
	if err != nil {
		logger.Fatal("Failed to create embedding provider", zap.Error(err))
	}
	index, err := factory.NewIndexFactory(cfg, logger).CreateVectorIndex()
	if err != nil {
		logger.Fatal("Failed to create vector index", zap.Error(err))
	}

	service := buildRetrievalService(cfg, logger, embedder, index)

	// Read draft context from file or stdin
	var queryReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		queryReader = file
		logger.Info("Reading draft context from file", zap.String("file", *inputFile))
	} else {
		queryReader = os.Stdin
		logger.Info("Reading draft context from stdin")
	}

	queryBytes, err := io.ReadAll(queryReader)
	if err != nil {
		logger.Fatal("Failed to read draft context", zap.Error(err))
	}
	queryText := strings.TrimSpace(string(queryBytes))
	if queryText == "" {
		logger.Fatal("Draft context is empty")
	}

	// Print query summary
	fmt.Printf("\n=== Query Summary ===\n")
	fmt.Printf("User: %s\n", *userID)
	fmt.Printf("Provider: %s\n", cfg.GetString("embedding.provider"))
	if *relationship != "" {
		fmt.Printf("Relationship: %s\n", *relationship)
	}
	fmt.Printf("Context length: %d bytes\n", len(queryText))
	fmt.Printf("\n")

	startTime := time.Now()

	vector, err := embedder.EmbedText(context.Background(), queryText)
	if err != nil {
		logger.Fatal("Failed to embed draft context", zap.Error(err))
	}

	query := &core.SearchQuery{
		UserID:       *userID,
		QueryVector:  vector,
		Relationship: *relationship,
		Limit:        *limit,
	}
	if *scoreThreshold > 0 {
		query.ScoreThreshold = scoreThreshold
	}

	results, err := service.Search(context.Background(), query)
	if err != nil {
		logger.Fatal("Failed to search voice examples", zap.Error(err))
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("=== Results (%d) ===\n", len(results))
	for i, result := range results {
		fmt.Printf("\n[%d] id=%s score=%.4f\n", i+1, result.ID, result.Score)
		fmt.Printf("    To: %s  Subject: %s\n", result.Metadata.RecipientEmail, result.Metadata.Subject)
		fmt.Printf("    Relationship: %s (%.2f, %s)\n",
			result.Metadata.Relationship.Type,
			result.Metadata.Relationship.Confidence,
			result.Metadata.Relationship.DetectionMethod)
		fmt.Printf("    Tone: warmth=%.2f formality=%.2f sentiment=%s\n",
			result.Metadata.Features.Warmth,
			result.Metadata.Features.Formality,
			result.Metadata.Features.SentimentPrimary)
		fmt.Printf("    %s\n", excerpt(result.Metadata.ExtractedText, 120))
	}
	fmt.Printf("\nProcessing time: %v\n", duration)

	// Record which examples were offered so later feedback can be attributed
	if *track && len(results) > 0 {
		trackOffers(context.Background(), cfg, index, logger, results)
	}

	// Close any resources that need closing
	if closer, ok := embedder.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close embedding provider", zap.Error(err))
		}
	}
}

// buildRetrievalService wires the retrieval service from an already
// constructed embedder and index
func buildRetrievalService(cfg *config.Config, logger *zap.Logger, embedder core.EmbeddingProvider, index core.VectorIndex) *core.RetrievalService {
	retrievalConfig := cfg.GetRetrieval()
	return core.NewRetrievalService(
		features.NewExtractor(),
		embedder,
		index,
		relmap.NewResolver(cfg.GetRelationshipOverrides(), logger),
		logger,
		retrievalConfig.DefaultLimit,
		retrievalConfig.NearDuplicateThreshold,
		retrievalConfig.MinWordCount,
		retrievalConfig.EffectivenessWeight,
	)
}

// trackOffers records the offered examples under a draft ID. Tracking
// failures are logged, never fatal: the query results already went out.
func trackOffers(ctx context.Context, cfg *config.Config, index core.VectorIndex, logger *zap.Logger, results []*core.RetrievedExample) {
	store, err := factory.NewUsageStoreFactory(cfg, logger).CreateUsageStore()
	if err != nil {
		logger.Warn("Failed to create usage store, offers not recorded", zap.Error(err))
		return
	}
	defer func() {
		if stopper, ok := store.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	}()

	draft := *draftID
	if draft == "" {
		draft = uuid.New().String()
	}
	ids := make([]string, len(results))
	for i, result := range results {
		ids[i] = result.ID
	}

	tracker := core.NewUsageTracker(store, index, logger)
	tracker.TrackExampleUsage(ctx, draft, *userID, ids)
	fmt.Printf("\nDraft ID: %s (report the outcome with -feedback-draft)\n", draft)
}

// recordFeedback drives the usage feedback loop for one earlier draft: the
// derived rating lands in the usage store and in each offered example's
// usage stats.
func recordFeedback(logger *zap.Logger, tracker *core.UsageTracker, store core.UsageStore, index core.VectorIndex) error {
	defer logger.Sync()

	ids := splitIDs(*feedbackExamples)
	if len(ids) == 0 {
		return fmt.Errorf("feedback requires the offered example IDs (-feedback-examples)")
	}

	ctx := context.Background()
	feedback := core.DraftFeedback{
		Accepted:     *accepted,
		Edited:       *edited,
		EditDistance: *editDistance,
		UserRating:   *userRating,
	}
	if err := tracker.TrackExampleFeedback(ctx, *feedbackDraft, ids, feedback); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	effectiveness, err := tracker.GetExampleEffectiveness(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to read effectiveness: %w", err)
	}

	fmt.Printf("\n=== Feedback Recorded (draft %s) ===\n", *feedbackDraft)
	fmt.Printf("Derived rating: %.2f\n", core.DeriveRating(feedback))
	for _, id := range ids {
		if eff, ok := effectiveness[id]; ok && eff != core.EffectivenessNoData {
			fmt.Printf("  %s: effectiveness %.2f\n", id, eff)
		}
	}

	if stopper, ok := store.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if closer, ok := index.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close vector index", zap.Error(err))
		}
	}
	return nil
}

// splitIDs parses a comma-separated ID list, dropping empty entries
func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// excerpt returns the first maxLen bytes of text on a single line
func excerpt(text string, maxLen int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) <= maxLen {
		return flat
	}
	return flat[:maxLen] + "..."
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set embedding provider
	v.Set("embedding.provider", *provider)
	v.Set("embedding.dimensions", *dimensions)

	// Set provider-specific configuration
	switch *provider {
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
	}

	// Set index configuration
	v.Set("index.type", *indexType)
	v.Set("index.path", *indexPath)

	// Set usage tracking configuration
	v.Set("usage.store", *usageStoreType)
	v.Set("usage.sqlite_path", *usagePath)

	// Set retrieval limit
	v.Set("retrieval.default_limit", *limit)

	return config.NewFromViper(v)
}
