package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/voice-retrieval/internal/core"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// GeminiEmbedder is an implementation of the EmbeddingProvider interface
// using the Google Gemini embedding API
type GeminiEmbedder struct {
	client        *genai.Client
	model         *genai.EmbeddingModel
	modelName     string
	dimensions    int
	batchSize     int
	maxTextSize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiEmbedder creates a new Gemini embedding provider
func NewGeminiEmbedder(
	apiKey string,
	modelName string,
	dimensions int,
	batchSize int,
	maxTextSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if batchSize <= 0 {
		batchSize = 32
	}

	return &GeminiEmbedder{
		client:        client,
		model:         client.EmbeddingModel(modelName),
		modelName:     modelName,
		dimensions:    dimensions,
		batchSize:     batchSize,
		maxTextSize:   maxTextSize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the underlying Gemini client
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Dimensions returns the configured output vector length
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// EmbedText embeds a single text
func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	processed := e.textProcessor.ProcessText(text, e.maxTextSize)
	if processed == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	resp, err := e.model.EmbedContent(ctx, genai.Text(processed))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding with Gemini: %w", err)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("empty embedding response from Gemini")
	}

	return e.checkVector(resp.Embedding.Values)
}

// EmbedBatch embeds texts in configured-size chunks via BatchEmbedContents.
// A failed chunk marks its own items and does not block the rest; a
// deadline abort returns whatever completed with Incomplete set.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) (*core.BatchEmbeddingResult, error) {
	result := &core.BatchEmbeddingResult{
		Embeddings: make([][]float32, len(texts)),
	}

	for start := 0; start < len(texts); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			result.Incomplete = true
			return result, nil
		}

		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := e.model.NewBatch()
		indexes := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			processed := e.textProcessor.ProcessText(texts[i], e.maxTextSize)
			if processed == "" {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: "empty text"})
				continue
			}
			batch.AddContent(genai.Text(processed))
			indexes = append(indexes, i)
		}
		if len(indexes) == 0 {
			continue
		}

		resp, err := e.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			for _, i := range indexes {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
			}
			e.logger.Warn("Embedding chunk failed",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(indexes)),
				zap.Error(err))
			continue
		}
		if len(resp.Embeddings) != len(indexes) {
			for _, i := range indexes {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: "embedding count mismatch"})
			}
			continue
		}

		for j, i := range indexes {
			vector, err := e.checkVector(resp.Embeddings[j].Values)
			if err != nil {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
				continue
			}
			result.Embeddings[i] = vector
		}
	}

	return result, nil
}

func (e *GeminiEmbedder) checkVector(vector []float32) ([]float32, error) {
	if len(vector) != e.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimensionality: got %d, want %d", len(vector), e.dimensions)
	}
	return vector, nil
}
