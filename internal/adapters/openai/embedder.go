package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// OpenAIEmbedder is an implementation of the EmbeddingProvider interface
// using the OpenAI embeddings API
type OpenAIEmbedder struct {
	client        *openai.Client
	modelName     string
	dimensions    int
	batchSize     int
	maxTextSize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIEmbedder creates a new OpenAI embedding provider
func NewOpenAIEmbedder(
	apiKey string,
	modelName string,
	dimensions int,
	batchSize int,
	maxTextSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIEmbedder {
	client := openai.NewClient(apiKey)

	if batchSize <= 0 {
		batchSize = 32
	}

	return &OpenAIEmbedder{
		client:        client,
		modelName:     modelName,
		dimensions:    dimensions,
		batchSize:     batchSize,
		maxTextSize:   maxTextSize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Dimensions returns the configured output vector length
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// EmbedText embeds a single text
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	processed := e.textProcessor.ProcessText(text, e.maxTextSize)
	if processed == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      []string{processed},
		Model:      openai.EmbeddingModel(e.modelName),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding with OpenAI: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response from OpenAI")
	}

	return e.checkVector(resp.Data[0].Embedding)
}

// EmbedBatch embeds texts in configured-size chunks. A failed chunk marks
// its own items and does not block the rest; a deadline abort returns
// whatever completed with Incomplete set.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) (*core.BatchEmbeddingResult, error) {
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

		input := make([]string, 0, end-start)
		indexes := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			processed := e.textProcessor.ProcessText(texts[i], e.maxTextSize)
			if processed == "" {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: "empty text"})
				continue
			}
			input = append(input, processed)
			indexes = append(indexes, i)
		}
		if len(input) == 0 {
			continue
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      input,
			Model:      openai.EmbeddingModel(e.modelName),
			Dimensions: e.dimensions,
		})
		if err != nil {
			for _, i := range indexes {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
			}
			e.logger.Warn("Embedding chunk failed",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(input)),
				zap.Error(err))
			continue
		}
		if len(resp.Data) != len(input) {
			for _, i := range indexes {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: "embedding count mismatch"})
			}
			continue
		}

		for j, i := range indexes {
			vector, err := e.checkVector(resp.Data[j].Embedding)
			if err != nil {
				result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
				continue
			}
			result.Embeddings[i] = vector
		}
	}

	return result, nil
}

func (e *OpenAIEmbedder) checkVector(vector []float32) ([]float32, error) {
	if len(vector) != e.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimensionality: got %d, want %d", len(vector), e.dimensions)
	}
	return vector, nil
}
