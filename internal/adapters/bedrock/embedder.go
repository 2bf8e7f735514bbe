package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/voice-retrieval/internal/core"
	"github.com/mikey/voice-retrieval/internal/utils"
)

// BedrockEmbedder is an implementation of the EmbeddingProvider interface
// using Amazon Bedrock Titan text embeddings
type BedrockEmbedder struct {
	client        *bedrockruntime.Client
	modelID       string
	dimensions    int
	maxTextSize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// titanEmbedRequest is the InvokeModel body for Titan embedding models
type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

// titanEmbedResponse is the InvokeModel response body
type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewBedrockEmbedder creates a new Bedrock embedding provider
func NewBedrockEmbedder(
	client *bedrockruntime.Client,
	modelID string,
	dimensions int,
	maxTextSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockEmbedder {
	return &BedrockEmbedder{
		client:        client,
		modelID:       modelID,
		dimensions:    dimensions,
		maxTextSize:   maxTextSize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Dimensions returns the configured output vector length
func (e *BedrockEmbedder) Dimensions() int {
	return e.dimensions
}

// EmbedText embeds a single text
func (e *BedrockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	processed := e.textProcessor.ProcessText(text, e.maxTextSize)
	if processed == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	body, err := json.Marshal(titanEmbedRequest{
		InputText:  processed,
		Dimensions: e.dimensions,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode Titan request: %w", err)
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse Titan response: %w", err)
	}
	if len(resp.Embedding) != e.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimensionality: got %d, want %d", len(resp.Embedding), e.dimensions)
	}

	return resp.Embedding, nil
}

// EmbedBatch embeds texts one call at a time; Titan has no batch endpoint.
// A failed text reports its own error and does not block the rest; a
// deadline abort returns whatever completed with Incomplete set.
func (e *BedrockEmbedder) EmbedBatch(ctx context.Context, texts []string) (*core.BatchEmbeddingResult, error) {
	result := &core.BatchEmbeddingResult{
		Embeddings: make([][]float32, len(texts)),
	}

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			result.Incomplete = true
			return result, nil
		}

		vector, err := e.EmbedText(ctx, text)
		if err != nil {
			result.Errors = append(result.Errors, core.BatchError{Index: i, Reason: err.Error()})
			continue
		}
		result.Embeddings[i] = vector
	}

	return result, nil
}
