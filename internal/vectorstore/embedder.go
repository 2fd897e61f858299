package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"
)

// NewEmbeddingFunc adapts a Genkit ai.Embedder to chromem's per-text
// embedding callback. chromem normalizes the vectors itself, so the raw
// embedding is passed through as returned.
func NewEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			return nil, fmt.Errorf("embedding request failed: %w", err)
		}
		if len(resp.Embeddings) == 0 {
			return nil, errors.New("embedder returned no embeddings")
		}
		vec := resp.Embeddings[0].Embedding
		if len(vec) == 0 {
			return nil, errors.New("embedder returned an empty vector")
		}
		return vec, nil
	}
}
