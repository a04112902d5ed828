package answer

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever finds the records closest to a query vector, optionally scoped
// to one document.
type Retriever interface {
	Nearest(ctx context.Context, vector []float32, scopeDocumentID string, limit int) ([]domain.Match, error)
}

// Generator produces the grounded answer text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
