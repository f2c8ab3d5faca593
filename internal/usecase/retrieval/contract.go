package retrieval

import (
	"context"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain/search/filter"
)

// Repository defines the vector index contract for retrieval.
type Repository interface {
	Query(
		ctx context.Context, vector []float32, topK int, filters filter.Expression,
	) ([]domain.Match, error)
}

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
