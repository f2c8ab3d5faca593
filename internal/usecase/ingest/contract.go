package ingest

import (
	"context"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
)

// Extractor pulls text out of a source document.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Embedder vectorizes chunk texts in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Upserter persists embedded chunk records, idempotent by id.
type Upserter interface {
	Upsert(ctx context.Context, records []domain.Record) error
}
