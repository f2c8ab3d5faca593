// Package index adapts the vector store to the chunk-record contract:
// idempotent upserts keyed by content-addressed ids and top-k KNN queries.
package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Jassar-muh/pharmaninja-backend/internal/db"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain/search/filter"
)

// Key layout.
const (
	// Name is the FT index name.
	Name = domain.KeyPrefix + "chunks:idx"
	// keyPrefix prefixes each chunk record key.
	keyPrefix = domain.KeyPrefix + "chunk:"
)

// store is the consumer interface for index operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the vector index adapter over a db store.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig
}

// New creates an index repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// WithHNSW overrides HNSW build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// Ensure creates the FT index if it does not exist yet.
func (r *Repo) Ensure(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, Name)
	if err != nil {
		return fmt.Errorf("%w: check index: %w", domain.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	def, err := db.NewIndex(Name).
		Prefix(keyPrefix).
		Text("text").
		Tag("source").
		Tag("lang").
		Tag("stage").
		Tag("subject").
		VectorHNSW("vector", r.dim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("%w: create index: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Rebuild drops the FT index and recreates it with the current schema and
// HNSW parameters. Record hashes are untouched; the recreated index picks
// them up again by key prefix.
func (r *Repo) Rebuild(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%w: drop index: %w", domain.ErrIndexUnavailable, err)
	}
	return r.Ensure(ctx)
}

// Upsert writes records in one pipelined round-trip. Records sharing an id
// with an existing record overwrite it; there is no ordering guarantee
// across unrelated ids.
func (r *Repo) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(records))
	for i, rec := range records {
		if len(rec.Vector) != r.dim {
			return fmt.Errorf("record %s: vector has %d dimensions, index expects %d",
				rec.ID, len(rec.Vector), r.dim)
		}
		items[i] = db.HashSetItem{
			Key: keyPrefix + rec.ID,
			Fields: map[string]string{
				"vector":  encodeVector(rec.Vector),
				"text":    rec.Meta.Text,
				"source":  rec.Meta.Source,
				"lang":    string(rec.Meta.Lang),
				"stage":   rec.Meta.Stage,
				"subject": rec.Meta.Subject,
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: upsert %d records: %w", domain.ErrIndexUnavailable, len(records), err)
	}
	return nil
}

// Query returns up to topK matches ordered by descending similarity. The
// index may return fewer; zero matches is a normal outcome, distinct from
// the ErrIndexUnavailable failure path.
func (r *Repo) Query(
	ctx context.Context, vector []float32, topK int, filters filter.Expression,
) ([]domain.Match, error) {
	q := &db.KNNQuery{
		IndexName: Name,
		Filters:   filters,
		Vector:    vector,
		K:         topK,
		ReturnFields: []string{
			"text", "source", "lang", "stage", "subject", "__vector_score",
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: knn query: %w", domain.ErrIndexUnavailable, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	matches := make([]domain.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		matches = append(matches, domain.Match{
			ID:    strings.TrimPrefix(entry.Key, keyPrefix),
			Score: entry.Score,
			Meta: domain.Metadata{
				Text:    entry.Fields["text"],
				Source:  entry.Fields["source"],
				Lang:    domain.Lang(entry.Fields["lang"]),
				Stage:   entry.Fields["stage"],
				Subject: entry.Fields["subject"],
			},
		})
	}

	return matches, nil
}

// encodeVector serializes a vector as little-endian float32 for the FT
// vector field.
func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
