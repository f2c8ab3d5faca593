// Package ingest drives the offline pipeline: extract each PDF, chunk its
// text, embed chunk batches, and stream the records into the vector index.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain/textproc"
)

// Pipeline pacing defaults.
const (
	DefaultBatchSize    = 8
	DefaultPacing       = 200 * time.Millisecond
	DefaultFailurePause = 2 * time.Second
)

// DocumentStatus is the terminal state of one document's ingestion.
type DocumentStatus string

const (
	// StatusDone means the document's batches were processed (some batches
	// may still have failed individually).
	StatusDone DocumentStatus = "done"
	// StatusSkipped means no text could be extracted; the document was
	// dropped and the run continued.
	StatusSkipped DocumentStatus = "skipped"
)

// DocumentResult reports one processed document to the progress callback.
type DocumentResult struct {
	Name   string
	Status DocumentStatus
	Chunks int
	Err    error
}

// Stats aggregates a full ingestion run.
type Stats struct {
	Documents     int
	Skipped       int
	Chunks        int
	Upserted      int
	FailedBatches int
}

// Driver runs the ingestion state machine per document:
// Extracting → (OCR fallback) → Chunking → Embedding+Upserting → Done | Skipped.
type Driver struct {
	extractor Extractor
	embedder  Embedder
	repo      Upserter
	chunker   textproc.Chunker

	// limiter is the shared token bucket pacing embedding calls; documents
	// processed by concurrent drivers must share one instance to avoid
	// thundering-herd retries.
	limiter *rate.Limiter

	stage   string
	subject string

	batchSize    int
	pacing       time.Duration
	failurePause time.Duration

	onDocument func(DocumentResult)
	logger     *zap.Logger
}

// New creates an ingestion driver with default pacing.
func New(
	extractor Extractor,
	embedder Embedder,
	repo Upserter,
	chunker textproc.Chunker,
	limiter *rate.Limiter,
	logger *zap.Logger,
) *Driver {
	return &Driver{
		extractor:    extractor,
		embedder:     embedder,
		repo:         repo,
		chunker:      chunker,
		limiter:      limiter,
		batchSize:    DefaultBatchSize,
		pacing:       DefaultPacing,
		failurePause: DefaultFailurePause,
		logger:       logger,
	}
}

// WithTags sets the stage/subject tags attached to every ingested record.
func (d *Driver) WithTags(stage, subject string) *Driver {
	d.stage = stage
	d.subject = subject
	return d
}

// WithPacing overrides batch size and delays.
func (d *Driver) WithPacing(batchSize int, pacing, failurePause time.Duration) *Driver {
	if batchSize > 0 {
		d.batchSize = batchSize
	}
	if pacing >= 0 {
		d.pacing = pacing
	}
	if failurePause >= 0 {
		d.failurePause = failurePause
	}
	return d
}

// WithProgress registers a per-document callback.
func (d *Driver) WithProgress(fn func(DocumentResult)) *Driver {
	d.onDocument = fn
	return d
}

// Run ingests every PDF in dir, in name order. One bad document never aborts
// the batch: extraction failures skip the document, embedding failures skip
// the affected chunk batch.
func (d *Driver) Run(ctx context.Context, dir string) (Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, fmt.Errorf("read document directory: %w", err)
	}

	var stats Stats
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		stats.Documents++

		res := d.ingestDocument(ctx, filepath.Join(dir, entry.Name()), &stats)
		if res.Status == StatusSkipped {
			stats.Skipped++
		}
		if d.onDocument != nil {
			d.onDocument(res)
		}
	}

	return stats, nil
}

// ingestDocument runs one document through the pipeline.
func (d *Driver) ingestDocument(ctx context.Context, path string, stats *Stats) DocumentResult {
	name := filepath.Base(path)
	log := d.logger.With(zap.String("file", name))

	raw, err := d.extractor.Extract(ctx, path)
	if err != nil {
		log.Warn("extraction failed, skipping document", zap.Error(err))
		return DocumentResult{Name: name, Status: StatusSkipped, Err: err}
	}

	text := textproc.Sanitize(raw)
	if strings.TrimSpace(text) == "" {
		log.Warn("document has no extractable text, skipping")
		return DocumentResult{Name: name, Status: StatusSkipped}
	}

	lang := textproc.Detect(text)

	batch := make([]domain.Record, 0, d.batchSize)
	chunks := 0

	for idx, chunkText := range d.chunker.Chunks(text) {
		chunks++
		batch = append(batch, domain.Record{
			ID: textproc.ChunkID(name, idx),
			Meta: domain.Metadata{
				Text:    chunkText,
				Source:  name,
				Lang:    lang,
				Stage:   d.stage,
				Subject: d.subject,
			},
		})

		if len(batch) == d.batchSize {
			d.flushBatch(ctx, log, batch, stats)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		d.flushBatch(ctx, log, batch, stats)
	}

	stats.Chunks += chunks
	log.Info("document ingested", zap.Int("chunks", chunks), zap.String("lang", string(lang)))

	return DocumentResult{Name: name, Status: StatusDone, Chunks: chunks}
}

// flushBatch embeds and immediately upserts one batch of chunk records.
// A failed batch is logged, paused on, and skipped; later batches of the
// same document still run — failure isolation is per batch, not per
// document. Successful batches are persisted right away so a crash
// mid-document loses at most the in-flight batch.
func (d *Driver) flushBatch(ctx context.Context, log *zap.Logger, batch []domain.Record, stats *Stats) {
	texts := make([]string, len(batch))
	for i, rec := range batch {
		texts[i] = rec.Meta.Text
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			log.Warn("pacing wait interrupted", zap.Error(err))
		}
	}

	res, err := d.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		stats.FailedBatches++
		log.Warn("embedding batch failed, skipping batch",
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		d.sleep(ctx, d.failurePause)
		return
	}

	records := make([]domain.Record, len(batch))
	for i, rec := range batch {
		rec.Vector = res.Embeddings[i]
		records[i] = rec
	}

	if err := d.repo.Upsert(ctx, records); err != nil {
		stats.FailedBatches++
		log.Warn("upsert batch failed, skipping batch",
			zap.Int("batch_size", len(records)),
			zap.Error(err),
		)
		d.sleep(ctx, d.failurePause)
		return
	}

	stats.Upserted += len(records)
	d.sleep(ctx, d.pacing)
}

func (d *Driver) sleep(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
