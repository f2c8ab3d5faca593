// Command ingest loads a directory of PDF course documents into the vector
// index: extract, chunk, embed, upsert.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jassar-muh/pharmaninja-backend/internal/config"
	dbRedis "github.com/Jassar-muh/pharmaninja-backend/internal/db/redis"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain/textproc"
	"github.com/Jassar-muh/pharmaninja-backend/internal/extract"
	logpkg "github.com/Jassar-muh/pharmaninja-backend/internal/logger"
	"github.com/Jassar-muh/pharmaninja-backend/internal/metrics"
	indexrepo "github.com/Jassar-muh/pharmaninja-backend/internal/repository/index"
	"github.com/Jassar-muh/pharmaninja-backend/internal/retry"
	openaiTransport "github.com/Jassar-muh/pharmaninja-backend/internal/transport/openai"
	ingestuc "github.com/Jassar-muh/pharmaninja-backend/internal/usecase/ingest"
)

func main() {
	dirFlag := flag.String("dir", "", "directory of PDF documents (overrides config)")
	stageFlag := flag.String("stage", "", "academic stage tag for all documents (overrides config)")
	subjectFlag := flag.String("subject", "", "subject tag for all documents (overrides config)")
	rebuildFlag := flag.Bool("rebuild", false, "drop and recreate the vector index before ingesting")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// Unlike the API server, ingestion is useless without embeddings.
	if cfg.OpenAI.APIKey == "" {
		logger.Fatal("OpenAI API key is required for ingestion")
	}

	dir := cfg.Ingest.Dir
	if *dirFlag != "" {
		dir = *dirFlag
	}
	stage := cfg.Ingest.Stage
	if *stageFlag != "" {
		stage = *stageFlag
	}
	subject := cfg.Ingest.Subject
	if *subjectFlag != "" {
		subject = *subjectFlag
	}

	logger.Info("Starting ingestion",
		zap.String("env", env),
		zap.String("dir", dir),
		zap.String("stage", stage),
		zap.String("subject", subject),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.RegisterEmbeddingMetrics()

	retryPolicy := retry.DefaultPolicy()
	retryPolicy.MaxRetries = cfg.OpenAI.MaxRetries

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.Dimensions,
		BatchSize:  cfg.OpenAI.BatchSize,
		Provider:   "openai",
		Policy:     &retryPolicy,
		Logger:     logger,
	})

	repo := indexrepo.New(store, cfg.OpenAI.Dimensions).WithHNSW(indexrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if *rebuildFlag {
		logger.Info("Rebuilding vector index", zap.String("index", indexrepo.Name))
		if err := repo.Rebuild(ctx); err != nil {
			logger.Fatal("Failed to rebuild vector index", zap.Error(err))
		}
	} else if err := repo.Ensure(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	chunker, err := textproc.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		logger.Fatal("Invalid chunking config", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.Ingest.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Ingest.RatePerSec), 1)
	}

	total, err := countPDFs(dir)
	if err != nil {
		logger.Fatal("Failed to read document directory", zap.Error(err))
	}
	if total == 0 {
		logger.Warn("No PDF documents found", zap.String("dir", dir))
		return
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Ingesting documents"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	extractor := extract.NewPDF(logger).WithOCRLangs(cfg.Ingest.OCRLangs)

	driver := ingestuc.New(extractor, embedder, repo, chunker, limiter, logger).
		WithTags(stage, subject).
		WithPacing(
			cfg.OpenAI.BatchSize,
			time.Duration(cfg.Ingest.PacingMs)*time.Millisecond,
			time.Duration(cfg.Ingest.FailurePauseSec)*time.Second,
		).
		WithProgress(func(res ingestuc.DocumentResult) {
			bar.Describe(res.Name)
			_ = bar.Add(1)
		})

	stats, err := driver.Run(ctx, dir)
	_ = bar.Finish()
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion complete",
		zap.Int("documents", stats.Documents),
		zap.Int("skipped", stats.Skipped),
		zap.Int("chunks", stats.Chunks),
		zap.Int("upserted", stats.Upserted),
		zap.Int("failed_batches", stats.FailedBatches),
	)

	fmt.Printf("Ingested %d/%d documents, %d chunks (%d upserted, %d failed batches)\n",
		stats.Documents-stats.Skipped, stats.Documents, stats.Chunks, stats.Upserted, stats.FailedBatches)
}

func countPDFs(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			n++
		}
	}
	return n, nil
}
