// Package openai implements embedding and completion providers over the
// OpenAI-compatible API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
	"github.com/Jassar-muh/pharmaninja-backend/internal/metrics"
	"github.com/Jassar-muh/pharmaninja-backend/internal/retry"
)

// DefaultBatchSize is the number of texts sent per embedding API call.
const DefaultBatchSize = 8

// Embedder is an embedding provider using the OpenAI-compatible API.
// It batches inputs and retries rate-limited calls with backoff.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	batchSize  int
	provider   string
	configured bool
	policy     retry.Policy
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
	Provider   string
	Policy     *retry.Policy // nil = retry.DefaultPolicy
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	policy := retry.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	policy.OnRetry = func(attempt int, delay time.Duration) {
		metrics.EmbeddingRetriesTotal.WithLabelValues(cfg.Provider, cfg.Model).Inc()
		cfg.Logger.Warn("embedding rate limited, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		batchSize:  batchSize,
		provider:   cfg.Provider,
		configured: cfg.APIKey != "",
		policy:     policy,
		logger:     cfg.Logger,
	}
}

// Embed implements domain.Embedder via a batch of size one.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Inputs are split into batches
// of the configured size, one API call per batch; the returned vectors are
// aligned to the input order. Rate-limited batches are retried with backoff
// up to the policy's budget; other failures propagate immediately.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if !e.configured {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding api key missing: %w", domain.ErrNotConfigured)
	}
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := domain.BatchEmbeddingResult{
		Embeddings: make([][]float32, 0, len(texts)),
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return domain.BatchEmbeddingResult{}, err
		}

		out.Embeddings = append(out.Embeddings, batch.Embeddings...)
		out.PromptTokens += batch.PromptTokens
		out.TotalTokens += batch.TotalTokens
	}

	return out, nil
}

// embedBatch performs one embedding API call under the retry policy.
func (e *Embedder) embedBatch(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	var result domain.BatchEmbeddingResult

	err := e.policy.Do(ctx, func(ctx context.Context) error {
		start := time.Now()
		resp, err := e.client.CreateEmbeddings(ctx, req)
		duration := time.Since(start)

		if err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
			return classifyAPIError(err)
		}

		if len(resp.Data) != len(texts) {
			metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
			metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "short_response").Inc()
			return fmt.Errorf("embedding response has %d vectors for %d inputs: %w",
				len(resp.Data), len(texts), domain.ErrEmbeddingProviderError)
		}

		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
		metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

		if resp.Usage.TotalTokens > 0 {
			metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "prompt").
				Add(float64(resp.Usage.PromptTokens))
			metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "total").
				Add(float64(resp.Usage.TotalTokens))
		}

		// Place vectors by response index: the API aligns to input order,
		// but the index field is authoritative.
		vecs := make([][]float32, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(vecs) {
				return fmt.Errorf("embedding response index %d out of range: %w",
					d.Index, domain.ErrEmbeddingProviderError)
			}
			vecs[d.Index] = d.Embedding
		}

		result = domain.BatchEmbeddingResult{
			Embeddings:   vecs,
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
		return nil
	})
	if err != nil {
		var rl *retry.RateLimitError
		if errors.As(err, &rl) {
			metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "rate_limited").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf("retry budget exhausted: %w: %w", domain.ErrRateLimited, rl.Err)
		}
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "api_error").Inc()
		return domain.BatchEmbeddingResult{}, err
	}

	return result, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if !e.configured {
		return fmt.Errorf("embedding api key missing: %w", domain.ErrNotConfigured)
	}
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// classifyAPIError maps an API error to the domain taxonomy. HTTP 429
// becomes a retryable *retry.RateLimitError carrying any retry-after hint
// found in the error payload; everything else wraps ErrEmbeddingProviderError.
func classifyAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &retry.RateLimitError{
				RetryAfter: parseRetryAfter(apiErr.Message),
				Err:        wrapped,
			}
		}
		return wrapped
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		wrapped := fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &retry.RateLimitError{
				RetryAfter: parseRetryAfter(detail),
				Err:        wrapped,
			}
		}
		return wrapped
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// retryAfterRe matches the provider's "Please try again in 20s" /
// "try again in 1.5s" / "try again in 350ms" hint.
var retryAfterRe = regexp.MustCompile(`(?i)try again in (\d+(?:\.\d+)?)\s*(ms|s|m)\b`)

// parseRetryAfter extracts the server-suggested wait from an error message.
// Returns 0 when no hint is present.
func parseRetryAfter(msg string) time.Duration {
	m := retryAfterRe.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "ms":
		return time.Duration(val * float64(time.Millisecond))
	case "m":
		return time.Duration(val * float64(time.Minute))
	default:
		return time.Duration(val * float64(time.Second))
	}
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
