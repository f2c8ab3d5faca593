// Package retrieval orchestrates the online query path: embed the question,
// query the vector index, and assemble ranked context under a length budget.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain/search/filter"
)

// Defaults for the retrieval stage.
const (
	DefaultTopK         = 5
	DefaultContextChars = 2000
)

// ellipsis marks a truncated context.
const ellipsis = "…"

// Service handles question retrieval against the chunk index.
type Service struct {
	repo         Repository
	embed        Embedder
	topK         int
	contextChars int
}

// New creates a retrieval service with default limits.
func New(repo Repository, embed Embedder) *Service {
	return &Service{
		repo:         repo,
		embed:        embed,
		topK:         DefaultTopK,
		contextChars: DefaultContextChars,
	}
}

// WithLimits overrides topK and the context character budget.
func (s *Service) WithLimits(topK, contextChars int) *Service {
	if topK > 0 {
		s.topK = topK
	}
	if contextChars > 0 {
		s.contextChars = contextChars
	}
	return s
}

// Retrieve embeds the question, queries top-k matches restricted by the
// optional stage/subject attributes, and assembles ranked context. A query
// with no usable matches yields the sentinel context, not an error.
func (s *Service) Retrieve(
	ctx context.Context, question, stage, subject string,
) (domain.Context, []domain.Source, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Context{}, nil, domain.ErrEmptyQuestion
	}

	filters, err := filter.FromQuery(stage, subject)
	if err != nil {
		return domain.Context{}, nil, err
	}

	emb, err := s.embed.Embed(ctx, question)
	if err != nil {
		return domain.Context{}, nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := s.repo.Query(ctx, emb.Embedding, s.topK, filters)
	if err != nil {
		return domain.Context{}, nil, fmt.Errorf("query index: %w", err)
	}

	// Matches with empty text cannot ground anything.
	usable := matches[:0]
	for _, m := range matches {
		if strings.TrimSpace(m.Meta.Text) != "" {
			usable = append(usable, m)
		}
	}

	if len(usable) == 0 {
		return domain.Context{Text: domain.NoContextSentinel}, nil, nil
	}

	sources := make([]domain.Source, len(usable))
	for i, m := range usable {
		sources[i] = m.ToSource()
	}

	return domain.Context{
		Text:    s.assemble(usable),
		Matches: usable,
	}, sources, nil
}

// assemble renders "[#rank] text" lines in rank order and truncates to the
// character budget. Whole records are preferred: once at least one record is
// in, an oversized record is dropped in favor of the ellipsis marker; only a
// first record that alone exceeds the budget is cut mid-text. The budget is
// a hard cap: the ellipsis counts against it.
func (s *Service) assemble(matches []domain.Match) string {
	markerLen := len([]rune(ellipsis))

	var parts []string
	used := 0

	for i, m := range matches {
		entry := fmt.Sprintf("[#%d] %s", i+1, m.Meta.Text)

		sep := 0
		if i > 0 {
			sep = 1 // newline joiner
		}

		entryLen := len([]rune(entry))
		if used+sep+entryLen <= s.contextChars {
			parts = append(parts, entry)
			used += sep + entryLen
			continue
		}

		if i == 0 {
			runes := []rune(entry)
			cut := max(0, min(len(runes), s.contextChars-markerLen))
			return string(runes[:cut]) + ellipsis
		}

		// Dropping this record: make room for the marker if the kept
		// entries already fill the budget exactly.
		if over := used + markerLen - s.contextChars; over > 0 {
			last := []rune(parts[len(parts)-1])
			parts[len(parts)-1] = string(last[:len(last)-over])
		}
		return strings.Join(parts, "\n") + ellipsis
	}

	return strings.Join(parts, "\n")
}
