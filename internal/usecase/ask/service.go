// Package ask glues retrieval and answer synthesis behind the public query
// operation.
package ask

import (
	"context"
	"strings"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
	"github.com/Jassar-muh/pharmaninja-backend/internal/domain/textproc"
)

// Retriever produces grounded context and provenance for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question, stage, subject string) (domain.Context, []domain.Source, error)
}

// Synthesizer turns context into an answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, lang domain.Lang, question string, rctx domain.Context) domain.Answer
}

// Query is one user question with optional filter attributes and language
// hint. Lang is auto-detected from the question when absent or unknown.
type Query struct {
	Question string
	Lang     string
	Stage    string
	Subject  string
}

// Response is the synthesized answer with its provenance.
type Response struct {
	Answer  domain.Answer
	Lang    domain.Lang
	Sources []domain.Source
}

// Service executes the online question flow.
type Service struct {
	retriever Retriever
	synth     Synthesizer
}

// New creates an ask service.
func New(retriever Retriever, synth Synthesizer) *Service {
	return &Service{retriever: retriever, synth: synth}
}

// Ask validates the question, resolves its language, retrieves context, and
// synthesizes the answer.
func (s *Service) Ask(ctx context.Context, q Query) (Response, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return Response{}, domain.ErrEmptyQuestion
	}

	lang := resolveLang(q.Lang, question)

	rctx, sources, err := s.retriever.Retrieve(ctx, question, q.Stage, q.Subject)
	if err != nil {
		return Response{}, err
	}

	ans := s.synth.Synthesize(ctx, lang, question, rctx)

	return Response{Answer: ans, Lang: lang, Sources: sources}, nil
}

// resolveLang normalizes an explicit hint or falls back to script detection.
func resolveLang(hint, question string) domain.Lang {
	switch domain.Lang(strings.ToUpper(strings.TrimSpace(hint))) {
	case domain.LangEN:
		return domain.LangEN
	case domain.LangAR:
		return domain.LangAR
	default:
		return textproc.Detect(question)
	}
}
