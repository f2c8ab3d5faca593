// Package answer synthesizes a grounded response from retrieved context,
// degrading to a deterministic context-only answer when generation fails.
package answer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
)

// Temperature keeps sampling deterministic-leaning to minimize hallucination
// variance.
const Temperature = 0.1

// Service synthesizes answers from retrieved context.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates an answer synthesizer.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// Synthesize builds a language-aware prompt and calls the completion
// service. Completion failures never propagate: retrieval success must still
// yield a usable response, so any failure produces the templated
// context-only fallback. Empty context short-circuits to the localized
// no-material message without calling the model at all.
func (s *Service) Synthesize(
	ctx context.Context, lang domain.Lang, question string, rctx domain.Context,
) domain.Answer {
	if rctx.Empty() {
		return domain.Answer{Text: noContextAnswer(lang), Origin: domain.OriginFallback}
	}

	system, user := buildPrompt(lang, question, rctx.Text)

	text, err := s.completer.Complete(ctx, system, user, Temperature)
	if err != nil {
		s.logger.Warn("completion failed, serving context fallback",
			zap.String("lang", string(lang)),
			zap.Error(err),
		)
		return domain.Answer{Text: fallbackAnswer(lang, rctx.Text), Origin: domain.OriginFallback}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Warn("completion returned empty text, serving context fallback",
			zap.String("lang", string(lang)),
		)
		return domain.Answer{Text: fallbackAnswer(lang, rctx.Text), Origin: domain.OriginFallback}
	}

	return domain.Answer{Text: text, Origin: domain.OriginGenerated}
}
