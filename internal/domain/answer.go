package domain

// Origin tells whether an answer came from the completion model or from the
// deterministic degradation path.
type Origin string

const (
	// OriginGenerated marks a model-generated answer.
	OriginGenerated Origin = "generated"
	// OriginFallback marks a templated context-only answer produced when the
	// completion service was unavailable or no context was found.
	OriginFallback Origin = "fallback"
)

// Answer is a synthesized response with its degradation marker.
type Answer struct {
	Text   string
	Origin Origin
}
