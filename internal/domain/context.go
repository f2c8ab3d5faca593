package domain

// NoContextSentinel is returned as the context text when retrieval found no
// usable matches. It lets the synthesizer short-circuit to a fixed fallback
// message without calling the completion service.
const NoContextSentinel = "NO_RELEVANT_CONTEXT"

// Context is the ranked, budget-truncated concatenation of match texts that
// grounds an answer. Rebuilt per query, never persisted.
type Context struct {
	Text    string
	Matches []Match
}

// Empty reports whether retrieval produced no usable context.
func (c Context) Empty() bool { return len(c.Matches) == 0 }
