package answer

import "context"

// Completer calls the chat-completion service with a system+user turn pair.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
}
