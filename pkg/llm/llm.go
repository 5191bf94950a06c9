// Package llm provides the chat-completion client used by the query
// engine's generate step. Grounded on pkg/embed's client shape (itself a
// descendant of the teacher's pkg/embedders.OpenAIEmbedder) applied to a
// chat-completions endpoint instead of an embeddings one.
package llm

import (
	"context"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Client generates a completion for a message sequence.
type Client interface {
	// Complete returns the assistant's reply to messages.
	Complete(ctx context.Context, messages []Message) (string, error)

	// ModelName returns the configured model identifier.
	ModelName() string
}
