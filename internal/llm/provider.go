package llm

import "context"

// Turn is one message of a conversation sent to a provider. A turn may carry
// an image reference alongside its text; providers that support vision input
// send both as one multimodal message.
type Turn struct {
	Role     string
	Content  string
	ImageURL string
}

// StreamRequest contains the parameters of a single streamed generation.
type StreamRequest struct {
	System      string
	User        string
	Temperature float64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Stream generates a completion for one system+user exchange, calling
	// onChunk for every output increment, and returns the full text.
	Stream(ctx context.Context, req StreamRequest, onChunk func(string)) (string, error)

	// Invoke generates a completion for a multi-turn conversation.
	Invoke(ctx context.Context, turns []Turn, temperature float64) (string, error)
}
