package llm

import "context"

// ChatMessage is one turn sent to or received from the model.
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Completion is the model's reply plus token accounting.
type Completion struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Client is the interface for chat completion providers.
type Client interface {
	// Complete sends the message sequence and returns the model's reply.
	Complete(ctx context.Context, messages []ChatMessage) (*Completion, error)

	// Model returns the configured model name, for cost tracking.
	Model() string
}
