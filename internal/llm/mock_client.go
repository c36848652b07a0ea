package llm

import "context"

// MockClient is a canned Client for tests and local development.
type MockClient struct {
	// Response returned by every Complete call when Err is nil
	Response string
	// Err, when set, is returned by Complete
	Err error
	// Calls records every message sequence Complete received
	Calls [][]ChatMessage
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, messages []ChatMessage) (*Completion, error) {
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return nil, m.Err
	}
	return &Completion{
		Content:      m.Response,
		InputTokens:  len(messages) * 10,
		OutputTokens: len(m.Response) / 4,
	}, nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	return "mock"
}
