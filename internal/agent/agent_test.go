package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kalam360/intake-agent/internal/costs"
	"github.com/kalam360/intake-agent/internal/intake"
	"github.com/kalam360/intake-agent/internal/llm"
	"github.com/kalam360/intake-agent/internal/session"
)

func newTestAgent(mock *llm.MockClient) (*Agent, session.Store) {
	store := session.NewMemoryStore()
	return New(mock, store, costs.NewRegistry(), 10), store
}

func boolPtr(v bool) *bool {
	return &v
}

func TestInitialGreeting(t *testing.T) {
	a, store := newTestAgent(&llm.MockClient{Response: "hi"})

	result, err := a.InitialGreeting(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("InitialGreeting failed: %v", err)
	}
	if result.Response != intake.InitialGreeting {
		t.Errorf("Expected canned greeting, got %q", result.Response)
	}

	// Greeting is recorded once, not duplicated on a second call
	if _, err := a.InitialGreeting(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Second InitialGreeting failed: %v", err)
	}
	data, err := store.Get(context.Background(), "sess-1")
	if err != nil || data == nil {
		t.Fatalf("Session not persisted: %v", err)
	}
	if len(data.ConversationHistory) != 1 {
		t.Errorf("Expected 1 history entry, got %d", len(data.ConversationHistory))
	}
}

func TestProcessMessageGeneratesReply(t *testing.T) {
	a, store := newTestAgent(&llm.MockClient{Response: "What's your budget?"})

	result, err := a.ProcessMessage(context.Background(), "sess-1", "Hi, I want to rent an apartment", nil)
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if result.Response != "What's your budget?" {
		t.Errorf("Expected LLM reply, got %q", result.Response)
	}
	if result.ClientData.TransactionType != "rent" {
		t.Errorf("Expected extracted transaction type rent, got %q", result.ClientData.TransactionType)
	}

	data, _ := store.Get(context.Background(), "sess-1")
	if len(data.ConversationHistory) != 2 {
		t.Errorf("Expected user + assistant history, got %d entries", len(data.ConversationHistory))
	}
}

func TestProcessMessageFallbackOnLLMError(t *testing.T) {
	a, _ := newTestAgent(&llm.MockClient{Err: errors.New("upstream down")})

	result, err := a.ProcessMessage(context.Background(), "sess-1", "hello there", nil)
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if result.Response != fallbackResponse {
		t.Errorf("Expected fallback response, got %q", result.Response)
	}
}

func TestProcessMessageTriggersValidation(t *testing.T) {
	a, _ := newTestAgent(&llm.MockClient{Response: "ok"})

	imported := &State{
		ClientData: intake.ClientData{
			FullName:         "Jane Doe",
			Email:            "jane@example.com",
			Phone:            "+12345678901",
			PreferredContact: "email",
			TransactionType:  "buy",
			Timeline:         "3 months",
			Budget:           "$500k",
			Location:         "Austin",
			Bedrooms:         "3",
			PropertyType:     "house",
			PaymentMethod:    "cash",
			PreApproval:      boolPtr(true),
		},
		CurrentStage: session.StageGathering,
	}

	result, err := a.ProcessMessage(context.Background(), "sess-1", "anything else you need?", imported)
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if !strings.Contains(result.Response, "Jane Doe") {
		t.Errorf("Validation summary should include the client name, got %q", result.Response)
	}
	if result.State.CurrentStage != session.StageConfirmation {
		t.Errorf("Expected confirmation stage, got %s", result.State.CurrentStage)
	}
	if !result.State.ValidationInProgress {
		t.Error("Expected validation to be in progress")
	}
}

func TestProcessMessageClarificationOnInvalidData(t *testing.T) {
	a, _ := newTestAgent(&llm.MockClient{Response: "ok"})

	imported := &State{
		ClientData: intake.ClientData{
			FullName:        "Jane Doe",
			Email:           "not-an-email",
			TransactionType: "buy",
		},
		CurrentStage: session.StageGathering,
	}

	result, err := a.ProcessMessage(context.Background(), "sess-1", "that's all I have", imported)
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if result.State.CurrentStage != session.StageClarification {
		t.Errorf("Expected clarification stage, got %s", result.State.CurrentStage)
	}
	if !strings.Contains(strings.ToLower(result.Response), "email") {
		t.Errorf("Clarification should mention the bad email, got %q", result.Response)
	}
	if !strings.Contains(result.Response, "- ") {
		t.Errorf("Clarification questions should be bulleted, got %q", result.Response)
	}
}

func TestProcessMessageConfirmationCompletesIntake(t *testing.T) {
	a, _ := newTestAgent(&llm.MockClient{Response: "ok"})

	imported := &State{
		ClientData: intake.ClientData{
			FullName:        "Jane Doe",
			TransactionType: "buy",
			Budget:          "$500k",
		},
		CurrentStage:         session.StageConfirmation,
		ValidationInProgress: true,
	}

	result, err := a.ProcessMessage(context.Background(), "sess-1", "Yes, that looks good", imported)
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if !result.State.IntakeComplete {
		t.Error("Expected intake to be complete after confirmation")
	}
	if result.State.CurrentStage != session.StageCompleted {
		t.Errorf("Expected completed stage, got %s", result.State.CurrentStage)
	}
	if !strings.Contains(result.Response, "buy") {
		t.Errorf("Closing message should mention the transaction type, got %q", result.Response)
	}
}

func TestProcessMessageRejectionResumesGathering(t *testing.T) {
	a, _ := newTestAgent(&llm.MockClient{Response: "What should I fix?"})

	imported := &State{
		ClientData: intake.ClientData{
			FullName:        "Jane Doe",
			TransactionType: "buy",
		},
		CurrentStage:         session.StageConfirmation,
		ValidationInProgress: true,
	}

	result, err := a.ProcessMessage(context.Background(), "sess-1", "No, my budget is actually $600k", imported)
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if result.State.IntakeComplete {
		t.Error("Intake should not complete without confirmation")
	}
	if result.State.CurrentStage != session.StageGathering {
		t.Errorf("Expected gathering stage, got %s", result.State.CurrentStage)
	}
}

func TestHistoryWindow(t *testing.T) {
	mock := &llm.MockClient{Response: "ok"}
	store := session.NewMemoryStore()
	a := New(mock, store, costs.NewRegistry(), 4)

	for i := 0; i < 5; i++ {
		if _, err := a.ProcessMessage(context.Background(), "sess-1", "hello again", nil); err != nil {
			t.Fatalf("ProcessMessage failed: %v", err)
		}
	}

	last := mock.Calls[len(mock.Calls)-1]
	// system prompt + at most 4 history entries
	if len(last) > 5 {
		t.Errorf("Expected at most 5 messages sent to LLM, got %d", len(last))
	}
	if last[0].Role != "system" {
		t.Errorf("Expected system prompt first, got %s", last[0].Role)
	}
}

func TestExtractClientData(t *testing.T) {
	tests := []struct {
		name    string
		message string
		check   func(t *testing.T, data intake.ClientData)
	}{
		{
			name:    "buy keyword",
			message: "I'm looking to buy a house",
			check: func(t *testing.T, data intake.ClientData) {
				if data.TransactionType != "buy" {
					t.Errorf("Expected buy, got %q", data.TransactionType)
				}
			},
		},
		{
			name:    "sell keyword",
			message: "We need to sell our condo",
			check: func(t *testing.T, data intake.ClientData) {
				if data.TransactionType != "sell" {
					t.Errorf("Expected sell, got %q", data.TransactionType)
				}
			},
		},
		{
			name:    "pre-approved loan",
			message: "I'm pre-approved for a mortgage",
			check: func(t *testing.T, data intake.ClientData) {
				if data.PreApproval == nil || !*data.PreApproval {
					t.Error("Expected pre-approval to be captured")
				}
				if data.PaymentMethod != "loan" {
					t.Errorf("Expected loan, got %q", data.PaymentMethod)
				}
			},
		},
		{
			name:    "email and phone",
			message: "Reach me at jane@example.com or +1 (512) 555-0142",
			check: func(t *testing.T, data intake.ClientData) {
				if data.Email != "jane@example.com" {
					t.Errorf("Expected email extracted, got %q", data.Email)
				}
				if data.Phone == "" {
					t.Error("Expected phone extracted")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ExtractClientData(tt.message))
		})
	}
}

func TestTransitionMessage(t *testing.T) {
	empty := session.NewData("sess-1")
	if got := TransitionMessage(empty); !strings.Contains(got, "get started") {
		t.Errorf("Expected fresh-start message, got %q", got)
	}

	named := session.NewData("sess-2")
	named.ClientData.FullName = "Jane Doe"
	named.ClientData.TransactionType = "buy"
	named.CurrentStage = session.StageGathering
	if got := TransitionMessage(named); !strings.Contains(got, "Jane Doe") {
		t.Errorf("Expected name in transition message, got %q", got)
	}

	done := session.NewData("sess-3")
	done.ClientData.FullName = "Jane Doe"
	done.IntakeComplete = true
	done.CurrentStage = session.StageCompleted
	if got := TransitionMessage(done); !strings.Contains(got, "completed") {
		t.Errorf("Expected completion acknowledged, got %q", got)
	}
}
