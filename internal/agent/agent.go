package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kalam360/intake-agent/internal/costs"
	"github.com/kalam360/intake-agent/internal/intake"
	"github.com/kalam360/intake-agent/internal/llm"
	"github.com/kalam360/intake-agent/internal/observability"
	"github.com/kalam360/intake-agent/internal/session"
)

// fallbackResponse is returned verbatim when the LLM call fails.
const fallbackResponse = "I'm sorry, I encountered an error processing your request. Please try again."

// validationThreshold is the minimum number of captured fields before the
// agent pauses the conversation to validate what it has.
const validationThreshold = 3

// State is the portable conversation state exchanged between modes. A voice
// session exports it on hangup and the text agent imports it to continue the
// same intake without losing context.
type State struct {
	ClientData           intake.ClientData `json:"client_data"`
	ConversationHistory  []session.Message `json:"conversation_history"`
	CurrentStage         string            `json:"current_stage"`
	IntakeComplete       bool              `json:"intake_complete"`
	ValidationInProgress bool              `json:"validation_in_progress"`
}

// MessageResult carries the agent reply plus the updated session state.
type MessageResult struct {
	Response   string
	ClientData intake.ClientData
	State      State
}

// Agent runs the intake conversation: it captures structured client data
// from messages, validates once enough fields are present, and drives the
// confirmation and closing flow.
type Agent struct {
	llm           llm.Client
	store         session.Store
	costs         *costs.Registry
	metrics       *observability.SessionMetrics
	historyWindow int
	logger        zerolog.Logger
}

// New creates an intake agent backed by the given LLM client and session store.
func New(llmClient llm.Client, store session.Store, registry *costs.Registry, historyWindow int) *Agent {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Agent{
		llm:           llmClient,
		store:         store,
		costs:         registry,
		metrics:       observability.NewSessionMetrics("agent"),
		historyWindow: historyWindow,
		logger:        observability.Component("agent"),
	}
}

// InitialGreeting returns the greeting for a session, creating the session
// if it does not exist yet. The greeting is only appended to history once.
func (a *Agent) InitialGreeting(ctx context.Context, sessionID string) (*MessageResult, error) {
	data, created, err := a.getOrCreate(ctx, sessionID, nil)
	if err != nil {
		return nil, err
	}

	if len(data.ConversationHistory) == 0 {
		data.Append(session.RoleAssistant, intake.InitialGreeting)
		data.CurrentStage = session.StageGreeting
		if err := a.persist(ctx, data, created); err != nil {
			return nil, err
		}
	}

	return &MessageResult{
		Response:   intake.InitialGreeting,
		ClientData: data.ClientData,
		State:      ExportState(data),
	}, nil
}

// ProcessMessage handles one user turn: store the message, extract fields,
// and either validate, confirm, or generate the next conversational reply.
func (a *Agent) ProcessMessage(ctx context.Context, sessionID, message string, imported *State) (*MessageResult, error) {
	data, created, err := a.getOrCreate(ctx, sessionID, imported)
	if err != nil {
		return nil, err
	}

	data.Append(session.RoleUser, message)
	a.metrics.RecordMessage(string(data.Mode), string(session.RoleUser))

	extracted := ExtractClientData(message)
	data.ClientData.Merge(extracted)

	var response string
	switch {
	case data.ClientData.FieldCount() >= validationThreshold && !data.ValidationInProgress && !data.IntakeComplete:
		response = a.validate(data)
	default:
		response = a.generate(ctx, sessionID, data)
		if data.ValidationInProgress {
			if isConfirmation(message) {
				data.IntakeComplete = true
				data.ValidationInProgress = false
				data.CurrentStage = session.StageCompleted
				response = fmt.Sprintf(intake.ClosingMessage, transactionLabel(data.ClientData))
			} else {
				// Client corrected something; go back to gathering so the
				// updated answers get re-validated on the next pass.
				data.ValidationInProgress = false
				data.CurrentStage = session.StageGathering
			}
			a.metrics.RecordStage(data.CurrentStage)
		}
	}

	data.Append(session.RoleAssistant, response)
	a.metrics.RecordMessage(string(data.Mode), string(session.RoleAssistant))

	if err := a.persist(ctx, data, created); err != nil {
		return nil, err
	}

	return &MessageResult{
		Response:   response,
		ClientData: data.ClientData,
		State:      ExportState(data),
	}, nil
}

// ProcessVoiceHandoff imports conversation state handed over from text mode
// and returns the spoken transition message that opens the voice session.
func (a *Agent) ProcessVoiceHandoff(ctx context.Context, sessionID string, imported *State) (*MessageResult, error) {
	data, created, err := a.getOrCreate(ctx, sessionID, imported)
	if err != nil {
		return nil, err
	}

	data.Mode = session.ModeVoice
	message := TransitionMessage(data)
	data.Append(session.RoleAssistant, message)
	a.metrics.RecordModeSwitch(string(session.ModeText), string(session.ModeVoice), true)

	if err := a.persist(ctx, data, created); err != nil {
		return nil, err
	}

	return &MessageResult{
		Response:   message,
		ClientData: data.ClientData,
		State:      ExportState(data),
	}, nil
}

// validate runs section validation over the captured data and either asks
// the client to confirm a summary or asks clarification questions.
func (a *Agent) validate(data *session.Data) string {
	issues := intake.ValidateAll(&data.ClientData)
	if len(issues) == 0 {
		data.ValidationInProgress = true
		data.CurrentStage = session.StageConfirmation
		a.metrics.RecordStage(data.CurrentStage)
		return fmt.Sprintf(intake.ValidationPrompt, intake.Summarize(&data.ClientData))
	}

	questions := intake.GenerateClarificationQuestions(issues)
	for i, q := range questions {
		questions[i] = "- " + q
	}
	data.CurrentStage = session.StageClarification
	a.metrics.RecordStage(data.CurrentStage)
	return fmt.Sprintf(intake.ClarificationPrompt, strings.Join(questions, "\n"))
}

// generate asks the LLM for the next reply using a bounded history window.
func (a *Agent) generate(ctx context.Context, sessionID string, data *session.Data) string {
	history := data.ConversationHistory
	if len(history) > a.historyWindow {
		history = history[len(history)-a.historyWindow:]
	}

	messages := make([]llm.ChatMessage, 0, len(history)+1)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: intake.AgentInstructions})
	for _, m := range history {
		messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	completion, err := a.llm.Complete(ctx, messages)
	if err != nil {
		a.logger.Error().Err(err).Str("session_id", sessionID).Msg("LLM completion failed")
		a.metrics.RecordError("llm_completion", "agent")
		return fallbackResponse
	}

	if a.costs != nil {
		a.costs.ForSession(sessionID).TrackLLM(a.llm.Model(), completion.InputTokens, completion.OutputTokens)
	}
	return completion.Content
}

// getOrCreate loads the session or builds a new one, seeding it from the
// imported state when a mode switch hands the conversation over.
func (a *Agent) getOrCreate(ctx context.Context, sessionID string, imported *State) (*session.Data, bool, error) {
	data, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if data != nil {
		if imported != nil {
			ImportState(data, imported)
		}
		return data, false, nil
	}

	data = session.NewData(sessionID)
	if imported != nil {
		ImportState(data, imported)
	} else {
		a.metrics.RecordSessionStart()
	}
	return data, true, nil
}

func (a *Agent) persist(ctx context.Context, data *session.Data, created bool) error {
	if created {
		if err := a.store.Create(ctx, data); err != nil {
			return fmt.Errorf("creating session %s: %w", data.ID, err)
		}
		return nil
	}
	if err := a.store.Update(ctx, data); err != nil {
		return fmt.Errorf("updating session %s: %w", data.ID, err)
	}
	return nil
}

// ExportState snapshots the portable conversation state from a session.
func ExportState(data *session.Data) State {
	history := make([]session.Message, len(data.ConversationHistory))
	copy(history, data.ConversationHistory)
	return State{
		ClientData:           data.ClientData,
		ConversationHistory:  history,
		CurrentStage:         data.CurrentStage,
		IntakeComplete:       data.IntakeComplete,
		ValidationInProgress: data.ValidationInProgress,
	}
}

// ImportState overlays a portable state onto a session, replacing history
// and stage so the receiving mode continues where the other left off.
func ImportState(data *session.Data, state *State) {
	data.ClientData.Merge(state.ClientData)
	if len(state.ConversationHistory) > 0 {
		data.ConversationHistory = make([]session.Message, len(state.ConversationHistory))
		copy(data.ConversationHistory, state.ConversationHistory)
	}
	if state.CurrentStage != "" {
		data.CurrentStage = state.CurrentStage
	}
	data.IntakeComplete = state.IntakeComplete
	data.ValidationInProgress = state.ValidationInProgress
}

func transactionLabel(data intake.ClientData) string {
	if data.TransactionType == "" {
		return "real estate"
	}
	return data.TransactionType
}
