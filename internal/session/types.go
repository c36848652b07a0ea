package session

import (
	"time"

	"github.com/kalam360/intake-agent/internal/intake"
)

// Mode is the channel a session is currently using.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation. Messages are append-only.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Intake stages.
const (
	StageGreeting      = "greeting"
	StageGathering     = "gathering"
	StageClarification = "clarification"
	StageConfirmation  = "confirmation"
	StageCompleted     = "completed"
)

// Data is all serializable state for one intake session. It is what mode
// switches hand off between the text and voice agents, and what the Redis
// driver persists.
type Data struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"` // Monotonically increasing for optimistic locking

	Mode                 Mode              `json:"mode"`
	CurrentStage         string            `json:"current_stage"`
	IntakeComplete       bool              `json:"intake_complete"`
	ValidationInProgress bool              `json:"validation_in_progress"`
	ClientData           intake.ClientData `json:"client_data"`
	ConversationHistory  []Message         `json:"conversation_history"`
}

// NewData creates a fresh session in text mode at the greeting stage.
func NewData(id string) *Data {
	return &Data{
		ID:           id,
		Mode:         ModeText,
		CurrentStage: StageGreeting,
	}
}

// Append adds a message to the conversation history.
func (d *Data) Append(role Role, content string) {
	d.ConversationHistory = append(d.ConversationHistory, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}
