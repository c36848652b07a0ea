package voice

import (
	"github.com/kalam360/intake-agent/internal/agent"
)

// ClientMessage is a message from the browser over the voice websocket.
type ClientMessage struct {
	Event     string       `json:"event"`
	SessionID string       `json:"session_id,omitempty"`
	Media     *MediaFrame  `json:"media,omitempty"`
	State     *agent.State `json:"agent_state,omitempty"`
}

// MediaFrame carries one chunk of base64-encoded 16-bit PCM audio.
type MediaFrame struct {
	Payload    string `json:"payload"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// ServerMessage is a message sent to the browser.
type ServerMessage struct {
	Event     string       `json:"event"`
	SessionID string       `json:"session_id,omitempty"`
	Text      string       `json:"text,omitempty"`
	IsFinal   bool         `json:"is_final,omitempty"`
	Role      string       `json:"role,omitempty"`
	Media     *MediaFrame  `json:"media,omitempty"`
	Speaking  bool         `json:"speaking,omitempty"`
	State     *agent.State `json:"agent_state,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Event names on the voice websocket.
const (
	// client -> server
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"

	// server -> client
	EventTranscript = "transcript"
	EventReply      = "reply"
	EventSpeaking   = "speaking"
	EventState      = "state"
	EventError      = "error"
)
