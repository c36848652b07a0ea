// Package client is a Go client for the intake agent API. It mirrors what a
// chat frontend keeps on its side of the wire: the session identity, current
// mode, conversation history, collected intake data, and voice connection
// credentials, advancing them through the backend endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kalam360/intake-agent/internal/observability"
)

const stageGreeting = "greeting"

// Fallback texts shown instead of surfacing transport errors to the user.
const (
	fallbackAssistantMessage = "Sorry, I encountered an error processing your message. Please try again."
	fallbackGreeting         = "Hello! I'm your real estate intake assistant. How can I help you today?"
)

// ErrSwitchInFlight is returned when a mode switch is attempted while
// another one has not settled yet.
var ErrSwitchInFlight = errors.New("mode switch already in progress")

// ConnectionDetails are the credentials for joining a voice session.
type ConnectionDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// Message is one turn of the conversation as the client sees it.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// agentState is the state snapshot exchanged with the backend.
type agentState struct {
	ClientData          ClientData     `json:"client_data"`
	ConversationHistory []historyEntry `json:"conversation_history"`
	CurrentStage        string         `json:"current_stage,omitempty"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type stateDelta struct {
	ClientData   ClientData `json:"client_data"`
	CurrentStage string     `json:"current_stage"`
}

// Store is the client-side source of truth for one intake session. All
// operations degrade gracefully: transport failures become fallback
// messages or aborted transitions, never inconsistent state.
type Store struct {
	baseURL        string
	connDetailsURL string
	httpClient     *http.Client
	logger         zerolog.Logger

	mu            sync.Mutex
	sessionID     string
	mode          Mode
	transitioning bool
	stage         string
	clientData    ClientData
	history       []Message
	connection    *ConnectionDetails
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// WithConnDetailsURL overrides the connection-details endpoint.
func WithConnDetailsURL(url string) Option {
	return func(s *Store) { s.connDetailsURL = url }
}

// NewStore creates a session store talking to the given intake API base URL
// (e.g. http://localhost:3000/api/intake). A fresh session identifier is
// generated; the session starts in text mode with empty history.
func NewStore(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:        baseURL,
		connDetailsURL: "/api/connection-details",
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		logger:         observability.Component("client"),
		sessionID:      uuid.New().String(),
		mode:           ModeText,
		stage:          stageGreeting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize fetches the initial greeting and appends it as an assistant
// message. Calling it twice appends two greetings; call once per session.
func (s *Store) Initialize(ctx context.Context) string {
	s.mu.Lock()
	sessionID := s.sessionID
	s.mu.Unlock()

	var resp struct {
		Greeting string      `json:"greeting"`
		State    *stateDelta `json:"state"`
	}
	err := s.get(ctx, fmt.Sprintf("%s/initial-greeting/%s", s.baseURL, sessionID), &resp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || resp.Greeting == "" {
		s.logger.Warn().Err(err).Msg("Failed to fetch initial greeting, using fallback")
		s.appendLocked("assistant", fallbackGreeting)
		return fallbackGreeting
	}

	s.appendLocked("assistant", resp.Greeting)
	s.mergeDeltaLocked(resp.State)
	return resp.Greeting
}

// SendTextMessage sends one user message. The user turn is appended
// immediately and is not rolled back on failure; the returned string is the
// assistant message appended after resolution, which is a fixed fallback
// when the backend could not be reached.
func (s *Store) SendTextMessage(ctx context.Context, text string) string {
	s.mu.Lock()
	s.appendLocked("user", text)
	body := map[string]interface{}{
		"message":     text,
		"session_id":  s.sessionID,
		"agent_state": s.snapshotLocked(),
	}
	s.mu.Unlock()

	var resp struct {
		Response   string      `json:"response"`
		ClientData ClientData  `json:"client_data"`
		State      *stateDelta `json:"state"`
	}
	err := s.post(ctx, s.baseURL+"/text-message", body, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || resp.Response == "" {
		s.logger.Warn().Err(err).Msg("Text message failed, appending fallback")
		s.appendLocked("assistant", fallbackAssistantMessage)
		return fallbackAssistantMessage
	}

	s.appendLocked("assistant", resp.Response)
	s.clientData.Merge(resp.ClientData)
	s.mergeDeltaLocked(resp.State)
	return resp.Response
}

// SwitchMode transitions the session between text and voice. The switch is
// fail-closed: on any error the mode, history and connection details are
// left exactly as they were, and the transitioning flag is always cleared.
func (s *Store) SwitchMode(ctx context.Context, target Mode) error {
	s.mu.Lock()
	if s.transitioning {
		s.mu.Unlock()
		return ErrSwitchInFlight
	}
	s.transitioning = true
	body := map[string]interface{}{
		"session_id":   s.sessionID,
		"current_mode": s.mode,
		"new_mode":     target,
		"agent_state":  s.snapshotLocked(),
	}
	s.mu.Unlock()

	var resp struct {
		Mode              string `json:"mode"`
		Message           string `json:"message"`
		ConnectionDetails *struct {
			URL   string      `json:"url"`
			Token string      `json:"token"`
			State *stateDelta `json:"state"`
		} `json:"connection_details"`
		State *stateDelta `json:"state"`
	}
	err := s.post(ctx, s.baseURL+"/switch-mode", body, &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitioning = false

	if err != nil {
		s.logger.Warn().Err(err).Str("target", string(target)).Msg("Mode switch failed, keeping current mode")
		return err
	}

	switch target {
	case ModeVoice:
		if resp.ConnectionDetails == nil {
			err := errors.New("switch response missing connection details")
			s.logger.Warn().Err(err).Msg("Mode switch failed, keeping current mode")
			return err
		}
		s.connection = &ConnectionDetails{
			URL:   resp.ConnectionDetails.URL,
			Token: resp.ConnectionDetails.Token,
		}
		s.mode = ModeVoice

	case ModeText:
		s.connection = nil
		s.mode = ModeText
		if resp.Message != "" {
			s.appendLocked("assistant", resp.Message)
		}
		s.mergeDeltaLocked(resp.State)
	}

	return nil
}

// UpdateClientData shallow-merges partial intake data, last write wins.
func (s *Store) UpdateClientData(partial ClientData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientData.Merge(partial)
}

// Reset discards the session: a new identifier is generated and all state
// returns to initial values, then a fresh greeting is fetched.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	s.sessionID = uuid.New().String()
	s.mode = ModeText
	s.transitioning = false
	s.stage = stageGreeting
	s.clientData = ClientData{}
	s.history = nil
	s.connection = nil
	s.mu.Unlock()

	s.Initialize(ctx)
}

// FetchConnectionDetails calls the dedicated connection-details endpoint,
// used by voice activation when no credentials are held from a mode switch.
func (s *Store) FetchConnectionDetails(ctx context.Context) (*ConnectionDetails, error) {
	var resp struct {
		ServerURL        string `json:"serverUrl"`
		ParticipantToken string `json:"participantToken"`
	}
	if err := s.get(ctx, s.connDetailsURL, &resp); err != nil {
		return nil, err
	}
	details := &ConnectionDetails{URL: resp.ServerURL, Token: resp.ParticipantToken}

	s.mu.Lock()
	s.connection = details
	s.mu.Unlock()
	return details, nil
}

// SessionID returns the current session identifier.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Mode returns the current interaction mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Transitioning reports whether a mode switch is in flight.
func (s *Store) Transitioning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitioning
}

// Stage returns the server-assigned conversation stage.
func (s *Store) Stage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// ClientData returns a copy of the collected intake data.
func (s *Store) ClientData() ClientData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientData
}

// History returns a copy of the conversation history.
func (s *Store) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Connection returns the held voice credentials, nil outside voice mode.
func (s *Store) Connection() *ConnectionDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connection == nil {
		return nil
	}
	c := *s.connection
	return &c
}

func (s *Store) appendLocked(role, content string) {
	s.history = append(s.history, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

func (s *Store) snapshotLocked() agentState {
	entries := make([]historyEntry, len(s.history))
	for i, m := range s.history {
		entries[i] = historyEntry{Role: m.Role, Content: m.Content}
	}
	return agentState{
		ClientData:          s.clientData,
		ConversationHistory: entries,
		CurrentStage:        s.stage,
	}
}

func (s *Store) mergeDeltaLocked(delta *stateDelta) {
	if delta == nil {
		return
	}
	s.clientData.Merge(delta.ClientData)
	if delta.CurrentStage != "" {
		s.stage = delta.CurrentStage
	}
}

func (s *Store) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *Store) post(ctx context.Context, url string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Store) do(req *http.Request, out interface{}) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
