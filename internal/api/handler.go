package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kalam360/intake-agent/internal/agent"
	"github.com/kalam360/intake-agent/internal/config"
	"github.com/kalam360/intake-agent/internal/costs"
	"github.com/kalam360/intake-agent/internal/livekit"
	"github.com/kalam360/intake-agent/internal/observability"
	"github.com/kalam360/intake-agent/internal/session"
)

// TextMessageRequest is the body of POST /api/intake/text-message.
type TextMessageRequest struct {
	Message   string       `json:"message"`
	SessionID string       `json:"session_id"`
	State     *agent.State `json:"agent_state,omitempty"`
}

// TextMessageResponse carries the agent reply and updated state.
type TextMessageResponse struct {
	Response   string      `json:"response"`
	ClientData interface{} `json:"client_data"`
	State      agent.State `json:"state"`
}

// ModeSwitchRequest is the body of POST /api/intake/switch-mode.
type ModeSwitchRequest struct {
	SessionID   string       `json:"session_id"`
	CurrentMode string       `json:"current_mode"`
	NewMode     string       `json:"new_mode"`
	State       *agent.State `json:"agent_state,omitempty"`
}

// VoiceConnectionDetails is handed to the browser when entering voice mode.
type VoiceConnectionDetails struct {
	URL   string       `json:"url"`
	Token string       `json:"token"`
	State *agent.State `json:"state,omitempty"`
}

// Handler serves the intake HTTP API.
type Handler struct {
	config *config.Config
	agent  *agent.Agent
	store  session.Store
	costs  *costs.Registry
	minter *livekit.TokenMinter
	logger zerolog.Logger
}

// NewHandler creates the intake API handler.
func NewHandler(cfg *config.Config, ag *agent.Agent, store session.Store, registry *costs.Registry, minter *livekit.TokenMinter) *Handler {
	return &Handler{
		config: cfg,
		agent:  ag,
		store:  store,
		costs:  registry,
		minter: minter,
		logger: observability.Component("api"),
	}
}

// Register mounts all intake routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/intake/text-message", h.TextMessage)
	mux.HandleFunc("POST /api/intake/switch-mode", h.SwitchMode)
	mux.HandleFunc("GET /api/intake/initial-greeting/{session_id}", h.InitialGreeting)
	mux.HandleFunc("GET /api/intake/cost-summary/{session_id}", h.CostSummary)
}

// TextMessage processes one user message in text mode.
func (h *Handler) TextMessage(w http.ResponseWriter, r *http.Request) {
	var req TextMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "message and session_id are required")
		return
	}

	result, err := h.agent.ProcessMessage(r.Context(), req.SessionID, req.Message, req.State)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to process text message")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, TextMessageResponse{
		Response:   result.Response,
		ClientData: result.ClientData,
		State:      result.State,
	})
}

// SwitchMode moves a session between text and voice modes. Only the two
// valid transitions are accepted; anything else is a 400.
func (h *Handler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req ModeSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		h.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	switch {
	case req.CurrentMode == string(session.ModeText) && req.NewMode == string(session.ModeVoice):
		h.switchToVoice(w, r, &req)
	case req.CurrentMode == string(session.ModeVoice) && req.NewMode == string(session.ModeText):
		h.switchToText(w, r, &req)
	default:
		h.writeError(w, http.StatusBadRequest, "Invalid mode switch")
	}
}

func (h *Handler) switchToVoice(w http.ResponseWriter, r *http.Request, req *ModeSwitchRequest) {
	details, err := h.minter.Mint(fmt.Sprintf("intake-%s", req.SessionID), req.SessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to mint voice token")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	connection := &VoiceConnectionDetails{
		URL:   details.URL,
		Token: details.Token,
	}

	// Export current text-mode state so the voice session resumes it
	data, err := h.store.Get(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to load session for export")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if data != nil {
		data.Mode = session.ModeVoice
		state := agent.ExportState(data)
		connection.State = &state
		if err := h.store.Update(r.Context(), data); err != nil {
			h.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("Failed to record mode switch")
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":               session.ModeVoice,
		"connection_details": connection,
	})
}

func (h *Handler) switchToText(w http.ResponseWriter, r *http.Request, req *ModeSwitchRequest) {
	data, err := h.store.Get(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to load session")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created := false
	if data == nil {
		data = session.NewData(req.SessionID)
		created = true
	}
	if req.State != nil {
		agent.ImportState(data, req.State)
	}
	data.Mode = session.ModeText

	message := agent.TransitionMessage(data)
	data.Append(session.RoleAssistant, message)

	if created {
		err = h.store.Create(r.Context(), data)
	} else {
		err = h.store.Update(r.Context(), data)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to persist mode switch")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":    session.ModeText,
		"message": message,
		"state":   agent.ExportState(data),
	})
}

// InitialGreeting returns the greeting for a session, creating it if needed.
func (h *Handler) InitialGreeting(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.agent.InitialGreeting(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to get initial greeting")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"greeting": result.Response,
		"state":    result.State,
	})
}

// CostSummary reports accumulated API costs for a session. Unknown sessions
// get a zero-valued summary rather than a 404.
func (h *Handler) CostSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	tracker := h.costs.Lookup(sessionID)
	if tracker == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{
			"total_cost":    "$0.0000",
			"audio_seconds": "0.0s",
			"tokens":        "0",
			"characters":    "0",
		})
		return
	}

	summary := tracker.Summarize()
	h.writeJSON(w, http.StatusOK, map[string]string{
		"total_cost":    fmt.Sprintf("$%.4f", summary.TotalCost),
		"audio_seconds": fmt.Sprintf("%.1fs", summary.TotalAudioSeconds),
		"tokens":        fmt.Sprintf("%d", summary.TotalInputTokens+summary.TotalOutputTokens),
		"characters":    fmt.Sprintf("%d", summary.TotalCharacters),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}
