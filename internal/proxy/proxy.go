package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kalam360/intake-agent/internal/livekit"
	"github.com/kalam360/intake-agent/internal/observability"
)

// upstreamErrorBody is sent verbatim whenever the intake backend cannot be
// reached or returns garbage. Clients key their fallback handling off it.
const upstreamErrorBody = `{"error": "Failed to communicate with intake agent"}`

// Forwarder relays /api/intake/* requests to the intake backend, preserving
// method, subpath, query and JSON body.
type Forwarder struct {
	upstreamBase string
	client       *http.Client
	logger       zerolog.Logger
}

// NewForwarder creates a forwarder for the given upstream base URL
// (e.g. http://localhost:8000/api/intake).
func NewForwarder(upstreamBase string) *Forwarder {
	return &Forwarder{
		upstreamBase: strings.TrimSuffix(upstreamBase, "/"),
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       observability.Component("proxy"),
	}
}

// ServeHTTP implements http.Handler for paths under /api/intake/.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subpath := strings.TrimPrefix(r.URL.Path, "/api/intake")
	target := f.upstreamBase + subpath
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		f.fail(w, err)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.fail(w, err)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		f.logger.Warn().Err(err).Msg("Error streaming upstream response")
	}
}

func (f *Forwarder) fail(w http.ResponseWriter, err error) {
	f.logger.Error().Err(err).Msg("Upstream request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintln(w, upstreamErrorBody)
}

// ConnectionDetailsResponse is what the browser needs to join a voice room.
type ConnectionDetailsResponse struct {
	ServerURL        string `json:"serverUrl"`
	RoomName         string `json:"roomName"`
	ParticipantName  string `json:"participantName"`
	ParticipantToken string `json:"participantToken"`
}

// ConnectionDetailsHandler mints LiveKit credentials at the edge so voice
// mode can start without a round trip through the intake backend.
func ConnectionDetailsHandler(minter *livekit.TokenMinter) http.HandlerFunc {
	logger := observability.Component("proxy")
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		identity := fmt.Sprintf("visitor-%s", uuid.New().String()[:8])
		room := fmt.Sprintf("intake-%s", uuid.New().String()[:8])

		details, err := minter.Mint(room, identity)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to mint connection details")
			http.Error(w, `{"error": "failed to create connection details"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ConnectionDetailsResponse{
			ServerURL:        details.URL,
			RoomName:         room,
			ParticipantName:  identity,
			ParticipantToken: details.Token,
		}); err != nil {
			logger.Error().Err(err).Msg("Failed to encode connection details")
		}
	}
}
