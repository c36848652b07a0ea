package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kalam360/intake-agent/internal/observability"
)

// ErrNotConnected is returned when audio is sent before the voice session
// has been activated.
var ErrNotConnected = errors.New("voice session not connected")

// Wire events exchanged with the voice gateway.
const (
	voiceEventStart      = "start"
	voiceEventMedia      = "media"
	voiceEventStop       = "stop"
	voiceEventTranscript = "transcript"
	voiceEventReply      = "reply"
	voiceEventError      = "error"
)

type voiceClientMessage struct {
	Event     string           `json:"event"`
	SessionID string           `json:"session_id,omitempty"`
	Media     *voiceMediaFrame `json:"media,omitempty"`
}

type voiceMediaFrame struct {
	Payload    string `json:"payload"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

type voiceServerMessage struct {
	Event     string           `json:"event"`
	SessionID string           `json:"session_id,omitempty"`
	Text      string           `json:"text,omitempty"`
	IsFinal   bool             `json:"is_final,omitempty"`
	Role      string           `json:"role,omitempty"`
	Media     *voiceMediaFrame `json:"media,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// TranscriptHandler receives transcript segments from the gateway.
type TranscriptHandler func(role, text string, isFinal bool)

// ReplyHandler receives assistant reply texts from the gateway.
type ReplyHandler func(text string)

// VoiceSession manages the client side of a voice connection. Activating
// the microphone connects the media session first if it is not connected
// yet; deactivating only mutes the microphone and leaves the session
// connected. Disconnection happens only through an explicit Disconnect.
type VoiceSession struct {
	store  *Store
	dialer *websocket.Dialer
	logger zerolog.Logger

	onTranscript TranscriptHandler
	onReply      ReplyHandler

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	micEnabled bool
	done       chan struct{}
}

// VoiceOption configures a VoiceSession.
type VoiceOption func(*VoiceSession)

// WithTranscriptHandler sets the callback for transcript events.
func WithTranscriptHandler(h TranscriptHandler) VoiceOption {
	return func(v *VoiceSession) { v.onTranscript = h }
}

// WithReplyHandler sets the callback for assistant reply events.
func WithReplyHandler(h ReplyHandler) VoiceOption {
	return func(v *VoiceSession) { v.onReply = h }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) VoiceOption {
	return func(v *VoiceSession) { v.dialer = d }
}

// NewVoiceSession creates a voice session bound to a store. The store
// supplies the session identity and connection details.
func NewVoiceSession(store *Store, opts ...VoiceOption) *VoiceSession {
	v := &VoiceSession{
		store:  store,
		dialer: websocket.DefaultDialer,
		logger: observability.Component("client_voice"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ActivateMicrophone enables the microphone, connecting the media session
// first when no connection exists. Connection details come from the store
// if a prior mode switch populated them, otherwise from the dedicated
// connection-details endpoint.
func (v *VoiceSession) ActivateMicrophone(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.connected {
		details := v.store.Connection()
		if details == nil {
			fetched, err := v.store.FetchConnectionDetails(ctx)
			if err != nil {
				return fmt.Errorf("fetching connection details: %w", err)
			}
			details = fetched
		}
		if err := v.connectLocked(ctx, details); err != nil {
			return err
		}
	}

	v.micEnabled = true
	v.logger.Debug().Msg("Microphone activated")
	return nil
}

// DeactivateMicrophone mutes the microphone. The media session stays
// connected; only an explicit Disconnect tears it down.
func (v *VoiceSession) DeactivateMicrophone() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.micEnabled = false
	v.logger.Debug().Msg("Microphone deactivated")
}

// SendAudio forwards one PCM frame to the gateway. Frames sent while the
// microphone is muted are dropped silently.
func (v *VoiceSession) SendAudio(frame []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.connected {
		return ErrNotConnected
	}
	if !v.micEnabled {
		return nil
	}

	msg := voiceClientMessage{
		Event: voiceEventMedia,
		Media: &voiceMediaFrame{
			Payload:    base64.StdEncoding.EncodeToString(frame),
			SampleRate: 16000,
		},
	}
	return v.conn.WriteJSON(msg)
}

// Disconnect closes the media session.
func (v *VoiceSession) Disconnect() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.connected {
		return nil
	}

	v.micEnabled = false
	v.connected = false
	close(v.done)

	stopErr := v.conn.WriteJSON(voiceClientMessage{Event: voiceEventStop})
	closeErr := v.conn.Close()
	v.conn = nil

	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

// Connected reports whether the media session is connected.
func (v *VoiceSession) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// MicrophoneEnabled reports whether the microphone is currently live.
func (v *VoiceSession) MicrophoneEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.micEnabled
}

func (v *VoiceSession) connectLocked(ctx context.Context, details *ConnectionDetails) error {
	header := http.Header{}
	if details.Token != "" {
		header.Set("Authorization", "Bearer "+details.Token)
	}

	conn, resp, err := v.dialer.DialContext(ctx, details.URL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("connecting voice session: %w", err)
	}

	start := voiceClientMessage{
		Event:     voiceEventStart,
		SessionID: v.store.SessionID(),
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		return fmt.Errorf("starting voice session: %w", err)
	}

	v.conn = conn
	v.connected = true
	v.done = make(chan struct{})
	go v.readLoop(conn, v.done)

	v.logger.Info().Str("url", details.URL).Msg("Voice session connected")
	return nil
}

func (v *VoiceSession) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		var msg voiceServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-done:
			default:
				v.logger.Warn().Err(err).Msg("Voice session read failed")
			}
			return
		}

		switch msg.Event {
		case voiceEventTranscript:
			if v.onTranscript != nil {
				v.onTranscript(msg.Role, msg.Text, msg.IsFinal)
			}
		case voiceEventReply:
			if v.onReply != nil {
				v.onReply(msg.Text)
			}
		case voiceEventError:
			v.logger.Warn().Str("error", msg.Error).Msg("Voice session error event")
		}
	}
}
