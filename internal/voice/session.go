package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kalam360/intake-agent/internal/agent"
	"github.com/kalam360/intake-agent/internal/audio"
	"github.com/kalam360/intake-agent/internal/config"
	"github.com/kalam360/intake-agent/internal/costs"
	"github.com/kalam360/intake-agent/internal/observability"
	"github.com/kalam360/intake-agent/internal/stt"
	"github.com/kalam360/intake-agent/internal/tts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The edge proxy fronts this endpoint; origin checks happen there.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Session holds the state of one browser voice connection. Audio flows
// browser -> STT -> agent -> TTS -> browser, with the conversation state
// shared with text mode through the session store.
type Session struct {
	conn *websocket.Conn

	sessionID string

	mu       sync.RWMutex
	isActive bool

	// Audio channels
	audioIn  chan []byte // decoded PCM from the browser
	audioOut chan []byte // synthesized PCM for playback

	audioOutBuffer *audio.RingBuffer
	vadDetector    *audio.VADDetector

	sttClient stt.Client
	ttsClient tts.Client
	agent     *agent.Agent
	costs     *costs.Registry

	// Agent replies waiting for synthesis
	replyQueue chan string

	// Last exported conversation state, sent to the browser on stop
	lastState *agent.State

	config *config.Config

	correlationID string
	metrics       *observability.SessionMetrics
	logger        zerolog.Logger

	writeMu sync.Mutex
	done    chan struct{}
	errChan chan error
}

// NewSession creates a voice session over an established websocket.
func NewSession(conn *websocket.Conn, cfg *config.Config, ag *agent.Agent, sttClient stt.Client, ttsClient tts.Client, registry *costs.Registry) *Session {
	vadConfig := &audio.VADConfig{
		EnergyThreshold: cfg.VADEnergyThreshold,
		SilenceFrames:   cfg.VADSilenceFrames,
		FrameSize:       320, // 20ms at 16kHz
	}

	correlationID := observability.NewCorrelationID()
	sessionID := fmt.Sprintf("voice-%s", uuid.New().String())

	logger := observability.WithCorrelationID(correlationID).
		With().
		Str("session_id", sessionID).
		Logger()

	metrics := observability.NewSessionMetrics(sessionID)
	metrics.RecordSessionStart()

	return &Session{
		conn:           conn,
		sessionID:      sessionID,
		audioIn:        make(chan []byte, 100),
		audioOut:       make(chan []byte, 100),
		audioOutBuffer: audio.NewRingBuffer(cfg.AudioBufferSize),
		vadDetector:    audio.NewVADDetector(vadConfig),
		sttClient:      sttClient,
		ttsClient:      ttsClient,
		agent:          ag,
		costs:          registry,
		replyQueue:     make(chan string, 50),
		config:         cfg,
		correlationID:  correlationID,
		metrics:        metrics,
		logger:         logger,
		done:           make(chan struct{}),
		errChan:        make(chan error, 1),
		isActive:       true,
	}
}

// Handler is the websocket entry point for browser voice connections.
func Handler(cfg *config.Config, ag *agent.Agent, registry *costs.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger := observability.Component("voice")
			logger.Error().Err(err).Msg("Failed to upgrade connection to websocket")
			return
		}
		defer conn.Close()

		session := NewSession(conn, cfg, ag, stt.NewDeepgramClient(cfg), tts.NewCartesiaClient(cfg), registry)
		session.Run()
	}
}

// Run starts the processing goroutines and blocks until the session ends.
func (s *Session) Run() {
	go s.readLoop()
	go s.processIncomingAudio()
	go s.processReplies()
	go s.processOutgoingAudio()

	select {
	case <-s.done:
		s.logger.Info().Msg("Voice session ended")
	case err := <-s.errChan:
		s.logger.Error().Err(err).Msg("Voice session error")
	}
	s.metrics.RecordSessionEnd()
}

// readLoop handles all incoming websocket messages from the browser.
func (s *Session) readLoop() {
	defer func() {
		if err := s.sttClient.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing STT client")
		}
		if err := s.ttsClient.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing TTS client")
		}
		close(s.done)
	}()

	for {
		s.mu.RLock()
		active := s.isActive
		s.mu.RUnlock()
		if !active {
			return
		}

		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Websocket read error")
			}
			s.mu.Lock()
			s.isActive = false
			s.mu.Unlock()
			return
		}

		switch msg.Event {
		case EventStart:
			s.handleStart(&msg)

		case EventMedia:
			if msg.Media != nil {
				s.handleMediaFrame(msg.Media)
			}

		case EventStop:
			s.logger.Info().Msg("Voice session stopped by client")
			s.mu.Lock()
			s.isActive = false
			state := s.lastState
			s.mu.Unlock()

			if err := s.sttClient.Stop(); err != nil {
				s.logger.Error().Err(err).Msg("Error stopping STT client")
			}
			// Hand the conversation state back so text mode can continue it
			s.send(&ServerMessage{Event: EventState, SessionID: s.sessionID, State: state})
			return

		default:
			s.logger.Debug().Str("event", msg.Event).Msg("Unknown client event")
		}
	}
}

// handleStart begins a voice conversation, optionally resuming imported
// state from a text session.
func (s *Session) handleStart(msg *ClientMessage) {
	if msg.SessionID != "" {
		s.mu.Lock()
		s.sessionID = msg.SessionID
		s.mu.Unlock()
	}

	if err := s.sttClient.Start(); err != nil {
		s.logger.Error().Err(err).Msg("Error starting STT client")
		s.metrics.RecordError("stt_start", "voice")
		s.send(&ServerMessage{Event: EventError, Error: "speech recognition unavailable"})
	} else {
		go s.processTranscriptions()
	}

	ctx := context.Background()
	var greeting string
	if msg.State != nil {
		result, err := s.agent.ProcessVoiceHandoff(ctx, s.sessionID, msg.State)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to import conversation state")
			s.send(&ServerMessage{Event: EventError, Error: "failed to resume conversation"})
			return
		}
		greeting = result.Response
		s.setLastState(result.State)
	} else {
		result, err := s.agent.InitialGreeting(ctx, s.sessionID)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to start conversation")
			s.send(&ServerMessage{Event: EventError, Error: "failed to start conversation"})
			return
		}
		greeting = result.Response
		s.setLastState(result.State)
	}

	s.send(&ServerMessage{Event: EventReply, SessionID: s.sessionID, Text: greeting, Role: "assistant"})
	s.queueReply(greeting)
}

// handleMediaFrame decodes one audio frame and queues it for processing.
func (s *Session) handleMediaFrame(media *MediaFrame) {
	audioData, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode base64 audio")
		return
	}

	select {
	case s.audioIn <- audioData:
	default:
		s.logger.Warn().Msg("audioIn channel full, dropping audio chunk")
	}
}

// processIncomingAudio runs VAD over browser audio and forwards it to STT.
func (s *Session) processIncomingAudio() {
	for {
		select {
		case chunk := <-s.audioIn:
			s.metrics.RecordAudioBytes("in", int64(len(chunk)))

			samples := audio.BytesToSamples(chunk)
			_, speechStarted, speechEnded := s.vadDetector.ProcessFrame(samples)
			if speechStarted {
				s.send(&ServerMessage{Event: EventSpeaking, Speaking: true})
				// Barge-in: the user talking cancels any active playback
				if s.ttsClient.IsActive() {
					if err := s.ttsClient.Stop(); err != nil {
						s.logger.Error().Err(err).Msg("Error stopping TTS")
					}
				}
			}
			if speechEnded {
				s.send(&ServerMessage{Event: EventSpeaking, Speaking: false})
			}

			if err := s.sttClient.SendAudio(chunk); err != nil {
				s.logger.Error().Err(err).Msg("Error sending audio to STT")
				s.metrics.RecordError("stt_send", "voice")
			}

		case <-s.done:
			return
		}
	}
}

// processTranscriptions consumes STT results, relays them to the browser,
// and hands final utterances to the agent.
func (s *Session) processTranscriptions() {
	transcripts := s.sttClient.Transcriptions()
	var lastFinalText string

	for {
		select {
		case result := <-transcripts:
			if result == nil {
				s.logger.Debug().Msg("Transcription channel closed")
				return
			}

			s.send(&ServerMessage{
				Event:   EventTranscript,
				Text:    result.Text,
				IsFinal: result.IsFinal,
				Role:    "user",
			})

			if !result.IsFinal {
				continue
			}
			// Deepgram may repeat final results
			if result.Text == "" || result.Text == lastFinalText {
				continue
			}
			lastFinalText = result.Text

			s.metrics.RecordSTT(true)
			if s.costs != nil && result.Duration > 0 {
				s.costs.ForSession(s.sessionID).TrackSTT(s.config.DeepgramModel, result.Duration)
			}

			reply, err := s.agent.ProcessMessage(context.Background(), s.sessionID, result.Text, nil)
			if err != nil {
				s.logger.Error().Err(err).Msg("Agent failed to process utterance")
				s.metrics.RecordError("agent_process", "voice")
				continue
			}
			s.setLastState(reply.State)

			s.send(&ServerMessage{Event: EventReply, SessionID: s.sessionID, Text: reply.Response, Role: "assistant"})
			s.queueReply(reply.Response)

		case <-s.done:
			return
		}
	}
}

// processReplies synthesizes queued agent replies and streams the audio out.
func (s *Session) processReplies() {
	for {
		select {
		case text := <-s.replyQueue:
			s.metrics.RecordTTSStart()
			audioChan, err := s.ttsClient.Synthesize(text)
			if err != nil {
				s.logger.Error().Err(err).Msg("Error synthesizing reply")
				s.metrics.RecordTTSEnd(false)
				continue
			}

			if s.costs != nil {
				s.costs.ForSession(s.sessionID).TrackTTS(s.config.CartesiaModelID, len(text))
			}

			for chunk := range audioChan {
				select {
				case s.audioOut <- chunk.Data:
				default:
					s.logger.Warn().Msg("audioOut channel full, dropping TTS audio")
				}
			}
			s.metrics.RecordTTSEnd(true)

		case <-s.done:
			return
		}
	}
}

// processOutgoingAudio streams synthesized audio frames to the browser.
func (s *Session) processOutgoingAudio() {
	for {
		select {
		case chunk := <-s.audioOut:
			written := s.audioOutBuffer.Write(chunk)
			if written < len(chunk) {
				s.logger.Warn().Int("dropped", len(chunk)-written).Msg("audioOut buffer overflow")
			}

			bufferData := make([]byte, len(chunk))
			read := s.audioOutBuffer.Read(bufferData)
			if read > 0 {
				s.metrics.RecordAudioBytes("out", int64(read))
				s.send(&ServerMessage{
					Event: EventMedia,
					Media: &MediaFrame{
						Payload:    base64.StdEncoding.EncodeToString(bufferData[:read]),
						SampleRate: 16000,
					},
				})
			}

		case <-s.done:
			return
		}
	}
}

// send writes one message to the browser. Writes are serialized because
// gorilla connections allow a single concurrent writer.
func (s *Session) send(msg *ServerMessage) {
	s.mu.RLock()
	active := s.isActive
	s.mu.RUnlock()
	if !active && msg.Event != EventState {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Error().Err(err).Str("event", msg.Event).Msg("Websocket write failed")
	}
}

func (s *Session) queueReply(text string) {
	select {
	case s.replyQueue <- text:
	default:
		s.logger.Warn().Msg("Reply queue full, dropping synthesis request")
	}
}

func (s *Session) setLastState(state agent.State) {
	s.mu.Lock()
	s.lastState = &state
	s.mu.Unlock()
}

// SessionID returns the session identifier.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// IsActive reports whether the session is still running.
func (s *Session) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isActive
}
