package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeGateway is a minimal voice gateway for VoiceSession tests.
type fakeGateway struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	conn     *websocket.Conn
	received []voiceClientMessage
	ready    chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		ready:    make(chan struct{}),
	}
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
	close(g.ready)

	for {
		var msg voiceClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		g.mu.Lock()
		g.received = append(g.received, msg)
		g.mu.Unlock()
	}
}

func (g *fakeGateway) push(t *testing.T, msg voiceServerMessage) {
	t.Helper()
	select {
	case <-g.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway never received a connection")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.conn.WriteJSON(msg); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func (g *fakeGateway) messages() []voiceClientMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]voiceClientMessage, len(g.received))
	copy(out, g.received)
	return out
}

func (g *fakeGateway) waitForMessages(t *testing.T, n int) []voiceClientMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := g.messages(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d gateway messages, got %d", n, len(g.messages()))
	return nil
}

func voiceTestStore(t *testing.T, gatewayURL string) *Store {
	t.Helper()
	backend := newFakeBackend()
	backend.connURL = gatewayURL
	server := httptest.NewServer(backend.mux)
	t.Cleanup(server.Close)
	return NewStore(server.URL, WithConnDetailsURL(server.URL+"/connection-details"))
}

func TestVoiceSession_ActivateConnectsThenEnablesMic(t *testing.T) {
	gateway := newFakeGateway()
	gwServer := httptest.NewServer(gateway)
	defer gwServer.Close()
	wsURL := "ws" + strings.TrimPrefix(gwServer.URL, "http")

	store := voiceTestStore(t, wsURL)
	voice := NewVoiceSession(store)

	if err := voice.ActivateMicrophone(context.Background()); err != nil {
		t.Fatalf("ActivateMicrophone: %v", err)
	}
	defer voice.Disconnect()

	if !voice.Connected() {
		t.Error("expected session connected after activation")
	}
	if !voice.MicrophoneEnabled() {
		t.Error("expected microphone enabled after activation")
	}

	msgs := gateway.waitForMessages(t, 1)
	if msgs[0].Event != voiceEventStart {
		t.Errorf("expected start event first, got %q", msgs[0].Event)
	}
	if msgs[0].SessionID != store.SessionID() {
		t.Errorf("start carried session %q, store has %q", msgs[0].SessionID, store.SessionID())
	}
}

func TestVoiceSession_DeactivateLeavesSessionConnected(t *testing.T) {
	gateway := newFakeGateway()
	gwServer := httptest.NewServer(gateway)
	defer gwServer.Close()
	wsURL := "ws" + strings.TrimPrefix(gwServer.URL, "http")

	store := voiceTestStore(t, wsURL)
	voice := NewVoiceSession(store)

	if err := voice.ActivateMicrophone(context.Background()); err != nil {
		t.Fatalf("ActivateMicrophone: %v", err)
	}
	defer voice.Disconnect()

	voice.DeactivateMicrophone()

	if voice.MicrophoneEnabled() {
		t.Error("expected microphone muted")
	}
	if !voice.Connected() {
		t.Error("expected session to stay connected after mic deactivation")
	}

	// Muted frames are dropped, not errors.
	if err := voice.SendAudio([]byte{0, 0, 0, 0}); err != nil {
		t.Fatalf("SendAudio while muted: %v", err)
	}

	msgs := gateway.waitForMessages(t, 1)
	for _, msg := range msgs {
		if msg.Event == voiceEventMedia {
			t.Error("muted frame reached the gateway")
		}
	}
}

func TestVoiceSession_SendAudioForwardsFrames(t *testing.T) {
	gateway := newFakeGateway()
	gwServer := httptest.NewServer(gateway)
	defer gwServer.Close()
	wsURL := "ws" + strings.TrimPrefix(gwServer.URL, "http")

	store := voiceTestStore(t, wsURL)
	voice := NewVoiceSession(store)

	if err := voice.ActivateMicrophone(context.Background()); err != nil {
		t.Fatalf("ActivateMicrophone: %v", err)
	}
	defer voice.Disconnect()

	if err := voice.SendAudio([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	msgs := gateway.waitForMessages(t, 2)
	last := msgs[len(msgs)-1]
	if last.Event != voiceEventMedia {
		t.Fatalf("expected media event, got %q", last.Event)
	}
	if last.Media == nil || last.Media.Payload == "" {
		t.Fatal("media event carried no payload")
	}
	if last.Media.SampleRate != 16000 {
		t.Errorf("expected 16000 sample rate, got %d", last.Media.SampleRate)
	}
}

func TestVoiceSession_SendAudioBeforeConnect(t *testing.T) {
	backend := newFakeBackend()
	server := httptest.NewServer(backend.mux)
	defer server.Close()

	voice := NewVoiceSession(NewStore(server.URL))
	if err := voice.SendAudio([]byte{1, 2}); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestVoiceSession_TranscriptAndReplyHandlers(t *testing.T) {
	gateway := newFakeGateway()
	gwServer := httptest.NewServer(gateway)
	defer gwServer.Close()
	wsURL := "ws" + strings.TrimPrefix(gwServer.URL, "http")

	store := voiceTestStore(t, wsURL)

	transcripts := make(chan string, 4)
	replies := make(chan string, 4)
	voice := NewVoiceSession(store,
		WithTranscriptHandler(func(role, text string, isFinal bool) {
			if isFinal {
				transcripts <- role + ":" + text
			}
		}),
		WithReplyHandler(func(text string) { replies <- text }),
	)

	if err := voice.ActivateMicrophone(context.Background()); err != nil {
		t.Fatalf("ActivateMicrophone: %v", err)
	}
	defer voice.Disconnect()

	gateway.push(t, voiceServerMessage{Event: voiceEventTranscript, Role: "user", Text: "I want to rent", IsFinal: true})
	gateway.push(t, voiceServerMessage{Event: voiceEventReply, Text: "Great, where are you looking?"})

	select {
	case got := <-transcripts:
		if got != "user:I want to rent" {
			t.Errorf("unexpected transcript %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transcript handler never fired")
	}

	select {
	case got := <-replies:
		if got != "Great, where are you looking?" {
			t.Errorf("unexpected reply %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reply handler never fired")
	}
}

func TestVoiceSession_DisconnectSendsStop(t *testing.T) {
	gateway := newFakeGateway()
	gwServer := httptest.NewServer(gateway)
	defer gwServer.Close()
	wsURL := "ws" + strings.TrimPrefix(gwServer.URL, "http")

	store := voiceTestStore(t, wsURL)
	voice := NewVoiceSession(store)

	if err := voice.ActivateMicrophone(context.Background()); err != nil {
		t.Fatalf("ActivateMicrophone: %v", err)
	}
	if err := voice.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if voice.Connected() {
		t.Error("expected session disconnected")
	}
	if voice.MicrophoneEnabled() {
		t.Error("expected microphone disabled after disconnect")
	}

	msgs := gateway.waitForMessages(t, 2)
	last := msgs[len(msgs)-1]
	if last.Event != voiceEventStop {
		t.Errorf("expected stop event last, got %q", last.Event)
	}

	// Disconnecting twice is a no-op.
	if err := voice.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
}

func TestVoiceSession_UsesStoredConnectionDetails(t *testing.T) {
	gateway := newFakeGateway()
	gwServer := httptest.NewServer(gateway)
	defer gwServer.Close()
	wsURL := "ws" + strings.TrimPrefix(gwServer.URL, "http")

	backend := newFakeBackend()
	backend.voiceURL = wsURL
	// The dedicated endpoint would dial nowhere; details must come from
	// the store populated by a prior mode switch.
	backend.connURL = "ws://127.0.0.1:1"
	server := httptest.NewServer(backend.mux)
	defer server.Close()

	store := NewStore(server.URL, WithConnDetailsURL(server.URL+"/connection-details"))
	if err := store.SwitchMode(context.Background(), ModeVoice); err != nil {
		t.Fatalf("SwitchMode: %v", err)
	}

	voice := NewVoiceSession(store)
	if err := voice.ActivateMicrophone(context.Background()); err != nil {
		t.Fatalf("ActivateMicrophone: %v", err)
	}
	defer voice.Disconnect()

	if !voice.Connected() {
		t.Error("expected connection via stored details")
	}
}

// Sanity check that media payloads decode as raw bytes.
func TestVoiceClientMessage_MediaRoundTrip(t *testing.T) {
	msg := voiceClientMessage{
		Event: voiceEventMedia,
		Media: &voiceMediaFrame{Payload: "AAEC", SampleRate: 16000},
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"sample_rate":16000`) {
		t.Errorf("unexpected encoding: %s", raw)
	}
}
