package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kalam360/intake-agent/internal/livekit"
)

func TestForwarderRelaysRequest(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"response": "hello"}`)
	}))
	defer upstream.Close()

	f := NewForwarder(upstream.URL + "/api/intake")

	req := httptest.NewRequest("POST", "/api/intake/text-message",
		strings.NewReader(`{"message": "hi", "session_id": "sess-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if gotMethod != "POST" || gotPath != "/api/intake/text-message" {
		t.Errorf("Upstream saw %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(gotBody, "sess-1") {
		t.Errorf("Body not forwarded: %q", gotBody)
	}
	if !strings.Contains(rec.Body.String(), "hello") {
		t.Errorf("Response not relayed: %q", rec.Body.String())
	}
}

func TestForwarderPreservesUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "Invalid mode switch"}`)
	}))
	defer upstream.Close()

	f := NewForwarder(upstream.URL + "/api/intake")

	req := httptest.NewRequest("POST", "/api/intake/switch-mode", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected upstream 400 relayed, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid mode switch") {
		t.Errorf("Upstream body not relayed: %q", rec.Body.String())
	}
}

func TestForwarderUpstreamDown(t *testing.T) {
	// Point at a server that is no longer listening
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	f := NewForwarder(url + "/api/intake")

	req := httptest.NewRequest("GET", "/api/intake/initial-greeting/sess-1", nil)
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error body is not JSON: %v", err)
	}
	if body["error"] != "Failed to communicate with intake agent" {
		t.Errorf("Unexpected error body: %q", body["error"])
	}
}

func TestForwarderRejectsOtherMethods(t *testing.T) {
	f := NewForwarder("http://localhost:1/api/intake")

	for _, method := range []string{"PUT", "DELETE", "PATCH"} {
		req := httptest.NewRequest(method, "/api/intake/text-message", nil)
		rec := httptest.NewRecorder()
		f.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, rec.Code)
		}
	}
}

func TestConnectionDetailsHandler(t *testing.T) {
	minter := livekit.NewTokenMinter("ws://localhost:7880", "devkey", "devsecret", 15*time.Minute)
	handler := ConnectionDetailsHandler(minter)

	req := httptest.NewRequest("GET", "/api/connection-details", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ConnectionDetailsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Decoding failed: %v", err)
	}
	if resp.ServerURL != "ws://localhost:7880" {
		t.Errorf("Unexpected server URL: %q", resp.ServerURL)
	}
	if resp.ParticipantToken == "" {
		t.Error("Expected a minted participant token")
	}
	if !strings.HasPrefix(resp.RoomName, "intake-") {
		t.Errorf("Unexpected room name: %q", resp.RoomName)
	}
}

func TestConnectionDetailsMissingCredentials(t *testing.T) {
	minter := livekit.NewTokenMinter("ws://localhost:7880", "", "", 0)
	handler := ConnectionDetailsHandler(minter)

	req := httptest.NewRequest("GET", "/api/connection-details", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 without credentials, got %d", rec.Code)
	}
}
