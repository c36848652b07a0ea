package costs

import (
	"math"
	"testing"
)

func TestTracker_TrackLLM(t *testing.T) {
	tracker := NewTracker("sess-1")
	tracker.TrackLLM("gpt-4o-mini", 1000, 500)

	want := 1000*0.00015 + 500*0.00060
	if got := tracker.TotalCost(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected cost %f, got %f", want, got)
	}
}

func TestTracker_TrackSTTAndTTS(t *testing.T) {
	tracker := NewTracker("sess-1")
	tracker.TrackSTT("nova-2", 12.5)
	tracker.TrackTTS("sonic", 400)

	want := 12.5*0.00025 + 400*0.000010
	if got := tracker.TotalCost(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected cost %f, got %f", want, got)
	}
}

func TestTracker_UnknownModelCostsNothing(t *testing.T) {
	tracker := NewTracker("sess-1")
	tracker.TrackLLM("mystery-model", 1000, 1000)

	if got := tracker.TotalCost(); got != 0 {
		t.Errorf("Expected zero cost for unknown model, got %f", got)
	}
}

func TestTracker_Summarize(t *testing.T) {
	tracker := NewTracker("sess-1")
	tracker.TrackLLM("gpt-4o-mini", 100, 50)
	tracker.TrackLLM("gpt-4o-mini", 200, 100)
	tracker.TrackSTT("nova-2", 5.0)
	tracker.TrackTTS("sonic", 120)

	s := tracker.Summarize()

	if s.SessionID != "sess-1" {
		t.Errorf("Expected session id 'sess-1', got %q", s.SessionID)
	}
	if s.CallCount != 4 {
		t.Errorf("Expected 4 calls, got %d", s.CallCount)
	}
	if s.TotalInputTokens != 300 {
		t.Errorf("Expected 300 input tokens, got %d", s.TotalInputTokens)
	}
	if s.TotalOutputTokens != 150 {
		t.Errorf("Expected 150 output tokens, got %d", s.TotalOutputTokens)
	}
	if s.TotalAudioSeconds != 5.0 {
		t.Errorf("Expected 5.0 audio seconds, got %f", s.TotalAudioSeconds)
	}
	if s.TotalCharacters != 120 {
		t.Errorf("Expected 120 characters, got %d", s.TotalCharacters)
	}
	if len(s.CostsByAPI) != 3 {
		t.Errorf("Expected 3 APIs in breakdown, got %v", s.CostsByAPI)
	}
}

func TestRegistry_ForSession(t *testing.T) {
	registry := NewRegistry()

	a := registry.ForSession("sess-1")
	b := registry.ForSession("sess-1")
	if a != b {
		t.Error("ForSession should return the same tracker for one session")
	}

	if registry.Lookup("sess-2") != nil {
		t.Error("Lookup should return nil for unknown session")
	}

	registry.Remove("sess-1")
	if registry.Lookup("sess-1") != nil {
		t.Error("Expected tracker removed")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens("12345678"); got != 2 {
		t.Errorf("Expected 2 tokens for 8 chars, got %d", got)
	}
}
