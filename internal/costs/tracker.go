package costs

import (
	"sync"
	"time"
)

// Pricing per unit, keyed by provider then model. LLM prices are per token
// (input/output), STT per audio second, TTS per character.
var (
	llmPricing = map[string]struct{ Input, Output float64 }{
		"gpt-4o-mini": {Input: 0.00015, Output: 0.00060},
	}
	sttPricing = map[string]float64{
		"nova-2": 0.00025,
	}
	ttsPricing = map[string]float64{
		"tts-1": 0.000015,
		"sonic": 0.000010,
	}
)

// Usage records one tracked API call.
type Usage struct {
	API          string
	Model        string
	Timestamp    time.Time
	InputTokens  int
	OutputTokens int
	AudioSeconds float64
	Characters   int
	Cost         float64
}

// Summary aggregates a session's usage.
type Summary struct {
	SessionID         string
	DurationSeconds   float64
	TotalCost         float64
	CostsByAPI        map[string]float64
	TotalInputTokens  int
	TotalOutputTokens int
	TotalAudioSeconds float64
	TotalCharacters   int
	CallCount         int
}

// Tracker accumulates API usage and cost for a single session.
type Tracker struct {
	mu           sync.Mutex
	sessionID    string
	sessionStart time.Time
	usages       []Usage
}

// NewTracker creates a tracker for one session.
func NewTracker(sessionID string) *Tracker {
	return &Tracker{
		sessionID:    sessionID,
		sessionStart: time.Now(),
	}
}

// TrackLLM records one LLM completion.
func (t *Tracker) TrackLLM(model string, inputTokens, outputTokens int) {
	pricing := llmPricing[model]
	cost := float64(inputTokens)*pricing.Input + float64(outputTokens)*pricing.Output

	t.record(Usage{
		API:          "openai",
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         cost,
	})
}

// TrackSTT records one speech-to-text interval.
func (t *Tracker) TrackSTT(model string, audioSeconds float64) {
	t.record(Usage{
		API:          "deepgram",
		Model:        model,
		AudioSeconds: audioSeconds,
		Cost:         audioSeconds * sttPricing[model],
	})
}

// TrackTTS records one text-to-speech synthesis.
func (t *Tracker) TrackTTS(model string, characters int) {
	t.record(Usage{
		API:        "cartesia",
		Model:      model,
		Characters: characters,
		Cost:       float64(characters) * ttsPricing[model],
	})
}

func (t *Tracker) record(u Usage) {
	u.Timestamp = time.Now()
	t.mu.Lock()
	t.usages = append(t.usages, u)
	t.mu.Unlock()
}

// TotalCost returns the total cost of all tracked calls.
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0.0
	for _, u := range t.usages {
		total += u.Cost
	}
	return total
}

// Summarize returns an aggregate view of session usage.
func (t *Tracker) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{
		SessionID:       t.sessionID,
		DurationSeconds: time.Since(t.sessionStart).Seconds(),
		CostsByAPI:      make(map[string]float64),
		CallCount:       len(t.usages),
	}

	for _, u := range t.usages {
		s.TotalCost += u.Cost
		s.CostsByAPI[u.API] += u.Cost
		s.TotalInputTokens += u.InputTokens
		s.TotalOutputTokens += u.OutputTokens
		s.TotalAudioSeconds += u.AudioSeconds
		s.TotalCharacters += u.Characters
	}

	return s
}

// Registry holds per-session trackers.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
}

// NewRegistry creates an empty tracker registry.
func NewRegistry() *Registry {
	return &Registry{
		trackers: make(map[string]*Tracker),
	}
}

// ForSession returns the tracker for a session, creating it if needed.
func (r *Registry) ForSession(sessionID string) *Tracker {
	r.mu.RLock()
	t, ok := r.trackers[sessionID]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[sessionID]; ok {
		return t
	}
	t = NewTracker(sessionID)
	r.trackers[sessionID] = t
	return t
}

// Lookup returns the tracker for a session, or nil if none exists.
func (r *Registry) Lookup(sessionID string) *Tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trackers[sessionID]
}

// Remove drops a session's tracker.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, sessionID)
}

// EstimateTokens gives a rough token count for a string (1 token ≈ 4 chars),
// used when the provider response does not carry exact usage.
func EstimateTokens(text string) int {
	return len(text) / 4
}
