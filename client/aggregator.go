package client

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// TranscriptionSegment is one attributed utterance surfaced during voice
// mode, from the agent transcript, the user's live microphone, or a
// manually typed interjection.
type TranscriptionSegment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// Aggregator merges three independently-updating transcript sources into
// one chronological view. It is pure derived state: no network calls, and
// recomputing the merged view never fails.
//
// Segments with equal identifiers across sources are not de-duplicated.
type Aggregator struct {
	mu     sync.Mutex
	agent  []TranscriptionSegment
	user   []TranscriptionSegment
	manual []TranscriptionSegment
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// SetAgentTranscript replaces the live agent-transcript sequence.
func (a *Aggregator) SetAgentTranscript(segments []TranscriptionSegment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.agent = tagged(segments, "assistant")
}

// SetUserTranscript replaces the live user-transcript sequence.
func (a *Aggregator) SetUserTranscript(segments []TranscriptionSegment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = tagged(segments, "user")
}

// AddManualMessage appends a locally typed message with a generated
// identifier and the current time as its timestamp. An empty role defaults
// to "user".
func (a *Aggregator) AddManualMessage(text, role string) TranscriptionSegment {
	if role == "" {
		role = "user"
	}
	segment := TranscriptionSegment{
		ID:        newSegmentID(),
		Text:      text,
		Role:      role,
		Timestamp: time.Now(),
	}

	a.mu.Lock()
	a.manual = append(a.manual, segment)
	a.mu.Unlock()
	return segment
}

// Merged returns the union of all three sources sorted ascending by
// first-received timestamp. The result always contains every segment from
// every source.
func (a *Aggregator) Merged() []TranscriptionSegment {
	a.mu.Lock()
	merged := make([]TranscriptionSegment, 0, len(a.agent)+len(a.user)+len(a.manual))
	merged = append(merged, a.agent...)
	merged = append(merged, a.user...)
	merged = append(merged, a.manual...)
	a.mu.Unlock()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

// Clear drops all accumulated segments, used when a voice session ends.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.agent = nil
	a.user = nil
	a.manual = nil
}

func tagged(segments []TranscriptionSegment, role string) []TranscriptionSegment {
	out := make([]TranscriptionSegment, len(segments))
	copy(out, segments)
	for i := range out {
		if out[i].Role == "" {
			out[i].Role = role
		}
	}
	return out
}

// newSegmentID builds an identifier from the current time plus a random
// suffix. Collisions are negligible at session scale.
func newSegmentID() string {
	return fmt.Sprintf("%d-%04d", time.Now().UnixNano(), rand.Intn(10000))
}
