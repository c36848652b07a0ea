package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "intake_agent_active_sessions",
		Help: "Number of active intake sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intake_agent_sessions_total",
		Help: "Total number of intake sessions created",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "intake_agent_session_duration_seconds",
		Help:    "Duration of intake sessions in seconds",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1800},
	})

	// Conversation metrics
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_messages_total",
		Help: "Total number of messages processed",
	}, []string{"mode", "role"})

	modeSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_mode_switches_total",
		Help: "Total number of mode switches",
	}, []string{"from", "to", "status"})

	stageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_stage_transitions_total",
		Help: "Total number of intake stage transitions",
	}, []string{"stage"})

	// LLM metrics
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"status"})

	llmLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "intake_agent_llm_latency_seconds",
		Help:    "LLM completion latency in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// STT metrics
	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_stt_requests_total",
		Help: "Total number of STT requests",
	}, []string{"status"})

	// TTS metrics
	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_tts_requests_total",
		Help: "Total number of TTS requests",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "intake_agent_tts_latency_seconds",
		Help:    "TTS synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "intake_agent_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics for the voice gateway
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_agent_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// SessionMetrics tracks metrics for a single intake session
type SessionMetrics struct {
	sessionID    string
	startTime    time.Time
	llmStartTime time.Time
	ttsStartTime time.Time
	mu           sync.Mutex
}

// NewSessionMetrics creates a metrics tracker for one session
func NewSessionMetrics(sessionID string) *SessionMetrics {
	return &SessionMetrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *SessionMetrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *SessionMetrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordMessage records one processed message
func (m *SessionMetrics) RecordMessage(mode, role string) {
	messagesProcessed.WithLabelValues(mode, role).Inc()
}

// RecordModeSwitch records a mode switch attempt
func (m *SessionMetrics) RecordModeSwitch(from, to string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	modeSwitches.WithLabelValues(from, to, status).Inc()
}

// RecordStage records entry into an intake stage
func (m *SessionMetrics) RecordStage(stage string) {
	stageTransitions.WithLabelValues(stage).Inc()
}

// RecordLLMStart records the start of an LLM call
func (m *SessionMetrics) RecordLLMStart() {
	m.mu.Lock()
	m.llmStartTime = time.Now()
	m.mu.Unlock()
}

// RecordLLMEnd records the end of an LLM call
func (m *SessionMetrics) RecordLLMEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.llmStartTime.IsZero() {
		llmLatency.Observe(time.Since(m.llmStartTime).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	llmRequests.WithLabelValues(status).Inc()
}

// RecordSTT records the result of an STT request
func (m *SessionMetrics) RecordSTT(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	sttRequests.WithLabelValues(status).Inc()
}

// RecordTTSStart records the start of TTS synthesis
func (m *SessionMetrics) RecordTTSStart() {
	m.mu.Lock()
	m.ttsStartTime = time.Now()
	m.mu.Unlock()
}

// RecordTTSEnd records the end of TTS synthesis
func (m *SessionMetrics) RecordTTSEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ttsStartTime.IsZero() {
		ttsLatency.Observe(time.Since(m.ttsStartTime).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	ttsRequests.WithLabelValues(status).Inc()
}

// RecordError records an error
func (m *SessionMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *SessionMetrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments the circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
