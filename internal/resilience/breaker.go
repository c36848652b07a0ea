package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker rejects a call outright.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State of a circuit breaker.
type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // failing fast
	StateHalfOpen              // probing for recovery
)

// Breaker implements the circuit breaker pattern around calls to one
// external service. After maxFailures consecutive failures the circuit
// opens; after resetTimeout it half-opens and lets probe calls through.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	probeQuota   int // successful probes required to close again

	mu           sync.Mutex
	state        State
	failures     int
	probeSuccess int
	lastFailure  time.Time
}

// NewBreaker creates a circuit breaker for the named service.
func NewBreaker(name string, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		probeQuota:   3,
		state:        StateClosed,
	}
}

// Do executes fn under breaker protection.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	b.Record(err == nil)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailure) >= b.resetTimeout {
			b.state = StateHalfOpen
			b.probeSuccess = 0
			return true
		}
		return false
	case StateHalfOpen:
		return true
	}
	return false
}

// Record feeds the breaker the outcome of a call made outside Do, such as
// an asynchronous websocket error callback.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		switch b.state {
		case StateClosed:
			b.failures = 0
		case StateHalfOpen:
			b.probeSuccess++
			if b.probeSuccess >= b.probeQuota {
				b.state = StateClosed
				b.failures = 0
			}
		}
		return
	}

	b.lastFailure = time.Now()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.maxFailures {
			b.state = StateOpen
		}
	case StateHalfOpen:
		// Any failed probe reopens immediately
		b.state = StateOpen
	}
}

// CurrentState returns the breaker's state.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the service name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probeSuccess = 0
}
