package gemini

import (
	"sync"
	"time"
)

// breakerState is one of the three circuit breaker states.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// circuitBreaker is an explicit {closed, open, half_open} state machine
// guarded by one mutex, shared across concurrent callers of the client.
//
// After failureThreshold consecutive failures it opens and rejects every
// call immediately until openTimeout elapses; it then admits exactly one
// probing call, closing on success and reopening on failure.
type circuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openTimeout      time.Duration

	state               breakerState
	consecutiveFailures int
	openedAt            time.Time
	probeInFlight       bool

	// now is swappable for tests.
	now func() time.Time
}

func newCircuitBreaker(failureThreshold int, openTimeout time.Duration) *circuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
		state:            breakerClosed,
		now:              time.Now,
	}
}

// allow reports whether a call may proceed. While open it returns false
// until openTimeout has elapsed, at which point the breaker transitions
// to half_open and admits a single probe.
func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.openTimeout {
			return false
		}
		b.state = breakerHalfOpen
		b.probeInFlight = true
		return true
	case breakerHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	}
	return false
}

// recordSuccess resets the failure count and closes the breaker.
func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.probeInFlight = false
	b.state = breakerClosed
}

// recordFailure counts a failed call. The half-open probe failing, or the
// threshold being reached while closed, (re)opens the breaker.
func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	b.probeInFlight = false

	if b.state == breakerHalfOpen || b.consecutiveFailures >= b.failureThreshold {
		b.state = breakerOpen
		b.openedAt = b.now()
	}
}

// currentState returns the state for logging and tests.
func (b *circuitBreaker) currentState() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
