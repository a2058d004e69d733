package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Closed → Open → Half-Open breaker placed in front of the backend store.
// Stock writes go through it so a backend that keeps timing out fails fast
// instead of piling up deferred writes.
//
// States:
//   - Closed:    normal operation, writes pass through
//   - Open:      every write fails immediately with ErrCircuitOpen
//   - Half-Open: writes are let through as probes until enough succeed

// CBState represents the current circuit breaker state.
type CBState int

const (
	CBClosed   CBState = iota // normal, requests flow
	CBOpen                    // tripped, fast-fail all requests
	CBHalfOpen                // probing
)

// String returns a human-readable state name (for health endpoints / logs).
func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when Execute is called while the CB is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds tunable parameters.
type CircuitBreakerConfig struct {
	Name             string        // used in logs and health output (default: "backend")
	FailureThreshold int           // consecutive failures to trip open (default: 5)
	SuccessThreshold int           // consecutive successes in half-open to close (default: 2)
	OpenTimeout      time.Duration // how long to stay open before probing (default: 30s)
	// EsFallo decides whether an error counts against the breaker. Defaults
	// to every non-nil error; callers exclude "not found" style answers,
	// which prove the backend is reachable.
	EsFallo func(error) bool
}

// DefaultCBConfig returns the defaults used for the stock store.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "backend",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// CBStats is a point-in-time snapshot for the health endpoint.
type CBStats struct {
	Name         string    `json:"name"`
	State        string    `json:"state"`
	FailureCount int       `json:"failure_count"`
	LastFailure  time.Time `json:"last_failure,omitempty"`
}

// CircuitBreaker implements the pattern with thread-safe state transitions.
type CircuitBreaker struct {
	mu               sync.Mutex
	name             string
	state            CBState
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	esFallo          func(error) bool
}

// NewCircuitBreaker creates a CB in Closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "backend"
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.EsFallo == nil {
		cfg.EsFallo = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		name:             cfg.Name,
		state:            CBClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		esFallo:          cfg.EsFallo,
	}
}

// State returns the current CB state (safe for concurrent reads).
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked()
}

// Stats returns a snapshot of the breaker.
func (cb *CircuitBreaker) Stats() CBStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CBStats{
		Name:         cb.name,
		State:        cb.stateLocked().String(),
		FailureCount: cb.failureCount,
		LastFailure:  cb.lastFailureTime,
	}
}

// stateLocked applies the open → half-open transition once the timeout elapsed.
func (cb *CircuitBreaker) stateLocked() CBState {
	if cb.state == CBOpen && time.Since(cb.lastFailureTime) >= cb.openTimeout {
		cb.transition(CBHalfOpen)
		cb.successCount = 0
	}
	return cb.state
}

// Execute runs fn through the circuit breaker.
// Returns ErrCircuitOpen immediately if the CB is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.esFallo(err) {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return err
}

// onFailure records a failure (must be called under lock).
func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case CBClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.transition(CBOpen)
			cb.successCount = 0
		}
	case CBHalfOpen:
		cb.transition(CBOpen)
		cb.failureCount = 0
	}
}

// onSuccess records a success (must be called under lock).
func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case CBClosed:
		cb.failureCount = 0
	case CBHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transition(CBClosed)
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

func (cb *CircuitBreaker) transition(to CBState) {
	if cb.state == to {
		return
	}
	log.Warn().
		Str("breaker", cb.name).
		Str("from", cb.state.String()).
		Str("to", to.String()).
		Msg("circuit breaker: state change")
	cb.state = to
}
