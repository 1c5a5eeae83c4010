// Package circuitbreaker stops calling a failing model provider for a
// cooldown period and then lets a single probe through.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"complexity-analyzer-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls rejected until the cooldown ends
	StateHalfOpen              // one probe call in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitOpen is returned by Execute while calls are being rejected.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration
type Config struct {
	Name         string        // used in log prefixes
	Threshold    int           // consecutive failures before opening
	Cooldown     time.Duration // time spent open before a probe
	ProbeTimeout time.Duration // how long a probe may run before the circuit reopens

	// IsFailure decides whether an error counts against the circuit.
	// Defaults to every error except context cancellation by the caller.
	IsFailure func(error) bool

	// OnStateChange is called after each transition, outside the lock.
	OnStateChange func(name string, from, to State)
}

// Snapshot is a point-in-time view for status endpoints.
type Snapshot struct {
	Name          string  `json:"name"`
	State         string  `json:"state"`
	Failures      int     `json:"consecutive_failures"`
	Threshold     int     `json:"threshold"`
	CooldownSecs  float64 `json:"cooldown_seconds"`
	RetryInSecs   float64 `json:"retry_in_seconds,omitempty"`
	LastFailure   string  `json:"last_failure,omitempty"`
	TimesOpened   int64   `json:"times_opened"`
	RejectedCalls int64   `json:"rejected_calls"`
}

// CircuitBreaker guards calls to one dependency
type CircuitBreaker struct {
	cfg Config

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probeAt     time.Time
	lastFailure time.Time
	timesOpened int64
	rejected    int64
}

// New creates a new circuit breaker, filling zero config values with defaults
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = countsAsFailure
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

func countsAsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Name returns the configured name
func (cb *CircuitBreaker) Name() string {
	return cb.cfg.Name
}

// Execute runs fn if the circuit admits the call and records its outcome.
// While open it returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}
	err := fn(ctx)
	switch {
	case err == nil:
		cb.RecordSuccess()
	case cb.cfg.IsFailure(err):
		cb.RecordFailure()
	default:
		cb.release()
	}
	return err
}

// Allow reports whether a call may proceed. In the open state the first
// call after the cooldown becomes the probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	from := cb.state
	allowed := true

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.cfg.Cooldown {
			cb.state = StateHalfOpen
			cb.probeAt = time.Now()
			log.Infof("%s Cooldown over, letting a probe through", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
		} else {
			allowed = false
		}
	case StateHalfOpen:
		if time.Since(cb.probeAt) >= cb.cfg.ProbeTimeout {
			cb.openLocked()
			log.Warnf("%s Probe timed out, reopening", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
		}
		allowed = false
	}
	if !allowed {
		cb.rejected++
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return allowed
}

// RecordSuccess closes a half-open circuit and clears the failure count
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	from := cb.state
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		log.Infof("%s Probe succeeded, closing", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
	}
	cb.failures = 0
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

// RecordFailure counts a failure, opening the circuit at the threshold or
// when the probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	from := cb.state
	cb.failures++
	cb.lastFailure = time.Now()

	switch cb.state {
	case StateHalfOpen:
		cb.openLocked()
		log.Warnf("%s Probe failed, reopening for %v", logcolors.CircuitBreakerPrefix(cb.cfg.Name), cb.cfg.Cooldown)
	case StateClosed:
		if cb.failures >= cb.cfg.Threshold {
			cb.openLocked()
			log.Warnf("%s %d consecutive failures, opening for %v",
				logcolors.CircuitBreakerPrefix(cb.cfg.Name), cb.failures, cb.cfg.Cooldown)
		}
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

// release ends a probe whose outcome says nothing about the dependency.
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	from := cb.state
	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.openedAt = time.Now().Add(-cb.cfg.Cooldown)
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

func (cb *CircuitBreaker) openLocked() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.timesOpened++
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// RetryAfter is how long until the next call will be admitted; zero when
// calls are admitted now.
func (cb *CircuitBreaker) RetryAfter() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.retryAfterLocked()
}

func (cb *CircuitBreaker) retryAfterLocked() time.Duration {
	var remaining time.Duration
	switch cb.state {
	case StateOpen:
		remaining = cb.cfg.Cooldown - time.Since(cb.openedAt)
	case StateHalfOpen:
		remaining = cb.cfg.ProbeTimeout - time.Since(cb.probeAt)
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset closes the circuit and clears its counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.openedAt = time.Time{}
	cb.probeAt = time.Time{}
	to := cb.state
	cb.mu.Unlock()

	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
	cb.notify(from, to)
}

// Snapshot returns the current status
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := Snapshot{
		Name:          cb.cfg.Name,
		State:         cb.state.String(),
		Failures:      cb.failures,
		Threshold:     cb.cfg.Threshold,
		CooldownSecs:  cb.cfg.Cooldown.Seconds(),
		RetryInSecs:   cb.retryAfterLocked().Seconds(),
		TimesOpened:   cb.timesOpened,
		RejectedCalls: cb.rejected,
	}
	if !cb.lastFailure.IsZero() {
		s.LastFailure = cb.lastFailure.UTC().Format(time.RFC3339)
	}
	return s
}
