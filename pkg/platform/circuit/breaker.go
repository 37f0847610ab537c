// Package circuit provides a simple circuit breaker for fail-safe calls to
// remote hardware.
package circuit

import "sync"

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is healthy and commands flow normally.
	StateClosed State = iota
	// StateOpen means the circuit has tripped and commands are refused.
	StateOpen
)

// Breaker tracks consecutive failures for a remote endpoint. After
// failureThreshold consecutive failures the circuit opens and Allow reports
// false; after successThreshold consecutive probe successes it closes again.
type Breaker struct {
	mu               sync.Mutex
	state            State
	name             string
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	probing          bool
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures to open the circuit.
// Default is 3.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the number of consecutive successes to close the circuit.
// Default is 1.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// New creates a circuit breaker with the given name and options.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the breaker's name for logging and metrics.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a command may be attempted. While open, a single
// in-flight probe at a time is let through so the circuit can close again.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return true
	}
	if b.probing {
		return false
	}
	b.probing = true
	return true
}

// Success records a successful command. Returns true when this success closed
// a previously open circuit.
func (b *Breaker) Success() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	b.failureCount = 0
	if b.state == StateClosed {
		return false
	}

	b.successCount++
	if b.successCount >= b.successThreshold {
		b.state = StateClosed
		b.successCount = 0
		return true
	}
	return false
}

// Failure records a failed command. Returns true when this failure opened the
// circuit.
func (b *Breaker) Failure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	b.successCount = 0
	if b.state == StateOpen {
		return false
	}

	b.failureCount++
	if b.failureCount >= b.failureThreshold {
		b.state = StateOpen
		b.failureCount = 0
		return true
	}
	return false
}
