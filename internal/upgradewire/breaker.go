package upgradewire

import (
	"errors"
	"sync"
	"time"
)

// breakerState mirrors the teacher's CircuitState: a small state machine
// protecting the framed channel from hammering a dead remote-forwarding
// daemon with doomed connect attempts once it has started failing.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// ErrDaemonUnavailable is returned in place of a fresh ConnectError once the
// breaker has tripped, so a burst of workers hitting a dead daemon fail
// immediately instead of each paying a dial timeout.
var ErrDaemonUnavailable = errors.New("upgradewire: remote-forwarding daemon unavailable, circuit open")

// BreakerPolicy configures the trip/reset thresholds. A zero-value policy
// (Enabled: false) disables the breaker entirely - Exchange then behaves as
// a plain per-call dial with no shared failure memory.
type BreakerPolicy struct {
	Enabled          bool
	FailureThreshold int
	ResetTimeout     time.Duration
}

// DefaultBreakerPolicy trips after 5 consecutive connect failures and probes
// again after 10 seconds, matching the order of magnitude of the teacher's
// NewCircuitBreaker defaults used against a WinRM endpoint.
func DefaultBreakerPolicy() BreakerPolicy {
	return BreakerPolicy{
		Enabled:          true,
		FailureThreshold: 5,
		ResetTimeout:     10 * time.Second,
	}
}

type breaker struct {
	mu sync.Mutex

	state       breakerState
	failures    int
	lastFailure time.Time

	policy BreakerPolicy
	clock  clock
}

func newBreaker(policy BreakerPolicy) *breaker {
	return &breaker{policy: policy, clock: realClock{}}
}

// execute runs fn, fast-failing with ErrDaemonUnavailable while the breaker
// is open. Only connect failures (the caller decides what counts by
// wrapping fn) trip the breaker; a well-formed "err" reply from the agent
// is a successful exchange as far as the breaker is concerned.
func (b *breaker) execute(fn func() error) error {
	if !b.policy.Enabled {
		return fn()
	}
	if err := b.checkState(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *breaker) checkState() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerOpen {
		if b.clock.Now().Sub(b.lastFailure) > b.policy.ResetTimeout {
			b.state = breakerHalfOpen
			return nil
		}
		return ErrDaemonUnavailable
	}
	return nil
}

func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.state = breakerClosed
		return
	}
	if errors.Is(err, ErrDaemonUnavailable) {
		return
	}

	b.failures++
	b.lastFailure = b.clock.Now()

	if b.state == breakerHalfOpen {
		b.state = breakerOpen
		return
	}
	if b.state == breakerClosed && b.failures >= b.policy.FailureThreshold {
		b.state = breakerOpen
	}
}
