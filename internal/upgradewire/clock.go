package upgradewire

import "time"

// clock is injectable time, the same shape the teacher uses in
// client/clock.go, so the circuit breaker's reset timeout can be tested
// without sleeping.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
