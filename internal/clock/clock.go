// internal/clock/clock.go
// Package clock is the consumed monotonic-clock contract spec.md §6 names:
// "monotonic_instant() -> Instant; Instant.duration_since(other) ->
// Duration". The tracer only ever calls Now() and subtracts two Instants;
// this package exists so tests can swap in a Fake clock without touching
// internal/tracer at all, the same seam the teacher project uses for its
// zap logger (internal/logging) and its back-off clock injection
// (pkg/auth.Signer.clock).
package clock

import "time"

// Instant is a point in monotonic time. Go's time.Time already carries a
// monotonic reading when obtained from time.Now(), so Instant is just a
// thin struct wrapper around it rather than a reimplementation.
type Instant struct {
	t time.Time
}

// Sub returns the duration elapsed since other. Negative if other is later.
func (i Instant) Sub(other Instant) time.Duration {
	return i.t.Sub(other.t)
}

// IsZero reports whether i is the zero Instant (used by the tracer to model
// events_started[s] == None without an extra bool).
func (i Instant) IsZero() bool { return i.t.IsZero() }

// Clock yields Instants. Production code uses Real{}; tests and the
// simulator use Fake.
type Clock interface {
	Now() Instant
}

// Real reads the system monotonic clock via time.Now().
type Real struct{}

func (Real) Now() Instant { return Instant{t: time.Now()} }
