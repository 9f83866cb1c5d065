// internal/iorun/pool.go
// Package iorun is the consumed asynchronous I/O contract spec.md §6 names:
// a fire-and-forget "send" over a connected datagram socket with completion
// callbacks, plus a bounded completion-handle pool that is the emitter's
// sole source of backpressure (spec.md §4.3, §9 "fire-and-forget with
// bounded pool"). Production code never substitutes an unbounded queue for
// this pool.
package iorun

import "sync/atomic"

// Completion is an opaque handle into a Pool's outstanding-operation slots.
type Completion struct{ id int }

// CompletionPool is spec.md §6's "completion-pool primitive".
type CompletionPool interface {
	// Acquire reserves one slot, or reports false if the pool is exhausted.
	Acquire() (Completion, bool)
	// Release returns a slot previously obtained from Acquire.
	Release(Completion)
	// Executing is the number of slots currently reserved.
	Executing() int
	// Capacity is the pool's fixed size (packet_count_max).
	Capacity() int
}

// Pool is a fixed-capacity, channel-backed CompletionPool. Acquire/Release
// are safe to call from different goroutines: Acquire happens on the
// emitter's single logical thread, but Release happens inside a Sender's
// completion callback, which for an async transport runs on its own
// goroutine (see udpsender.go).
type Pool struct {
	free      chan int
	executing int32
}

// NewPool returns a Pool with capacity slots, all initially free. capacity
// must be statsdline.PacketCountMax() in production wiring.
func NewPool(capacity int) *Pool {
	if capacity < 1 {
		panic("iorun: pool capacity must be >= 1")
	}
	p := &Pool{free: make(chan int, capacity)}
	for i := 0; i < capacity; i++ {
		p.free <- i
	}
	return p
}

func (p *Pool) Acquire() (Completion, bool) {
	select {
	case id := <-p.free:
		atomic.AddInt32(&p.executing, 1)
		return Completion{id: id}, true
	default:
		return Completion{}, false
	}
}

func (p *Pool) Release(c Completion) {
	atomic.AddInt32(&p.executing, -1)
	p.free <- c.id
}

func (p *Pool) Executing() int { return int(atomic.LoadInt32(&p.executing)) }

func (p *Pool) Capacity() int { return cap(p.free) }
