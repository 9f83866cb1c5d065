// Package viewer exposes a live tail of the Chrome-trace JSON stream over a
// websocket, following the teacher's gateway fan-out hub: a Writer that
// implements tracer.Writer, broadcasting every chunk it receives to a set
// of slow-consumer-tolerant subscriber channels. It is a pure downstream
// consumer of already-serialized span bytes — it never calls back into
// internal/tracer, matching the rule that ambient subsystems only observe
// the single-threaded core's output (SPEC_FULL.md §5).
package viewer

import (
	"sync"

	"github.com/xet7/tigerbeetle/internal/logging"
)

// Hub fans every Write out to its current subscribers. It implements
// tracer.Writer, so a *Hub can be passed directly as tracer.Options.Writer.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan []byte]struct{})}
}

// Write implements tracer.Writer. It never blocks on a slow subscriber: a
// full subscriber channel has its chunk dropped rather than stalling the
// tracer's single logical thread.
func (h *Hub) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)

	h.mu.RLock()
	for ch := range h.subs {
		select {
		case ch <- cp:
		default:
			logging.Logger().Debug("viewer: dropping chunk to slow subscriber")
		}
	}
	h.mu.RUnlock()
	return len(p), nil
}

// Subscribe registers a new tail client. The caller must drain ch and call
// unregister when done.
func (h *Hub) Subscribe() (ch chan []byte, unregister func()) {
	ch = make(chan []byte, 256)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	unregister = func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
	return ch, unregister
}

// Subscribers reports the current number of live tail clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
