// internal/iorun/sender.go
// Sender is spec.md §6's "send(self_ptr, callback, completion, socket,
// buffer) -> (async)" — fire-and-forget, no retry, completion invoked
// exactly once. internal/emitter never blocks on it.
package iorun

// Sender transmits one datagram. onComplete is invoked exactly once with
// the send result; it must not block, since for LogSender it runs inline on
// the caller's goroutine and for UDPSender it runs on a worker goroutine
// that would otherwise stall further sends.
type Sender interface {
	Send(datagram []byte, onComplete func(err error))
}
