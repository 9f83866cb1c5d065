// internal/iorun/logsender.go
// LogSender is spec.md §4.3's "log mode (for deterministic tests)": instead
// of touching the network, it logs the datagram payload and invokes the
// completion callback inline with ok. internal/simulator and most package
// tests in this module build their tracer around this Sender so test
// behaviour never depends on OS socket scheduling.
package iorun

import (
	"go.uber.org/zap"

	"github.com/xet7/tigerbeetle/internal/logging"
)

// LogSender logs every datagram at debug level instead of sending it.
type LogSender struct {
	// Sink, if non-nil, also receives a copy of every datagram payload —
	// tests use this to assert on exact line content without parsing logs.
	Sink func(datagram []byte)
}

func (s LogSender) Send(datagram []byte, onComplete func(err error)) {
	logging.Logger().Debug("statsd datagram (log mode)",
		zap.Int("bytes", len(datagram)),
		zap.ByteString("payload", datagram))
	if s.Sink != nil {
		cp := make([]byte, len(datagram))
		copy(cp, datagram)
		s.Sink(cp)
	}
	onComplete(nil)
}
