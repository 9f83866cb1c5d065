// pkg/otel/spanlink.go
// Optional helpers that let internal/remotecollector correlate its
// reconnect goroutine with an OpenTelemetry span, so a collector-side trace
// backend can line up a dial attempt with whatever span was active when the
// stream dropped. internal/remotecollector is its only importer in this
// module.
package otel

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const attrGIDKey = "runtime.gid"

// GoroutineID returns the numeric ID of the calling goroutine by parsing the
// stack trace header. Stable since Go 1.4; cheap enough to call per dial.
func GoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	if len(fields) == 0 {
		return 0
	}
	id, _ := strconv.ParseUint(fields[0], 10, 64)
	return id
}

// StartLinkedSpan starts a child span of the span in ctx (or a root span if
// ctx carries none) and attaches the current goroutine ID as an attribute,
// so a reconnect attempt can be cross-referenced against the goroutine that
// issued it.
func StartLinkedSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	gid := GoroutineID()
	attr := attribute.Int64(attrGIDKey, int64(gid))
	opts = append(opts, trace.WithAttributes(attr))
	return tracer.Start(ctx, name, opts...)
}
