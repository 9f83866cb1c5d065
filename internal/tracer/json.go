// internal/tracer/json.go
// Hand-written Chrome-trace span encoding. The event schema is a closed
// catalogue (internal/schema), so args are built field-by-field from
// schema.Fields rather than through encoding/json's map-based reflection —
// that keeps field order deterministic and matches the declared-field-order
// requirement spec callers rely on for scenario replay.
package tracer

import (
	"bytes"
	"strconv"

	"github.com/xet7/tigerbeetle/internal/schema"
)

// traceSpanSizeMax bounds one formatted span object, the tracer's scratch
// buffer. A span that doesn't fit is dropped and logged, never truncated
// into invalid JSON.
const traceSpanSizeMax = 1024

// writeBeginSpan writes a phase-"B" Chrome-trace object for e into dst, or
// returns false (without partially writing) if it would exceed
// traceSpanSizeMax.
func writeBeginSpan(dst *bytes.Buffer, pid uint8, tid uint32, tsUS int64, e schema.Event) bool {
	var scratch bytes.Buffer
	scratch.WriteByte('{')
	writeUintField(&scratch, "pid", uint64(pid))
	scratch.WriteByte(',')
	writeUintField(&scratch, "tid", uint64(tid))
	scratch.WriteString(`,"cat":`)
	writeJSONString(&scratch, e.Tag().String())
	scratch.WriteString(`,"ph":"B"`)
	scratch.WriteByte(',')
	writeIntField(&scratch, "ts", tsUS)
	scratch.WriteString(`,"name":`)
	writeJSONString(&scratch, e.Tag().String())
	scratch.WriteString(`,"args":{`)
	for i, f := range schema.Fields(e) {
		if i > 0 {
			scratch.WriteByte(',')
		}
		writeJSONString(&scratch, f.Name)
		scratch.WriteByte(':')
		// Integer fields are JSON numbers; enum tag names are strings.
		if _, err := strconv.ParseUint(f.Value, 10, 64); err == nil {
			scratch.WriteString(f.Value)
		} else {
			writeJSONString(&scratch, f.Value)
		}
	}
	scratch.WriteString("}}")

	if scratch.Len() > traceSpanSizeMax {
		return false
	}
	dst.Write(scratch.Bytes())
	return true
}

// writeEndSpan writes a phase-"E" object, which omits cat/name/args — end
// events are matched to their begin event by tid alone.
func writeEndSpan(dst *bytes.Buffer, pid uint8, tid uint32, tsUS int64) bool {
	var scratch bytes.Buffer
	scratch.WriteByte('{')
	writeUintField(&scratch, "pid", uint64(pid))
	scratch.WriteByte(',')
	writeUintField(&scratch, "tid", uint64(tid))
	scratch.WriteString(`,"ph":"E"`)
	scratch.WriteByte(',')
	writeIntField(&scratch, "ts", tsUS)
	scratch.WriteByte('}')

	if scratch.Len() > traceSpanSizeMax {
		return false
	}
	dst.Write(scratch.Bytes())
	return true
}

func writeUintField(dst *bytes.Buffer, name string, v uint64) {
	dst.WriteByte('"')
	dst.WriteString(name)
	dst.WriteString(`":`)
	dst.WriteString(strconv.FormatUint(v, 10))
}

func writeIntField(dst *bytes.Buffer, name string, v int64) {
	dst.WriteByte('"')
	dst.WriteString(name)
	dst.WriteString(`":`)
	dst.WriteString(strconv.FormatInt(v, 10))
}

// writeJSONString writes s as a JSON string literal. Every value this
// package quotes (tag names, enum field values) comes from the closed
// schema catalogue and never contains a quote or control character, so this
// intentionally skips general-purpose escaping.
func writeJSONString(dst *bytes.Buffer, s string) {
	dst.WriteByte('"')
	dst.WriteString(s)
	dst.WriteByte('"')
}
