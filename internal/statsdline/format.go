// internal/statsdline/format.go
// Package statsdline turns one metric sample into one StatsD text line,
// exactly the grammar spec.md §4.2 defines:
//
//	tb.<name><suffix>:<value>|<type>|#cluster:<32-hex>,replica:<decimal>[,<field>:<value>]*\n
//
// Formatting is a pure function of (sample, identity); there is no
// socket I/O in this package (see internal/emitter for packing+sending).
// The grammar mirrors plain StatsD as used by e.g. the dogstatsd line
// protocol, without any Datadog-specific extensions.
package statsdline

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xet7/tigerbeetle/internal/schema"
)

// ErrNoSpace is returned when a formatted line would exceed LineSizeMax.
// spec.md §4.2: this must never occur for any payload the catalogue admits
// — LineSizeMax is computed in budget.go from the catalogue's worst-case
// payloads precisely so this is unreachable in practice; format_test.go
// exercises every catalogue tag's worst case to confirm it. If it ever did
// trigger, the caller drops the sample and keeps packing (spec.md §4.3).
var ErrNoSpace = errors.New("statsdline: no space left")

// Identity carries the two tags appended to every line and to the JSON
// trace span pid field.
type Identity struct {
	Cluster [16]byte // u128, big-endian
	Replica uint8
}

// StatKind selects which of the five lines spec.md §4.2 describes a timing
// aggregate expands to. Order here is also the order §4.3 requires lines be
// appended in: min, max, avg, sum, count.
type StatKind uint8

const (
	StatMin StatKind = iota
	StatMax
	StatAvg
	StatSum
	StatCount
)

func (k StatKind) String() string {
	switch k {
	case StatMin:
		return "min"
	case StatMax:
		return "max"
	case StatAvg:
		return "avg"
	case StatSum:
		return "sum"
	case StatCount:
		return "count"
	default:
		return "unknown"
	}
}

// GaugeSample formats as "tb.<name>:<value>|g".
type GaugeSample struct {
	Event schema.Event
	Value uint64
}

// TimingSample formats as one of the five "tb.<name>_us.<kind>|<type>" lines.
type TimingSample struct {
	Event schema.Event
	Kind  StatKind
	Min   uint64
	Max   uint64
	Sum   uint64
	Count uint64
}

// Format appends exactly one newline-terminated StatsD line to dst. Returns
// ErrNoSpace, leaving dst unmodified, if the formatted line would be longer
// than LineSizeMax.
func Format(dst *bytes.Buffer, sample any, id Identity) error {
	var scratch bytes.Buffer
	formatInto(&scratch, sample, id)
	if scratch.Len() > LineSizeMax() {
		return ErrNoSpace
	}
	dst.Write(scratch.Bytes())
	return nil
}

func formatInto(dst *bytes.Buffer, sample any, id Identity) {
	switch s := sample.(type) {
	case GaugeSample:
		writeLine(dst, s.Event.Tag().String(), "", s.Value, 'g', id, s.Event)
	case TimingSample:
		switch s.Kind {
		case StatMin:
			writeLine(dst, s.Event.Tag().String(), "_us.min", s.Min, 'g', id, s.Event)
		case StatMax:
			writeLine(dst, s.Event.Tag().String(), "_us.max", s.Max, 'g', id, s.Event)
		case StatAvg:
			avg := uint64(0)
			if s.Count > 0 {
				avg = s.Sum / s.Count
			}
			writeLine(dst, s.Event.Tag().String(), "_us.avg", avg, 'g', id, s.Event)
		case StatSum:
			writeLine(dst, s.Event.Tag().String(), "_us.sum", s.Sum, 'c', id, s.Event)
		case StatCount:
			writeLine(dst, s.Event.Tag().String(), "_us.count", s.Count, 'c', id, s.Event)
		default:
			panic("statsdline: unknown stat kind")
		}
	default:
		panic("statsdline: unknown sample type")
	}
}

func writeLine(dst *bytes.Buffer, name, suffix string, value uint64, typ byte, id Identity, e schema.Event) {
	fmt.Fprintf(dst, "tb.%s%s:%d|%c|#cluster:%x,replica:%d", name, suffix, value, typ, id.Cluster[:], id.Replica)
	for _, f := range schema.Fields(e) {
		fmt.Fprintf(dst, ",%s:%s", f.Name, f.Value)
	}
	dst.WriteByte('\n')
}
