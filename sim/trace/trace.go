// Package trace turns a textual packet trace into the seed SimEvents a
// Simulator's queue is primed with, and formats a simulated trace back out
// in the same line format.
package trace

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trafficsim/trafficsim/sim"
)

// Direction is one token of a trace line's second field.
type Direction string

const (
	DirClientSent Direction = "s"
	DirServerSent Direction = "r"

	// The remaining tokens are side-relative, not endpoint-relative: "sn"
	// always means a normal packet sent by whichever endpoint produced the
	// line, "rn" a normal packet received by it, regardless of whether that
	// endpoint is the client or the server.
	DirNormalSent    Direction = "sn"
	DirNormalRecv    Direction = "rn"
	DirPaddingSent   Direction = "sp"
	DirPaddingRecv   Direction = "rp"
	DirBlockingBegin Direction = "bb"
	DirBlockingEnd   Direction = "be"
)

// ParseError reports a malformed trace line. Unknown directions are fatal;
// this type lets the caller decide exactly how loudly to fail.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace: line %d (%q): %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse turns trace text into a SimQueue of NormalQueued seed events.
// clientReportingDelay/serverReportingDelay and networkDelay are folded in
// once per call as fixed trace-seeding offsets (they are not themselves
// part of the per-event integration sampling that happens later in the
// simulation).
//
// Lines with fewer than two comma-separated fields are silently skipped;
// an unrecognized direction is a parse error. Padding directions (sp/rp)
// are recognized but ignored: padding is produced by defenses, not
// replayed from a trace.
func Parse(text string, base, clientReportingDelay, serverReportingDelay, networkDelay time.Duration) (*sim.SimQueue, error) {
	sq := sim.NewSimQueue()
	var fuzz uint32

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}

		nanos, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, &ParseError{Line: lineNo + 1, Text: line, Err: fmt.Errorf("invalid timestamp: %w", err)}
		}
		at := base + time.Duration(nanos)

		switch Direction(parts[1]) {
		case DirClientSent, DirNormalSent:
			t := at + clientReportingDelay
			fuzz++
			sq.Push(sim.TriggerEvent{Kind: sim.EventNormalQueued}, true, t, clientReportingDelay, fuzz)

		case DirServerSent, DirNormalRecv:
			t := at - networkDelay + serverReportingDelay
			fuzz++
			sq.Push(sim.TriggerEvent{Kind: sim.EventNormalQueued}, false, t, serverReportingDelay, fuzz)

		case DirPaddingSent, DirPaddingRecv:
			// Padding is produced by defenses, not replayed from a trace.
			continue

		default:
			return nil, &ParseError{Line: lineNo + 1, Text: line, Err: fmt.Errorf("invalid direction %q", parts[1])}
		}
	}

	return sq, nil
}

// direction returns the trace-line token for ev. The token names the action
// (sent/received, normal/padding, or a blocking transition), not which
// physical endpoint performed it: rendering one endpoint's own view of the
// trace is the caller's job (filter by SimEvent.Client before calling
// Format), exactly as Parse's own client/server distinction is folded into
// which side a line seeds, not into the token itself.
//
// Timer begin/end events have no line of their own: unlike blocking, which
// is externally observable as an absence of traffic, an internal timer is
// pure scheduling bookkeeping with no effect distinct from the padding it
// eventually produces, so it renders nothing, the same as a Queued event.
func direction(ev sim.SimEvent) (Direction, bool) {
	switch ev.Event.Kind {
	case sim.EventNormalSent:
		return DirNormalSent, true
	case sim.EventNormalRecv:
		return DirNormalRecv, true
	case sim.EventPaddingSent:
		return DirPaddingSent, true
	case sim.EventPaddingRecv:
		return DirPaddingRecv, true
	case sim.EventBlockingBegin:
		return DirBlockingBegin, true
	case sim.EventBlockingEnd:
		return DirBlockingEnd, true
	default:
		return "", false
	}
}

// hasSize reports whether ev's trace line carries a trailing size field.
// Only normal packets do (always 0: this generation of the simulator
// carries no per-packet byte count); padding and control lines don't carry
// one at all.
func hasSize(kind sim.EventKind) bool {
	switch kind {
	case sim.EventNormalSent, sim.EventNormalRecv:
		return true
	default:
		return false
	}
}

// Format renders a simulated trace back into the line format Parse reads:
// the natural counterpart to Parse, useful for round-tripping traces
// through benchmarks and tests. Pass a trace already filtered to one
// endpoint's SimEvent.Client to render that endpoint's own view.
func Format(trace []sim.SimEvent, base time.Duration) string {
	var b strings.Builder
	for _, ev := range trace {
		dir, ok := direction(ev)
		if !ok {
			continue
		}
		if hasSize(ev.Event.Kind) {
			fmt.Fprintf(&b, "%d,%s,0\n", int64(ev.Time-base), dir)
		} else {
			fmt.Fprintf(&b, "%d,%s\n", int64(ev.Time-base), dir)
		}
	}
	return b.String()
}
