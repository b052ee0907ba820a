package signal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// TracePoint is one line of a recorded signal trace.
type TracePoint struct {
	T     float64 // seconds from trace start
	Sense bool
	Estop bool
	VCap  float64
}

// ParseTrace reads a recorded signal trace: one `t,sense,estop,vcap`
// line per sample, with sense/estop as 0 or 1. Blank lines, `#`
// comments, and a leading `t,...` header are skipped. Timestamps must
// be non-decreasing — a trace that violates that could never have been
// recorded from a live run.
func ParseTrace(r io.Reader) ([]TracePoint, error) {
	var points []TracePoint
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// The header may follow comment lines, so key on "no data
		// parsed yet" rather than the physical line number.
		if len(points) == 0 && strings.HasPrefix(strings.ToLower(line), "t,") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("trace line %d: want 4 fields, got %d", lineNo, len(fields))
		}

		t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: time: %w", lineNo, err)
		}
		sense, err := parseBit(fields[1])
		if err != nil {
			return nil, fmt.Errorf("trace line %d: sense: %w", lineNo, err)
		}
		estop, err := parseBit(fields[2])
		if err != nil {
			return nil, fmt.Errorf("trace line %d: estop: %w", lineNo, err)
		}
		vcap, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: vcap: %w", lineNo, err)
		}

		if len(points) > 0 && t < points[len(points)-1].T {
			return nil, fmt.Errorf("trace line %d: time %g before previous %g", lineNo, t, points[len(points)-1].T)
		}
		points = append(points, TracePoint{T: t, Sense: sense, Estop: estop, VCap: vcap})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return points, nil
}

func parseBit(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("want 0 or 1, got %q", s)
}

// Replay plays a parsed trace back as a Source, one point per Sample
// call. Reading timestamps are offset from a fixed base so a run-loop
// driven by them reproduces the recorded timing exactly.
type Replay struct {
	points []TracePoint
	base   time.Time
	index  int
	Closed bool
}

// NewReplay creates a Replay source over the given points.
func NewReplay(points []TracePoint, base time.Time) *Replay {
	return &Replay{points: points, base: base}
}

// Sample returns the next trace point. The trace end repeats its last
// point, matching how a live source keeps returning the final settled
// reading.
func (r *Replay) Sample() (Reading, error) {
	if len(r.points) == 0 {
		return Reading{}, fmt.Errorf("replay: empty trace")
	}
	p := r.points[r.index]
	if r.index < len(r.points)-1 {
		r.index++
	}
	return Reading{
		ContactSense:  p.Sense,
		EmergencyOpen: p.Estop,
		CapVoltage:    p.VCap,
		At:            r.base.Add(time.Duration(p.T * float64(time.Second))),
	}, nil
}

// Done reports whether the final trace point has been sampled.
func (r *Replay) Done() bool {
	return r.index >= len(r.points)-1
}

// Close marks the source as closed.
func (r *Replay) Close() error {
	r.Closed = true
	return nil
}
