package signal

import (
	"strings"
	"testing"
	"time"
)

const sampleTrace = `# happy-path capture, 48V bus
t,sense,estop,vcap
0.0,0,0,0.0
0.1,1,0,0.0
0.2,1,0,12.5
0.3,1,0,30.1
0.4,1,0,45.0
0.6,0,0,44.8
`

func TestParseTrace(t *testing.T) {
	points, err := ParseTrace(strings.NewReader(sampleTrace))
	if err != nil {
		t.Fatalf("ParseTrace: %v", err)
	}
	if len(points) != 6 {
		t.Fatalf("got %d points, want 6", len(points))
	}

	first := points[0]
	if first.T != 0 || first.Sense || first.Estop || first.VCap != 0 {
		t.Errorf("first point = %+v", first)
	}
	p := points[4]
	if p.T != 0.4 || !p.Sense || p.Estop || p.VCap != 45.0 {
		t.Errorf("point 4 = %+v", p)
	}
	last := points[5]
	if last.Sense {
		t.Errorf("last point should be disconnected: %+v", last)
	}
}

func TestParseTraceHeaderAfterComments(t *testing.T) {
	trace := `# captured 2026-01-12
# rig: bench supply, 48V bus

t,sense,estop,vcap
0.0,0,0,0.0
0.1,1,0,2.5
`
	points, err := ParseTrace(strings.NewReader(trace))
	if err != nil {
		t.Fatalf("ParseTrace: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if !points[1].Sense || points[1].VCap != 2.5 {
		t.Errorf("point 1 = %+v", points[1])
	}
}

func TestParseTraceRejectsHeaderAmongData(t *testing.T) {
	// A header is only a header before the first data row; a stray one
	// mid-trace is a corrupt line, not something to skip.
	trace := "0.0,1,0,5.5\nt,sense,estop,vcap\n0.1,1,0,6.0\n"
	if _, err := ParseTrace(strings.NewReader(trace)); err == nil {
		t.Error("expected parse error for header line after data")
	}
}

func TestParseTraceNoHeader(t *testing.T) {
	points, err := ParseTrace(strings.NewReader("0.0,1,0,5.5\n1.0,1,1,6.0\n"))
	if err != nil {
		t.Fatalf("ParseTrace: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if !points[1].Estop {
		t.Error("estop bit lost")
	}
}

func TestParseTraceRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		trace string
	}{
		{"too few fields", "0.0,1,0\n"},
		{"too many fields", "0.0,1,0,5.5,9\n"},
		{"bad time", "abc,1,0,5.5\n"},
		{"bad sense bit", "0.0,2,0,5.5\n"},
		{"bad estop bit", "0.0,1,yes,5.5\n"},
		{"bad voltage", "0.0,1,0,volts\n"},
		{"time going backwards", "1.0,1,0,5.5\n0.5,1,0,6.0\n"},
	}
	for _, tc := range cases {
		if _, err := ParseTrace(strings.NewReader(tc.trace)); err == nil {
			t.Errorf("%s: expected parse error", tc.name)
		}
	}
}

func TestReplaySource(t *testing.T) {
	points, err := ParseTrace(strings.NewReader(sampleTrace))
	if err != nil {
		t.Fatalf("ParseTrace: %v", err)
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rp := NewReplay(points, base)

	r, err := rp.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !r.At.Equal(base) {
		t.Errorf("first At = %v, want %v", r.At, base)
	}

	// Walk to the 0.4s point and check the offset arithmetic.
	for i := 0; i < 3; i++ {
		rp.Sample()
	}
	r, _ = rp.Sample()
	wantAt := base.Add(400 * time.Millisecond)
	if !r.At.Equal(wantAt) {
		t.Errorf("At = %v, want %v", r.At, wantAt)
	}
	if r.CapVoltage != 45.0 {
		t.Errorf("vcap = %g, want 45.0", r.CapVoltage)
	}

	// The trace end repeats its last point.
	rp.Sample()
	if !rp.Done() {
		t.Error("Done should report true at trace end")
	}
	r, err = rp.Sample()
	if err != nil {
		t.Fatalf("Sample past end: %v", err)
	}
	if r.ContactSense || r.CapVoltage != 44.8 {
		t.Errorf("past end: %+v, want repeated final point", r)
	}
}

func TestReplayEmptyTrace(t *testing.T) {
	rp := NewReplay(nil, time.Now())
	if _, err := rp.Sample(); err == nil {
		t.Error("expected error sampling an empty trace")
	}
}

func TestFakeSource(t *testing.T) {
	readings := []Reading{
		{ContactSense: true, CapVoltage: 10},
		{ContactSense: true, CapVoltage: 20},
	}
	f := NewFakeSource(readings)

	r, err := f.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if r.CapVoltage != 10 {
		t.Errorf("first sample vcap = %g, want 10", r.CapVoltage)
	}

	// Exhausted scripts repeat the last reading.
	f.Sample()
	r, _ = f.Sample()
	if r.CapVoltage != 20 {
		t.Errorf("exhausted sample vcap = %g, want 20", r.CapVoltage)
	}

	f.Close()
	if !f.Closed {
		t.Error("Close not recorded")
	}

	f.Reset()
	if f.Closed {
		t.Error("Reset should clear Closed")
	}
	r, _ = f.Sample()
	if r.CapVoltage != 10 {
		t.Errorf("after Reset vcap = %g, want 10", r.CapVoltage)
	}
}
