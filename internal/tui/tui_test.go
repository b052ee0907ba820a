package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/sequencer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func testCircuit() precharge.Config {
	return precharge.Config{
		ResistorOhm:   16.0,
		CapacitanceF:  0.01,
		BusVoltageV:   48.0,
		MinPrechargeS: 0.05,
		MaxPrechargeS: 1.0,
		InrushLimitA:  3.0,
	}
}

func newTestModel(t *testing.T) (Model, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
	m, err := NewModel(testCircuit(), clock.now)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m, clock
}

func TestStepIdleWithoutSense(t *testing.T) {
	m, clock := newTestModel(t)

	for i := 0; i < 10; i++ {
		clock.advance(100 * time.Millisecond)
		m.step()
	}
	if got := m.ctrl.State(); got != sequencer.StateIdle {
		t.Errorf("state = %v, want IDLE", got)
	}
	if len(m.events) != 0 {
		t.Errorf("events = %v, want none", m.events)
	}
}

func TestStepFullCloseSequence(t *testing.T) {
	m, clock := newTestModel(t)

	m.sim.SetSense(true)
	// tau = 0.16s, so 0.6s is past t90 and past t_min.
	for i := 0; i < 8; i++ {
		clock.advance(100 * time.Millisecond)
		m.step()
	}

	if got := m.ctrl.State(); got != sequencer.StateClosed {
		t.Fatalf("state = %v, want CLOSED (events: %v)", got, m.events)
	}
	if m.driver.Closes() != 1 {
		t.Errorf("driver closes = %d, want 1", m.driver.Closes())
	}

	joined := strings.Join(m.events, "\n")
	for _, want := range []string{"ALIGNING", "SENSE_MADE", "PRECHARGE_START", "MAIN_CLOSED"} {
		if !strings.Contains(joined, want) {
			t.Errorf("event log missing %s:\n%s", want, joined)
		}
	}
}

func TestStepEstopOpensFromClosed(t *testing.T) {
	m, clock := newTestModel(t)

	m.sim.SetSense(true)
	for i := 0; i < 8; i++ {
		clock.advance(100 * time.Millisecond)
		m.step()
	}
	if m.ctrl.State() != sequencer.StateClosed {
		t.Fatalf("precondition: state = %v", m.ctrl.State())
	}

	m.sim.SetEstop(true)
	clock.advance(100 * time.Millisecond)
	m.step()

	if got := m.ctrl.State(); got != sequencer.StateOpening {
		t.Errorf("state = %v, want OPENING", got)
	}
	if m.driver.Opens() != 1 {
		t.Errorf("driver opens = %d, want 1", m.driver.Opens())
	}
}

func TestAttemptTimerResetsPerAttempt(t *testing.T) {
	m, clock := newTestModel(t)

	m.sim.SetSense(true)
	for i := 0; i < 8; i++ {
		clock.advance(100 * time.Millisecond)
		m.step()
	}
	firstTimer := m.attemptTimer

	// Open, then run a second attempt; the timer must restart from zero.
	m.sim.SetSense(false)
	for i := 0; i < 3; i++ {
		clock.advance(100 * time.Millisecond)
		m.step()
	}
	m.sim.SetSense(true)
	for i := 0; i < 3; i++ {
		clock.advance(100 * time.Millisecond)
		m.step()
	}

	if m.ctrl.State() != sequencer.StatePrecharging {
		t.Fatalf("state = %v, want PRECHARGING", m.ctrl.State())
	}
	if m.attemptTimer >= firstTimer {
		t.Errorf("timer = %g, want restart below %g", m.attemptTimer, firstTimer)
	}
}

func TestHandleCommand(t *testing.T) {
	m, _ := newTestModel(t)

	cases := []struct {
		input string
		quit  bool
		check func() bool
	}{
		{"sense on", false, func() bool { r, _ := m.sim.Sample(); return r.ContactSense }},
		{"sense off", false, func() bool { r, _ := m.sim.Sample(); return !r.ContactSense }},
		{"estop on", false, func() bool { r, _ := m.sim.Sample(); return r.EmergencyOpen }},
		{"e off", false, func() bool { r, _ := m.sim.Sample(); return !r.EmergencyOpen }},
		{"quit", true, nil},
		{"q", true, nil},
	}
	for _, tc := range cases {
		m.textInput.SetValue(tc.input)
		if got := m.handleCommand(); got != tc.quit {
			t.Errorf("handleCommand(%q) quit = %v, want %v", tc.input, got, tc.quit)
		}
		if tc.check != nil && !tc.check() {
			t.Errorf("command %q did not take effect", tc.input)
		}
	}
}

func TestHandleCommandRejectsMalformed(t *testing.T) {
	m, _ := newTestModel(t)

	for _, input := range []string{"sense", "sense maybe", "estop", "bogus on"} {
		m.textInput.SetValue(input)
		if m.handleCommand() {
			t.Errorf("%q should not quit", input)
		}
		if m.status == "" || strings.Contains(m.status, "Ready") {
			t.Errorf("%q should set an error status, got %q", input, m.status)
		}
	}
}
