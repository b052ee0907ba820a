package signal

import (
	"sync"
	"time"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
)

// SimStep changes the simulated inputs at an offset from the sim start.
type SimStep struct {
	At    time.Duration
	Sense bool
	Estop bool
}

// Sim synthesizes readings from the ideal RC charging law. While sense
// is asserted the capacitor voltage follows V·(1 − exp(−t/RC)) from the
// moment of assertion; deasserting sense reports the capacitor as fully
// discharged, so reassertion restarts the charge from zero. Inputs
// change either through a scripted timeline or through
// SetSense/SetEstop (the TUI drives it that way).
//
// The clock is injectable, so a scripted sim is fully deterministic.
type Sim struct {
	cfg precharge.Config
	now func() time.Time

	mu         sync.Mutex
	start      time.Time
	script     []SimStep
	scriptPos  int
	sense      bool
	estop      bool
	senseSince time.Time
}

// NewSim creates a simulator for the given precharge circuit. A nil now
// selects time.Now.
func NewSim(cfg precharge.Config, now func() time.Time) *Sim {
	if now == nil {
		now = time.Now
	}
	return &Sim{cfg: cfg, now: now, start: now()}
}

// SetScript installs a timeline of input changes, applied as sampling
// passes each step's offset. Steps must be in increasing At order.
func (s *Sim) SetScript(steps []SimStep) {
	s.mu.Lock()
	s.script = steps
	s.scriptPos = 0
	s.mu.Unlock()
}

// SetSense asserts or deasserts the contact-sense input.
func (s *Sim) SetSense(on bool) {
	s.mu.Lock()
	s.applySense(on, s.now())
	s.mu.Unlock()
}

// SetEstop asserts or deasserts the emergency-open input.
func (s *Sim) SetEstop(on bool) {
	s.mu.Lock()
	s.estop = on
	s.mu.Unlock()
}

func (s *Sim) applySense(on bool, at time.Time) {
	if on && !s.sense {
		s.senseSince = at
	}
	s.sense = on
}

// Sample returns the current simulated reading.
func (s *Sim) Sample() (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for s.scriptPos < len(s.script) && now.Sub(s.start) >= s.script[s.scriptPos].At {
		step := s.script[s.scriptPos]
		s.applySense(step.Sense, s.start.Add(step.At))
		s.estop = step.Estop
		s.scriptPos++
	}

	var vcap float64
	if s.sense {
		elapsed := now.Sub(s.senseSince).Seconds()
		vcap = precharge.VoltageAtTime(s.cfg.BusVoltageV, s.cfg.ResistorOhm, s.cfg.CapacitanceF, elapsed)
	}

	return Reading{
		ContactSense:  s.sense,
		EmergencyOpen: s.estop,
		CapVoltage:    vcap,
		At:            now,
	}, nil
}

// Close is a no-op; the simulator holds no resources.
func (s *Sim) Close() error {
	return nil
}
