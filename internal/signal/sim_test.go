package signal

import (
	"math"
	"testing"
	"time"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
)

func simConfig() precharge.Config {
	return precharge.Config{
		ResistorOhm:   16.0,
		CapacitanceF:  0.01,
		BusVoltageV:   48.0,
		MinPrechargeS: 0.05,
		MaxPrechargeS: 1.0,
		InrushLimitA:  3.0,
	}
}

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time {
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func TestSimIdleReadsZero(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sim := NewSim(simConfig(), clock.now)

	r, err := sim.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if r.ContactSense || r.EmergencyOpen {
		t.Errorf("idle sim asserted inputs: %+v", r)
	}
	if r.CapVoltage != 0 {
		t.Errorf("idle cap voltage = %g, want 0", r.CapVoltage)
	}
	if !r.At.Equal(clock.t) {
		t.Errorf("reading time = %v, want %v", r.At, clock.t)
	}
}

func TestSimFollowsRCCurve(t *testing.T) {
	cfg := simConfig()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sim := NewSim(cfg, clock.now)

	sim.SetSense(true)

	// One time constant in: V should be V_bus·(1 − 1/e).
	clock.advance(160 * time.Millisecond)
	r, err := sim.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	want := precharge.VoltageAtTime(cfg.BusVoltageV, cfg.ResistorOhm, cfg.CapacitanceF, 0.160)
	if math.Abs(r.CapVoltage-want) > 1e-9 {
		t.Errorf("at tau: got %.6f V, want %.6f V", r.CapVoltage, want)
	}
	if math.Abs(r.CapVoltage-48.0*(1-1/math.E)) > 1e-6 {
		t.Errorf("at tau: got %.6f V, want %.6f V", r.CapVoltage, 48.0*(1-1/math.E))
	}

	// Well past t90 the voltage approaches the bus.
	clock.advance(2 * time.Second)
	r, _ = sim.Sample()
	if r.CapVoltage < 0.99*cfg.BusVoltageV {
		t.Errorf("after 2s: got %.3f V, want near %.1f V", r.CapVoltage, cfg.BusVoltageV)
	}
}

func TestSimDisconnectBleedsToZero(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sim := NewSim(simConfig(), clock.now)

	sim.SetSense(true)
	clock.advance(500 * time.Millisecond)
	r, _ := sim.Sample()
	if r.CapVoltage == 0 {
		t.Fatal("expected charge while seated")
	}

	sim.SetSense(false)
	r, _ = sim.Sample()
	if r.ContactSense {
		t.Error("sense still asserted after disconnect")
	}
	if r.CapVoltage != 0 {
		t.Errorf("disconnected cap voltage = %g, want 0", r.CapVoltage)
	}
}

func TestSimReconnectRestartsCharge(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sim := NewSim(simConfig(), clock.now)

	sim.SetSense(true)
	clock.advance(1 * time.Second)
	sim.SetSense(false)
	clock.advance(1 * time.Second)

	// Reconnect: the charge clock restarts from now, not from the first
	// connection.
	sim.SetSense(true)
	clock.advance(10 * time.Millisecond)
	r, _ := sim.Sample()
	want := precharge.VoltageAtTime(48.0, 16.0, 0.01, 0.010)
	if math.Abs(r.CapVoltage-want) > 1e-9 {
		t.Errorf("after reconnect: got %.6f V, want %.6f V", r.CapVoltage, want)
	}
}

func TestSimScriptedTimeline(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sim := NewSim(simConfig(), clock.now)
	sim.SetScript([]SimStep{
		{At: 100 * time.Millisecond, Sense: true},
		{At: 2 * time.Second, Sense: true, Estop: true},
		{At: 3 * time.Second},
	})

	r, _ := sim.Sample()
	if r.ContactSense {
		t.Error("sense asserted before script start")
	}

	clock.advance(150 * time.Millisecond)
	r, _ = sim.Sample()
	if !r.ContactSense || r.EmergencyOpen {
		t.Errorf("after connect step: %+v", r)
	}

	clock.advance(2 * time.Second)
	r, _ = sim.Sample()
	if !r.EmergencyOpen {
		t.Error("estop step not applied")
	}

	clock.advance(1 * time.Second)
	r, _ = sim.Sample()
	if r.ContactSense || r.EmergencyOpen {
		t.Errorf("after final step: %+v", r)
	}
}

func TestSimScriptSenseStartAnchoredToStepTime(t *testing.T) {
	cfg := simConfig()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sim := NewSim(cfg, clock.now)
	sim.SetScript([]SimStep{{At: 100 * time.Millisecond, Sense: true}})

	// First sample long after the connect step: charge time counts from
	// the scripted offset, not from this sample.
	clock.advance(260 * time.Millisecond)
	r, _ := sim.Sample()
	want := precharge.VoltageAtTime(cfg.BusVoltageV, cfg.ResistorOhm, cfg.CapacitanceF, 0.160)
	if math.Abs(r.CapVoltage-want) > 1e-9 {
		t.Errorf("got %.6f V, want %.6f V", r.CapVoltage, want)
	}
}
