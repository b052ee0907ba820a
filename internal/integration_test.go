package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/precharge-sequencer/internal/contactor"
	"github.com/sweeney/precharge-sequencer/internal/mqtt"
	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/sequencer"
	"github.com/sweeney/precharge-sequencer/internal/signal"
)

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

// stepAll drives the controller through every reading the way the
// daemon loop does: timer from reading timestamps, one transition
// published per moved step.
func stepAll(t *testing.T, source *signal.FakeSource, ctrl *sequencer.Controller, publisher *mqtt.FakePublisher, n int) {
	t.Helper()
	var (
		prechargeStart time.Time
		attemptTimer   float64
	)
	for i := 0; i < n; i++ {
		reading, err := source.Sample()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}

		if ctrl.State() == sequencer.StatePrecharging {
			attemptTimer = reading.At.Sub(prechargeStart).Seconds()
		}

		state := ctrl.Step(sequencer.Signals{
			ContactSense:  reading.ContactSense,
			EmergencyOpen: reading.EmergencyOpen,
			Timer:         attemptTimer,
			CapVoltage:    reading.CapVoltage,
		})

		if ev, ok := ctrl.LastEvent(); ok {
			if state == sequencer.StatePrecharging {
				prechargeStart = reading.At
				attemptTimer = 0
			}
			if err := publisher.Publish(mqtt.Transition{Timestamp: reading.At, Event: ev}); err != nil {
				t.Fatalf("sample %d: publish error: %v", i, err)
			}
		}
	}
}

// TestIntegrationCloseCycle runs signal → sequencer → contactor → MQTT
// through a complete seat, precharge, close, and unseat cycle on fakes.
func TestIntegrationCloseCycle(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(s float64) time.Time { return base.Add(time.Duration(s * float64(time.Second))) }

	readings := []signal.Reading{
		{At: at(0.0)},                                             // idle
		{ContactSense: true, At: at(0.1)},                         // seat → ALIGNING
		{ContactSense: true, At: at(0.2)},                         // → SENSE_MADE
		{ContactSense: true, At: at(0.3)},                         // → PRECHARGING
		{ContactSense: true, CapVoltage: 20.0, At: at(0.4)},       // charging, hold
		{ContactSense: true, CapVoltage: 40.0, At: at(0.5)},       // below 43.2 V, hold
		{ContactSense: true, CapVoltage: 45.5, At: at(0.6)},       // → CLOSED
		{ContactSense: true, CapVoltage: 47.9, At: at(0.7)},       // hold closed
		{ContactSense: false, CapVoltage: 47.9, At: at(0.8)},      // unseat → OPENING
		{At: at(0.9)},                                             // → IDLE
	}

	source := signal.NewFakeSource(readings)
	driver := contactor.NewFake()
	publisher := mqtt.NewFakePublisher()

	ctrl, err := sequencer.New(testCircuit(), driver)
	if err != nil {
		t.Fatalf("sequencer.New: %v", err)
	}

	stepAll(t, source, ctrl, publisher, len(readings))

	wantTypes := []sequencer.EventType{
		sequencer.EventAligning,
		sequencer.EventSenseMade,
		sequencer.EventPrechargeStart,
		sequencer.EventMainClosed,
		sequencer.EventMainOpening,
		sequencer.EventOpenComplete,
	}
	if len(publisher.Transitions) != len(wantTypes) {
		t.Fatalf("expected %d transitions, got %d", len(wantTypes), len(publisher.Transitions))
	}
	for i, want := range wantTypes {
		if publisher.Transitions[i].Event.Type != want {
			t.Errorf("transition %d: expected %s, got %s", i, want, publisher.Transitions[i].Event.Type)
		}
	}

	// The contactor saw exactly one close then one open.
	if got := driver.Calls(); len(got) != 2 || got[0] != "close" || got[1] != "open" {
		t.Errorf("contactor calls = %v, want [close open]", got)
	}

	// The close edge carried the derived attempt timer and the measured voltage.
	var closePayload struct {
		Precharge struct {
			Event       string  `json:"event"`
			State       string  `json:"state"`
			TimerS      float64 `json:"timer_s"`
			CapVoltageV float64 `json:"cap_voltage_v"`
		} `json:"precharge"`
	}
	if err := json.Unmarshal(publisher.Payloads[3], &closePayload); err != nil {
		t.Fatalf("close payload: %v", err)
	}
	if closePayload.Precharge.Event != "MAIN_CLOSED" || closePayload.Precharge.State != "CLOSED" {
		t.Errorf("close payload = %+v", closePayload.Precharge)
	}
	if closePayload.Precharge.TimerS < 0.29 || closePayload.Precharge.TimerS > 0.31 {
		t.Errorf("close timer = %g, want ≈0.3", closePayload.Precharge.TimerS)
	}
	if closePayload.Precharge.CapVoltageV != 45.5 {
		t.Errorf("close voltage = %g, want 45.5", closePayload.Precharge.CapVoltageV)
	}
}

// TestIntegrationTimeoutFault verifies a stuck precharge latches FAULT,
// never drives the contactor, and recovers once the connector is pulled.
func TestIntegrationTimeoutFault(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(s float64) time.Time { return base.Add(time.Duration(s * float64(time.Second))) }

	readings := []signal.Reading{
		{ContactSense: true, At: at(0.1)},
		{ContactSense: true, At: at(0.2)},
		{ContactSense: true, At: at(0.3)}, // → PRECHARGING
	}
	// Shorted capacitor: voltage never rises, attempt times out past 1.0s.
	for i := 1; i <= 12; i++ {
		readings = append(readings, signal.Reading{
			ContactSense: true,
			CapVoltage:   0.8,
			At:           at(0.3 + float64(i)*0.1),
		})
	}
	// Pull the connector: FAULT clears to IDLE.
	readings = append(readings, signal.Reading{At: at(1.6)})

	source := signal.NewFakeSource(readings)
	driver := contactor.NewFake()
	publisher := mqtt.NewFakePublisher()

	ctrl, err := sequencer.New(testCircuit(), driver)
	if err != nil {
		t.Fatalf("sequencer.New: %v", err)
	}

	stepAll(t, source, ctrl, publisher, len(readings))

	if ctrl.State() != sequencer.StateIdle {
		t.Errorf("state = %v, want IDLE after fault clear", ctrl.State())
	}
	counts := ctrl.Counts()
	if counts.Faults != 1 || counts.MainCloses != 0 {
		t.Errorf("counts = %+v, want 1 fault and no closes", counts)
	}
	if len(driver.Calls()) != 0 {
		t.Errorf("contactor calls = %v, want none", driver.Calls())
	}

	var sawFault, sawClear bool
	for _, tr := range publisher.Transitions {
		switch tr.Event.Type {
		case sequencer.EventPrechargeFault:
			sawFault = true
		case sequencer.EventFaultCleared:
			sawClear = true
		}
	}
	if !sawFault || !sawClear {
		t.Errorf("expected PRECHARGE_FAULT and FAULT_CLEARED transitions, got %+v", publisher.Transitions)
	}
}

// TestIntegrationSimulatedSource runs the controller against the RC
// simulator instead of scripted voltages, checking the two agree.
func TestIntegrationSimulatedSource(t *testing.T) {
	cfg := testCircuit()

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	sim := signal.NewSim(cfg, now)

	driver := contactor.NewFake()
	ctrl, err := sequencer.New(cfg, driver)
	if err != nil {
		t.Fatalf("sequencer.New: %v", err)
	}

	sim.SetSense(true)

	var (
		prechargeStart time.Time
		attemptTimer   float64
	)
	// tau = 0.16s; 90% at ≈0.37s. 12 ticks of 100ms is ample.
	for i := 0; i < 12; i++ {
		clock = clock.Add(100 * time.Millisecond)
		reading, err := sim.Sample()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}

		if ctrl.State() == sequencer.StatePrecharging {
			attemptTimer = reading.At.Sub(prechargeStart).Seconds()
		}
		state := ctrl.Step(sequencer.Signals{
			ContactSense:  reading.ContactSense,
			EmergencyOpen: reading.EmergencyOpen,
			Timer:         attemptTimer,
			CapVoltage:    reading.CapVoltage,
		})
		if state == sequencer.StatePrecharging {
			if _, ok := ctrl.LastEvent(); ok {
				prechargeStart = reading.At
				attemptTimer = 0
			}
		}
	}

	if ctrl.State() != sequencer.StateClosed {
		t.Errorf("state = %v, want CLOSED", ctrl.State())
	}
	if driver.Closes() != 1 {
		t.Errorf("closes = %d, want 1", driver.Closes())
	}
}
