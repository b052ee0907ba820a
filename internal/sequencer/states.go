// Package sequencer contains the pure safety state machine that
// sequences main-contactor closure behind a resistor-limited precharge.
// This package has NO external dependencies (no GPIO, MQTT, OS, or
// clocks). Elapsed time always arrives through the Signals snapshot.
package sequencer

// State is the safety state of one contactor pair. Exactly one state is
// active at a time; Idle is initial and there is no terminal state.
type State int

const (
	StateIdle State = iota
	StateAligning
	StateSenseMade
	StatePrecharging
	StateClosed
	StateOpening
	StateFault
)

// String returns the canonical uppercase name used in telemetry.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAligning:
		return "ALIGNING"
	case StateSenseMade:
		return "SENSE_MADE"
	case StatePrecharging:
		return "PRECHARGING"
	case StateClosed:
		return "CLOSED"
	case StateOpening:
		return "OPENING"
	case StateFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// Signals is a snapshot of the world at one controller step. The caller
// owns sampling cadence and supplies Timer as seconds elapsed since the
// current precharge attempt began; the controller never reads a clock.
//
// Timer must be non-decreasing between entering PRECHARGING and leaving
// it. That is a caller contract, not an enforced invariant.
type Signals struct {
	// ContactSense is true while the load connector is mechanically seated.
	ContactSense bool
	// EmergencyOpen is a commanded abort, honored on the next step.
	EmergencyOpen bool
	// Timer is elapsed seconds within the current precharge attempt.
	Timer float64
	// CapVoltage is the measured bus-capacitor voltage.
	CapVoltage float64
}

// EventType names a state transition edge for telemetry.
type EventType string

const (
	EventAligning       EventType = "ALIGNING"
	EventSenseLost      EventType = "SENSE_LOST"
	EventSenseMade      EventType = "SENSE_MADE"
	EventPrechargeStart EventType = "PRECHARGE_START"
	EventMainClosed     EventType = "MAIN_CLOSED"
	EventMainOpening    EventType = "MAIN_OPENING"
	EventPrechargeAbort EventType = "PRECHARGE_ABORT"
	EventPrechargeFault EventType = "PRECHARGE_FAULT"
	EventOpenComplete   EventType = "OPEN_COMPLETE"
	EventFaultCleared   EventType = "FAULT_CLEARED"
)

// Event records one state transition together with the signals that
// caused it.
type Event struct {
	Type    EventType
	From    State
	To      State
	Signals Signals
}

// Counts tracks transitions of supervisory interest since construction.
type Counts struct {
	MainCloses int
	MainOpens  int
	Faults     int
	Aborts     int
}

// EventForTransition returns the telemetry event type for a state edge.
// ok is false for (from, to) pairs the machine never produces.
func EventForTransition(from, to State) (EventType, bool) {
	switch {
	case from == StateIdle && to == StateAligning:
		return EventAligning, true
	case from == StateAligning && to == StateIdle:
		return EventSenseLost, true
	case from == StateAligning && to == StateSenseMade:
		return EventSenseMade, true
	case from == StateSenseMade && to == StatePrecharging:
		return EventPrechargeStart, true
	case from == StatePrecharging && to == StateClosed:
		return EventMainClosed, true
	case from == StatePrecharging && to == StateOpening:
		return EventPrechargeAbort, true
	case from == StatePrecharging && to == StateFault:
		return EventPrechargeFault, true
	case from == StateClosed && to == StateOpening:
		return EventMainOpening, true
	case from == StateOpening && to == StateIdle:
		return EventOpenComplete, true
	case from == StateFault && to == StateIdle:
		return EventFaultCleared, true
	}
	return "", false
}
