// Package precharge models the resistor-limited charging of a bus
// capacitor before a main contactor closes.
//
// The functions are the closed-form ideal-RC laws — exact, not
// simulated. They size a precharge circuit and derive its timing
// envelope; the sequencer consumes the result once at construction and
// is afterwards driven only by measured signals, so controller behavior
// stays robust to real-world deviation from the ideal RC assumption.
package precharge

import "math"

// ln10 is -ln(0.1): the number of time constants to reach 90% charge.
const ln10 = 2.302585093

// currentFloor guards the resistor division when a caller passes a zero
// inrush limit. A zero-current request is degenerate, not an error, in
// a design-time tool.
const currentFloor = 1e-12

// maxFraction keeps TimeToFraction finite: ln(1-f) diverges at f = 1.
const maxFraction = 0.999999

// DefaultFraction is the charge target used when a caller does not ask
// for a specific one.
const DefaultFraction = 0.95

// Resistor sizes the precharge resistor for a bus and inrush budget.
// It returns the resistor value, the RC time constant, and the time to
// reach 90% of bus voltage.
func Resistor(busVoltageV, busCapacitanceF, inrushLimitA float64) (r, tau, t90 float64) {
	r = busVoltageV / math.Max(currentFloor, inrushLimitA)
	tau = r * busCapacitanceF
	t90 = ln10 * tau
	return r, tau, t90
}

// TimeToFraction returns how long the capacitor takes to reach the given
// fraction of bus voltage through rOhm. The fraction is clamped into
// [0, 0.999999].
func TimeToFraction(rOhm, cF, fraction float64) float64 {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > maxFraction {
		fraction = maxFraction
	}
	return -math.Log(1.0-fraction) * rOhm * cF
}

// InrushAtTime returns the instantaneous charging current t seconds
// after the precharge path energizes: I(t) = (V/R)·exp(−t/RC).
func InrushAtTime(busVoltageV, rOhm, cF, tS float64) float64 {
	return (busVoltageV / rOhm) * math.Exp(-tS/(rOhm*cF))
}

// VoltageAtTime returns the capacitor voltage t seconds after the
// precharge path energizes: V(t) = V·(1 − exp(−t/RC)).
func VoltageAtTime(busVoltageV, rOhm, cF, tS float64) float64 {
	return busVoltageV * (1.0 - math.Exp(-tS/(rOhm*cF)))
}

// Report captures one precharge design calculation for display.
type Report struct {
	BusVoltageV  float64
	CapacitanceF float64
	InrushLimitA float64
	ResistorOhm  float64
	TauS         float64
	T90S         float64
}

// Design composes Resistor into a report.
func Design(busVoltageV, busCapacitanceF, inrushLimitA float64) Report {
	r, tau, t90 := Resistor(busVoltageV, busCapacitanceF, inrushLimitA)
	return Report{
		BusVoltageV:  busVoltageV,
		CapacitanceF: busCapacitanceF,
		InrushLimitA: inrushLimitA,
		ResistorOhm:  r,
		TauS:         tau,
		T90S:         t90,
	}
}
