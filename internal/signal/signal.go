// Package signal provides the sampled inputs the sequencer runs on,
// with hardware abstraction. The real implementations read a Linux GPIO
// character device or a serial monitor board; the sim and fake
// implementations allow running and testing without hardware.
package signal

import "time"

// Reading is one raw sample of the world. The daemon owns the attempt
// timer (elapsed time within a precharge attempt) and derives it from
// the At timestamps, so sources stay clock-agnostic.
type Reading struct {
	// ContactSense is true while the load connector is seated.
	ContactSense bool
	// EmergencyOpen is true while an abort is commanded.
	EmergencyOpen bool
	// CapVoltage is the measured bus-capacitor voltage in volts.
	CapVoltage float64
	// At is when the sample was taken.
	At time.Time
}

// Source samples signal readings.
type Source interface {
	// Sample returns the current reading.
	Sample() (Reading, error)

	// Close releases source resources.
	Close() error
}

// Default GPIO line offsets (BCM numbering) for the hardware source.
const (
	DefaultSensePin = 26 // contact sense input
	DefaultEstopPin = 16 // emergency open input
)
