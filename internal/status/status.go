// Package status provides a thread-safe status tracker for the
// precharge-sequencer daemon. It is read by HTTP handlers and feeds the
// snapshot payloads attached to MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/precharge-sequencer/internal/sequencer"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs        int64
	Broker        string
	HTTPAddr      string
	MetricsAddr   string
	Source        string
	BusVoltageV   float64
	CapacitanceF  float64
	ResistorOhm   float64
	MinPrechargeS float64
	MaxPrechargeS float64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         sequencer.State
	CapVoltage    float64
	AttemptTimer  float64 // seconds into the current precharge attempt
	Counts        sequencer.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets sequencer state, measured voltage, attempt timer, and
// transition counts. Called from the run loop on every tick.
func (t *Tracker) Update(state sequencer.State, capVoltage, attemptTimer float64, counts sequencer.Counts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.CapVoltage = capVoltage
	t.snap.AttemptTimer = attemptTimer
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
