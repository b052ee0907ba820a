package sequencer

import (
	"fmt"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
)

// CloseFraction of the nominal bus voltage the capacitor must reach
// before the main contactor may close.
const CloseFraction = 0.9

// Driver operates the main contactor. CloseMain fires exactly once on
// the PRECHARGING→CLOSED edge and OpenMain exactly once on
// CLOSED→OPENING; no other edge drives the contactor. Implementations
// own their failure handling: the control path never fails, so a driver
// that cannot reach hardware must latch the error itself.
type Driver interface {
	CloseMain()
	OpenMain()
}

// Noop is a Driver with no contactor attached. It substitutes for "no
// callback registered" so the machine can run and be tested without
// hardware-facing side effects.
type Noop struct{}

func (Noop) CloseMain() {}
func (Noop) OpenMain()  {}

// Controller advances the safety state once per caller-supplied Signals
// snapshot. It owns its Config, current State, and Driver exclusively.
//
// A Controller is not safe for concurrent use: drive each instance from
// exactly one control loop, or serialize Step calls externally.
type Controller struct {
	cfg    precharge.Config
	state  State
	driver Driver
	counts Counts
	last   Event
	moved  bool
}

// New builds a Controller in StateIdle. Invalid configurations are
// rejected here, before any stepping begins. A nil driver selects Noop.
func New(cfg precharge.Config, driver Driver) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sequencer: %w", err)
	}
	if driver == nil {
		driver = Noop{}
	}
	return &Controller{cfg: cfg, driver: driver}, nil
}

// Step consumes one Signals snapshot and returns the new state. It is
// synchronous and non-blocking, always succeeds, and represents every
// abnormal operating condition as a reachable state rather than an
// error. Asserting EmergencyOpen in the next snapshot is the sole
// cancellation mechanism and is honored on that very step.
func (c *Controller) Step(sig Signals) State {
	from := c.state
	to := c.next(sig)

	c.moved = to != from
	if c.moved {
		c.state = to
		typ, _ := EventForTransition(from, to)
		c.last = Event{Type: typ, From: from, To: to, Signals: sig}
		c.applyEffects(from, to)
	}
	return c.state
}

// next evaluates the transition table. Guards inside each state are
// checked in priority order; within PRECHARGING the order is
// abort-or-disconnect, then close-ready, then timeout, so ambiguous
// signals resolve toward opening rather than closing.
func (c *Controller) next(sig Signals) State {
	switch c.state {
	case StateIdle:
		if sig.ContactSense {
			return StateAligning
		}
		return StateIdle

	case StateAligning:
		if !sig.ContactSense {
			return StateIdle
		}
		return StateSenseMade

	case StateSenseMade:
		return StatePrecharging

	case StatePrecharging:
		if sig.EmergencyOpen || !sig.ContactSense {
			return StateOpening
		}
		if sig.Timer >= c.cfg.MinPrechargeS && sig.CapVoltage >= CloseFraction*c.cfg.BusVoltageV {
			return StateClosed
		}
		if sig.Timer > c.cfg.MaxPrechargeS {
			return StateFault
		}
		return StatePrecharging

	case StateClosed:
		if sig.EmergencyOpen || !sig.ContactSense {
			return StateOpening
		}
		return StateClosed

	case StateOpening:
		return StateIdle

	case StateFault:
		if !sig.ContactSense {
			return StateIdle
		}
		return StateFault
	}
	// Unreachable for a valid State; hold position rather than invent one.
	return c.state
}

func (c *Controller) applyEffects(from, to State) {
	switch {
	case from == StatePrecharging && to == StateClosed:
		c.counts.MainCloses++
		c.driver.CloseMain()
	case from == StateClosed && to == StateOpening:
		c.counts.MainOpens++
		c.driver.OpenMain()
	case from == StatePrecharging && to == StateFault:
		c.counts.Faults++
	case from == StatePrecharging && to == StateOpening:
		c.counts.Aborts++
	}
}

// State returns the current state without advancing it.
func (c *Controller) State() State {
	return c.state
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() precharge.Config {
	return c.cfg
}

// Counts returns the transition counters since construction.
func (c *Controller) Counts() Counts {
	return c.counts
}

// LastEvent returns the transition produced by the most recent Step.
// ok is false when that step was a no-op, or before the first
// transition.
func (c *Controller) LastEvent() (Event, bool) {
	return c.last, c.moved
}
