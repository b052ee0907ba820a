package precharge

import "fmt"

// DefaultMaxMargin scales the 99%-charge time into the fault ceiling
// when a profile does not set one explicitly.
const DefaultMaxMargin = 2.0

// Config binds one sequencer instance to its electrical environment.
// It is immutable once constructed; a bad Config is a configuration
// error rejected before any stepping begins, never a runtime fault.
type Config struct {
	ResistorOhm   float64 // precharge resistor value
	CapacitanceF  float64 // bus capacitance
	BusVoltageV   float64 // nominal bus voltage
	MinPrechargeS float64 // floor: closing the main before this is forbidden
	MaxPrechargeS float64 // ceiling: exceeding this faults the attempt
	InrushLimitA  float64 // used upstream to derive ResistorOhm
}

// Validate rejects configurations that cannot be sequenced safely.
// Nothing is clamped: the caller fixes the profile instead.
func (c Config) Validate() error {
	if c.ResistorOhm <= 0 {
		return fmt.Errorf("precharge config: resistor %g ohm must be positive", c.ResistorOhm)
	}
	if c.CapacitanceF <= 0 {
		return fmt.Errorf("precharge config: capacitance %g F must be positive", c.CapacitanceF)
	}
	if c.BusVoltageV <= 0 {
		return fmt.Errorf("precharge config: bus voltage %g V must be positive", c.BusVoltageV)
	}
	if c.MinPrechargeS < 0 {
		return fmt.Errorf("precharge config: minimum precharge %g s must not be negative", c.MinPrechargeS)
	}
	if c.MinPrechargeS > c.MaxPrechargeS {
		return fmt.Errorf("precharge config: minimum precharge %g s exceeds maximum %g s", c.MinPrechargeS, c.MaxPrechargeS)
	}
	return nil
}

// Derive builds a validated Config from electrical inputs. The resistor
// value comes from the inrush budget; when maxPrecharge is zero the
// fault ceiling is derived from the RC envelope (twice the 99%-charge
// time), which is the data flow the sizing tools feed the controller.
func Derive(busVoltageV, busCapacitanceF, inrushLimitA, minPrechargeS, maxPrechargeS float64) (Config, error) {
	r, _, _ := Resistor(busVoltageV, busCapacitanceF, inrushLimitA)
	if maxPrechargeS <= 0 {
		maxPrechargeS = DefaultMaxMargin * TimeToFraction(r, busCapacitanceF, 0.99)
	}
	cfg := Config{
		ResistorOhm:   r,
		CapacitanceF:  busCapacitanceF,
		BusVoltageV:   busVoltageV,
		MinPrechargeS: minPrechargeS,
		MaxPrechargeS: maxPrechargeS,
		InrushLimitA:  inrushLimitA,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
