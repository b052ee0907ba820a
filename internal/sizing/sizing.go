// Package sizing computes parallel contact-array parameters for a target
// continuous current: contact count, effective resistance, voltage drop,
// dissipated power, and thermal rise.
//
// Everything here is a pure design-time calculation with no state and no
// dependencies. Sizing runs offline when a connector is being specified,
// never in the control path.
package sizing

import (
	"math"
	"sort"
)

// DefaultUtilization is the fraction of rated current an individual
// contact may be driven to, leaving thermal margin. Passing a
// non-positive utilization to any function selects this value.
const DefaultUtilization = 0.7

// DefaultThermalRiseCPerW applies to custom contact types constructed
// without a measured thermal coefficient.
const DefaultThermalRiseCPerW = 10.0

// ContactType describes one physical contact variant. Values are
// constructed once and read-only thereafter.
type ContactType struct {
	Name                 string
	MaxContinuousCurrent float64 // A, continuous rating per contact
	ResistanceMilliohm   float64 // mΩ, per contact
	ThermalRiseCPerW     float64 // °C per watt dissipated
}

// presets is the canonical contact table. Lookups return copies, so
// callers cannot mutate the shared entries; custom variants are built
// as plain ContactType values instead.
var presets = map[string]ContactType{
	"pogo":     {Name: "pogo", MaxContinuousCurrent: 7.5, ResistanceMilliohm: 20.0, ThermalRiseCPerW: 18.0},
	"multilam": {Name: "multilam", MaxContinuousCurrent: 60.0, ResistanceMilliohm: 0.4, ThermalRiseCPerW: 6.0},
	"sb120":    {Name: "sb120", MaxContinuousCurrent: 120.0, ResistanceMilliohm: 0.25, ThermalRiseCPerW: 5.0},
}

// Preset returns the named canonical contact type.
func Preset(name string) (ContactType, bool) {
	ct, ok := presets[name]
	return ct, ok
}

// PresetNames returns the canonical contact names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ContactsNeeded returns the smallest n >= 1 such that n contacts at the
// given utilization carry totalCurrent. Rounds up; never returns 0, even
// for zero or negative current.
func ContactsNeeded(totalCurrent float64, contact ContactType, utilization float64) int {
	if utilization <= 0 {
		utilization = DefaultUtilization
	}
	per := contact.MaxContinuousCurrent * utilization
	if per <= 0 {
		return 1
	}
	n := int(math.Ceil(totalCurrent / per))
	if n < 1 {
		return 1
	}
	return n
}

// ArrayResistanceMilliohm returns the effective resistance of n
// identical contacts in parallel.
func ArrayResistanceMilliohm(contact ContactType, n int) float64 {
	if n < 1 {
		n = 1
	}
	return contact.ResistanceMilliohm / float64(n)
}

// VoltageDrop returns the drop in volts across rMilliohm at totalCurrent.
func VoltageDrop(totalCurrent, rMilliohm float64) float64 {
	return totalCurrent * (rMilliohm / 1000.0)
}

// PowerDissipation returns the I²R loss in watts for rMilliohm at
// totalCurrent.
func PowerDissipation(totalCurrent, rMilliohm float64) float64 {
	return totalCurrent * totalCurrent * (rMilliohm / 1000.0)
}

// ThermalRiseC returns the steady-state temperature rise for the given
// dissipated power using the contact's linear thermal coefficient.
func ThermalRiseC(powerW float64, contact ContactType) float64 {
	return powerW * contact.ThermalRiseCPerW
}

// Report is the result of one sizing request. It is derived, never
// stored: compute it fresh whenever inputs change.
type Report struct {
	ContactsParallel            int
	EffectiveResistanceMilliohm float64
	VoltageDropV                float64
	PowerW                      float64
	ThermalRiseC                float64
}

// SizeContactArray composes the sizing chain into one report.
func SizeContactArray(totalCurrent float64, contact ContactType, utilization float64) Report {
	n := ContactsNeeded(totalCurrent, contact, utilization)
	r := ArrayResistanceMilliohm(contact, n)
	p := PowerDissipation(totalCurrent, r)
	return Report{
		ContactsParallel:            n,
		EffectiveResistanceMilliohm: r,
		VoltageDropV:                VoltageDrop(totalCurrent, r),
		PowerW:                      p,
		ThermalRiseC:                ThermalRiseC(p, contact),
	}
}
