// Package report serializes sizing and precharge design results for
// display. Numeric fields only, one report per call.
package report

import (
	"encoding/json"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/sizing"
)

// SizingJSON is the top-level envelope for a contact-array sizing report.
type SizingJSON struct {
	Sizing SizingInner `json:"sizing"`
}

// SizingInner contains the sizing report fields.
type SizingInner struct {
	Contact                     string  `json:"contact"`
	TargetCurrentA              float64 `json:"target_current_a"`
	Utilization                 float64 `json:"utilization"`
	ContactsParallel            int     `json:"contacts_parallel"`
	EffectiveResistanceMilliohm float64 `json:"effective_resistance_milliohm"`
	VoltageDropV                float64 `json:"voltage_drop_v"`
	PowerW                      float64 `json:"power_w"`
	ThermalRiseC                float64 `json:"thermal_rise_c"`
}

// FormatSizing returns the JSON report for one sizing call.
func FormatSizing(contact sizing.ContactType, targetCurrent, utilization float64, rep sizing.Report) []byte {
	data, _ := json.MarshalIndent(SizingJSON{
		Sizing: SizingInner{
			Contact:                     contact.Name,
			TargetCurrentA:              targetCurrent,
			Utilization:                 utilization,
			ContactsParallel:            rep.ContactsParallel,
			EffectiveResistanceMilliohm: rep.EffectiveResistanceMilliohm,
			VoltageDropV:                rep.VoltageDropV,
			PowerW:                      rep.PowerW,
			ThermalRiseC:                rep.ThermalRiseC,
		},
	}, "", "  ")
	return data
}

// PrechargeJSON is the top-level envelope for a precharge design report.
type PrechargeJSON struct {
	Precharge PrechargeInner `json:"precharge"`
}

// PrechargeInner contains the precharge report fields.
type PrechargeInner struct {
	BusVoltageV  float64 `json:"bus_voltage_v"`
	CapacitanceF float64 `json:"capacitance_f"`
	InrushLimitA float64 `json:"inrush_limit_a"`
	ResistorOhm  float64 `json:"resistor_ohm"`
	TauS         float64 `json:"tau_s"`
	T90S         float64 `json:"t90_s"`
}

// FormatPrecharge returns the JSON report for one precharge design call.
func FormatPrecharge(rep precharge.Report) []byte {
	data, _ := json.MarshalIndent(PrechargeJSON{
		Precharge: PrechargeInner{
			BusVoltageV:  rep.BusVoltageV,
			CapacitanceF: rep.CapacitanceF,
			InrushLimitA: rep.InrushLimitA,
			ResistorOhm:  rep.ResistorOhm,
			TauS:         rep.TauS,
			T90S:         rep.T90S,
		},
	}, "", "  ")
	return data
}
