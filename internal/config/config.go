// Package config loads and validates precharge-sequencer profiles from
// YAML. A profile carries the electrical design inputs (contact type,
// bus parameters, timing envelope) plus the daemon's host-side settings
// (signal source, broker, HTTP and metrics addresses). Validation is
// fail-fast: a bad profile is rejected at load, never clamped.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/signal"
	"github.com/sweeney/precharge-sequencer/internal/sizing"
)

// Source kinds a profile may select.
const (
	SourceSim    = "sim"
	SourceReplay = "replay"
	SourceSerial = "serial"
	SourceGPIO   = "gpio"
)

// ContactSpec names a preset or describes a custom contact inline.
// When Preset is set the other fields are ignored.
type ContactSpec struct {
	Preset               string  `yaml:"preset"`
	Name                 string  `yaml:"name"`
	MaxContinuousCurrent float64 `yaml:"max_continuous_current_a"`
	ResistanceMilliohm   float64 `yaml:"resistance_milliohm"`
	ThermalRiseCPerW     float64 `yaml:"thermal_rise_c_per_w"`
}

// BusSpec describes the bus the sequencer protects.
type BusSpec struct {
	VoltageV     float64 `yaml:"voltage_v"`
	CapacitanceF float64 `yaml:"capacitance_f"`
	InrushLimitA float64 `yaml:"inrush_limit_a"`
}

// TimingSpec bounds the precharge attempt. A zero MaxPrechargeS derives
// the fault ceiling from the RC envelope.
type TimingSpec struct {
	MinPrechargeS float64 `yaml:"min_precharge_s"`
	MaxPrechargeS float64 `yaml:"max_precharge_s"`
}

// SourceSpec selects and configures the signal source.
type SourceSpec struct {
	Kind       string  `yaml:"kind"`
	SerialPort string  `yaml:"serial_port"`
	BaudRate   int     `yaml:"baud_rate"`
	TraceFile  string  `yaml:"trace_file"`
	SensePin   int     `yaml:"sense_pin"`
	EstopPin   int     `yaml:"estop_pin"`
	ADCPath    string  `yaml:"adc_path"`
	ADCScale   float64 `yaml:"adc_scale"`
}

// Profile is one complete sequencer configuration.
type Profile struct {
	Contact        ContactSpec `yaml:"contact"`
	TargetCurrentA float64     `yaml:"target_current_a"`
	Utilization    float64     `yaml:"utilization"`
	Bus            BusSpec     `yaml:"bus"`
	Timing         TimingSpec  `yaml:"timing"`
	Source         SourceSpec  `yaml:"source"`
	MainPin        int         `yaml:"main_pin"`
	Broker         string      `yaml:"broker"`
	HTTPAddr       string      `yaml:"http_addr"`
	MetricsAddr    string      `yaml:"metrics_addr"`
	PollMs         int64       `yaml:"poll_ms"`
}

// Default returns the profile used when a field or file is absent: a
// 48 V / 10 mF bus on multilam contacts with a simulated source.
func Default() Profile {
	return Profile{
		Contact:        ContactSpec{Preset: "multilam"},
		TargetCurrentA: 60.0,
		Utilization:    sizing.DefaultUtilization,
		Bus:            BusSpec{VoltageV: 48.0, CapacitanceF: 0.01, InrushLimitA: 3.0},
		Timing:         TimingSpec{MinPrechargeS: 0.05},
		Source: SourceSpec{
			Kind:     SourceSim,
			BaudRate: signal.DefaultBaudRate,
			SensePin: signal.DefaultSensePin,
			EstopPin: signal.DefaultEstopPin,
			ADCScale: 1.0,
		},
		MainPin:     21,
		Broker:      "tcp://127.0.0.1:1883",
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		PollMs:      100,
	}
}

// Load reads a profile file over the defaults and validates it. An
// empty path returns the validated defaults.
func Load(path string) (Profile, error) {
	p := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Profile{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Profile{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate rejects profiles that cannot configure a sequencer. The
// precharge side is validated by building the derived config.
func (p Profile) Validate() error {
	if _, err := p.ContactType(); err != nil {
		return err
	}
	if p.TargetCurrentA < 0 {
		return fmt.Errorf("config: target current %g A must not be negative", p.TargetCurrentA)
	}
	if p.Utilization <= 0 || p.Utilization > 1 {
		return fmt.Errorf("config: utilization %g must be in (0, 1]", p.Utilization)
	}
	if _, err := p.PrechargeConfig(); err != nil {
		return err
	}

	switch p.Source.Kind {
	case SourceSim, SourceGPIO:
	case SourceReplay:
		if p.Source.TraceFile == "" {
			return fmt.Errorf("config: replay source needs a trace_file")
		}
	case SourceSerial:
		if p.Source.SerialPort == "" {
			return fmt.Errorf("config: serial source needs a serial_port")
		}
	default:
		return fmt.Errorf("config: unknown source kind %q", p.Source.Kind)
	}

	if p.PollMs <= 0 {
		return fmt.Errorf("config: poll interval %d ms must be positive", p.PollMs)
	}
	return nil
}

// ContactType resolves the contact spec against the preset table or
// builds the inline custom type.
func (p Profile) ContactType() (sizing.ContactType, error) {
	if p.Contact.Preset != "" {
		ct, ok := sizing.Preset(p.Contact.Preset)
		if !ok {
			return sizing.ContactType{}, fmt.Errorf("config: unknown contact preset %q (have %v)", p.Contact.Preset, sizing.PresetNames())
		}
		return ct, nil
	}

	if p.Contact.Name == "" {
		return sizing.ContactType{}, fmt.Errorf("config: contact needs a preset or an inline name")
	}
	if p.Contact.MaxContinuousCurrent <= 0 {
		return sizing.ContactType{}, fmt.Errorf("config: contact %q rating %g A must be positive", p.Contact.Name, p.Contact.MaxContinuousCurrent)
	}
	if p.Contact.ResistanceMilliohm <= 0 {
		return sizing.ContactType{}, fmt.Errorf("config: contact %q resistance %g mΩ must be positive", p.Contact.Name, p.Contact.ResistanceMilliohm)
	}

	rise := p.Contact.ThermalRiseCPerW
	if rise == 0 {
		rise = sizing.DefaultThermalRiseCPerW
	}
	return sizing.ContactType{
		Name:                 p.Contact.Name,
		MaxContinuousCurrent: p.Contact.MaxContinuousCurrent,
		ResistanceMilliohm:   p.Contact.ResistanceMilliohm,
		ThermalRiseCPerW:     rise,
	}, nil
}

// PrechargeConfig derives the validated sequencer configuration from
// the bus and timing sections.
func (p Profile) PrechargeConfig() (precharge.Config, error) {
	return precharge.Derive(p.Bus.VoltageV, p.Bus.CapacitanceF, p.Bus.InrushLimitA,
		p.Timing.MinPrechargeS, p.Timing.MaxPrechargeS)
}
