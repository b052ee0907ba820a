package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	State         string     `json:"state"`
	CapVoltageV   float64    `json:"cap_voltage_v"`
	AttemptTimerS float64    `json:"attempt_timer_s"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"transition_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	MainCloses int `json:"main_closes"`
	MainOpens  int `json:"main_opens"`
	Faults     int `json:"faults"`
	Aborts     int `json:"aborts"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs        int64   `json:"poll_ms"`
	Broker        string  `json:"broker"`
	HTTPAddr      string  `json:"http_addr"`
	MetricsAddr   string  `json:"metrics_addr,omitempty"`
	Source        string  `json:"source"`
	BusVoltageV   float64 `json:"bus_voltage_v"`
	CapacitanceF  float64 `json:"capacitance_f"`
	ResistorOhm   float64 `json:"resistor_ohm"`
	MinPrechargeS float64 `json:"min_precharge_s"`
	MaxPrechargeS float64 `json:"max_precharge_s"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		State:         snap.State.String(),
		CapVoltageV:   snap.CapVoltage,
		AttemptTimerS: snap.AttemptTimer,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			MainCloses: snap.Counts.MainCloses,
			MainOpens:  snap.Counts.MainOpens,
			Faults:     snap.Counts.Faults,
			Aborts:     snap.Counts.Aborts,
		},
		Config: ConfigJSON{
			PollMs:        snap.Config.PollMs,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
			MetricsAddr:   snap.Config.MetricsAddr,
			Source:        snap.Config.Source,
			BusVoltageV:   snap.Config.BusVoltageV,
			CapacitanceF:  snap.Config.CapacitanceF,
			ResistorOhm:   snap.Config.ResistorOhm,
			MinPrechargeS: snap.Config.MinPrechargeS,
			MaxPrechargeS: snap.Config.MaxPrechargeS,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
