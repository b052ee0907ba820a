// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/precharge-sequencer/internal/sequencer"
)

// Topic is the MQTT topic for sequencer transition events.
const Topic = "power/precharge/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "power/precharge/system"

// Transition pairs a sequencer event with the wall-clock time the
// daemon observed it. The sequencer itself is clock-free, so the
// timestamp is attached here at the publishing edge.
type Transition struct {
	Timestamp time.Time
	Event     sequencer.Event
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a sequencer transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(t Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Precharge PrechargePayload `json:"precharge"`
}

// PrechargePayload contains the transition details.
type PrechargePayload struct {
	Timestamp     string  `json:"timestamp"`
	Event         string  `json:"event"`
	State         string  `json:"state"`
	TimerS        float64 `json:"timer_s"`
	CapVoltageV   float64 `json:"cap_voltage_v"`
	ContactSense  bool    `json:"contact_sense"`
	EmergencyOpen bool    `json:"emergency_open"`
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(t Transition) ([]byte, error) {
	payload := Payload{
		Precharge: PrechargePayload{
			Timestamp:     t.Timestamp.UTC().Format(time.RFC3339),
			Event:         string(t.Event.Type),
			State:         t.Event.To.String(),
			TimerS:        t.Event.Signals.Timer,
			CapVoltageV:   t.Event.Signals.CapVoltage,
			ContactSense:  t.Event.Signals.ContactSense,
			EmergencyOpen: t.Event.Signals.EmergencyOpen,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
