package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ventsbridge/core/internal/bgcp"
	"github.com/ventsbridge/core/internal/infrastructure/mqtt"
)

// discoveryDevice is the shared device block linking all entities to
// one Home Assistant device entry.
type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// discoveryConfig is a Home Assistant MQTT discovery payload. One
// struct covers sensor, switch and number entities; unused fields are
// omitted from the JSON.
type discoveryConfig struct {
	Name                string          `json:"name"`
	UniqueID            string          `json:"unique_id"`
	StateTopic          string          `json:"state_topic"`
	CommandTopic        string          `json:"command_topic,omitempty"`
	AvailabilityTopic   string          `json:"availability_topic"`
	PayloadAvailable    string          `json:"payload_available"`
	PayloadNotAvailable string          `json:"payload_not_available"`
	PayloadOn           string          `json:"payload_on,omitempty"`
	PayloadOff          string          `json:"payload_off,omitempty"`
	StateOn             string          `json:"state_on,omitempty"`
	StateOff            string          `json:"state_off,omitempty"`
	Min                 *float64        `json:"min,omitempty"`
	Max                 *float64        `json:"max,omitempty"`
	Step                float64         `json:"step,omitempty"`
	UnitOfMeasurement   string          `json:"unit_of_measurement,omitempty"`
	DeviceClass         string          `json:"device_class,omitempty"`
	StateClass          string          `json:"state_class,omitempty"`
	Device              discoveryDevice `json:"device"`
}

// PublishDiscovery publishes a retained Home Assistant discovery config
// for every register the bridge exposes:
//   - read-only registers become sensors
//   - writable booleans become switches
//   - writable numerics become numbers with the register's bounds
//
// Home Assistant picks these up automatically when discovery is enabled
// on the broker it is connected to.
func (b *Bridge) PublishDiscovery() error {
	for _, reg := range b.registers {
		component := discoveryComponent(reg)
		cfg := b.buildDiscoveryConfig(reg, component)

		payload, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal discovery config for %s: %w", reg.ResultKey(), err)
		}

		topic := mqtt.DiscoveryTopic(b.discoveryPrefix, component, b.deviceID, reg.ResultKey())
		if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
			return fmt.Errorf("publish discovery config for %s: %w", reg.ResultKey(), err)
		}
	}

	b.logInfo("published discovery configs",
		"prefix", b.discoveryPrefix,
		"entities", len(b.registers))

	return nil
}

// discoveryComponent selects the Home Assistant component for a register.
func discoveryComponent(reg bgcp.Register) string {
	if reg.ReadOnly {
		return "sensor"
	}
	if reg.Format == bgcp.FormatBoolean {
		return "switch"
	}
	return "number"
}

// buildDiscoveryConfig builds the discovery payload for one register.
func (b *Bridge) buildDiscoveryConfig(reg bgcp.Register, component string) discoveryConfig {
	name := reg.ResultKey()

	cfg := discoveryConfig{
		Name:                friendlyName(name),
		UniqueID:            fmt.Sprintf("%s_%s", b.deviceID, name),
		StateTopic:          b.topics.State(name),
		AvailabilityTopic:   b.topics.BridgeStatus(),
		PayloadAvailable:    "online",
		PayloadNotAvailable: "offline",
		Device: discoveryDevice{
			Identifiers:  []string{b.deviceID},
			Name:         fmt.Sprintf("Ventilation Unit %s", b.deviceID),
			Manufacturer: "Blauberg",
			Model:        "Air Handling Unit",
		},
	}

	switch component {
	case "switch":
		cfg.CommandTopic = b.topics.Command(name)
		cfg.PayloadOn = "1"
		cfg.PayloadOff = "0"
		cfg.StateOn = "1"
		cfg.StateOff = "0"

	case "number":
		cfg.CommandTopic = b.topics.Command(name)
		cfg.Min = reg.Min
		cfg.Max = reg.Max
		if reg.Scale != 0 {
			cfg.Step = reg.Scale
		} else {
			cfg.Step = 1
		}

	case "sensor":
		cfg.UnitOfMeasurement, cfg.DeviceClass = sensorClass(name)
		if cfg.UnitOfMeasurement != "" {
			cfg.StateClass = "measurement"
		}
	}

	return cfg
}

// sensorClass maps a register name to a Home Assistant unit and device
// class, where one applies.
func sensorClass(name string) (unit, deviceClass string) {
	switch {
	case strings.HasSuffix(name, "_temperature"):
		return "°C", "temperature"
	case name == "current_humidity":
		return "%", "humidity"
	case strings.HasPrefix(name, "fan") && strings.HasSuffix(name, "_speed"):
		return "rpm", ""
	default:
		return "", ""
	}
}

// friendlyName converts a register name to a display name:
// "supply_in_temperature" becomes "Supply In Temperature".
func friendlyName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
