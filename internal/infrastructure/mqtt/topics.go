package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the base for all bridge topics.
// Scheme: vents/{device_id}/{register} with an optional /set suffix
// for commands.
const TopicPrefix = "vents"

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{DeviceID: "0020003935325105"}
//	stateTopic := topics.State("target_temp")
//	// Returns: "vents/0020003935325105/target_temp"
type Topics struct {
	// DeviceID is the controller serial used as the topic node.
	DeviceID string
}

// State returns the topic for a register's published value.
//
// Example: vents/0020003935325105/target_temp
func (t Topics) State(register string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, t.DeviceID, register)
}

// Command returns the topic on which writes to a register are accepted.
//
// Example: vents/0020003935325105/target_temp/set
func (t Topics) Command(register string) string {
	return fmt.Sprintf("%s/%s/%s/set", TopicPrefix, t.DeviceID, register)
}

// CommandWildcard returns a pattern matching all command topics for
// this device.
//
// Pattern: vents/0020003935325105/+/set
func (t Topics) CommandWildcard() string {
	return fmt.Sprintf("%s/%s/+/set", TopicPrefix, t.DeviceID)
}

// BridgeStatus returns the bridge availability topic used for the
// online/offline payloads and the broker's Last Will.
//
// Example: vents/0020003935325105/bridge/status
func (t Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/%s/bridge/status", TopicPrefix, t.DeviceID)
}

// Health returns the topic for the bridge's periodic health reports.
//
// Example: vents/0020003935325105/bridge/health
func (t Topics) Health() string {
	return fmt.Sprintf("%s/%s/bridge/health", TopicPrefix, t.DeviceID)
}

// RegisterFromCommand extracts the register name from a command topic.
// Returns false if the topic does not match this device's command scheme.
func (t Topics) RegisterFromCommand(topic string) (string, bool) {
	prefix := fmt.Sprintf("%s/%s/", TopicPrefix, t.DeviceID)
	rest, ok := strings.CutPrefix(topic, prefix)
	if !ok {
		return "", false
	}
	register, ok := strings.CutSuffix(rest, "/set")
	if !ok || register == "" || strings.Contains(register, "/") {
		return "", false
	}
	return register, true
}

// DiscoveryTopic returns a Home Assistant MQTT discovery config topic.
//
// Example: homeassistant/number/0020003935325105/target_temp/config
func DiscoveryTopic(prefix, component, nodeID, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, component, nodeID, objectID)
}
