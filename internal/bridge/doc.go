// Package bridge connects a ventilation unit's register protocol to
// MQTT, exposing the unit to Home Assistant and other MQTT consumers.
//
// The bridge polls the unit's register catalog on a fixed interval and
// publishes each value retained to a per-register state topic. Writes
// arrive on matching command topics, are validated and applied over the
// register protocol, and the confirmed value is published back
// immediately.
//
// Topic scheme (see the infrastructure/mqtt package):
//
//	vents/{device_id}/{register}          state (retained)
//	vents/{device_id}/{register}/set      commands
//	vents/{device_id}/bridge/status       availability (LWT)
//	vents/{device_id}/bridge/health       periodic health JSON
//
// On startup the bridge can publish Home Assistant MQTT discovery
// configs so every register appears as an entity without manual YAML:
// read-only registers as sensors, writable booleans as switches, and
// writable numerics as numbers bounded by the register's limits.
//
// A HealthReporter publishes periodic status messages folding in poll
// statistics and broker connectivity, so a dashboard can tell a healthy
// bridge from one whose unit has gone quiet.
//
// Example usage:
//
//	b, err := bridge.New(bridge.Options{
//		DeviceID:   cfg.Device.ID,
//		Client:     session,
//		MQTTClient: mqttClient,
//		Discovery:  true,
//	})
//	if err != nil {
//		return err
//	}
//	if err := b.Start(ctx); err != nil {
//		return err
//	}
//	defer b.Stop()
package bridge
