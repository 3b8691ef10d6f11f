// Package mqtt provides MQTT client connectivity for Vents Bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for availability tracking
//   - Connection health monitoring
//
// # Architecture
//
// The bridge uses MQTT to expose the ventilation unit's registers to
// Home Assistant and any other subscriber. Register values are published
// retained so new subscribers immediately see the current state, and
// writes arrive on per-register command topics.
//
//	Ventilation Unit ↔ Vents Bridge ↔ MQTT Broker ↔ Home Assistant
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	topics := mqtt.Topics{DeviceID: cfg.Device.ID}
//	client, err := mqtt.Connect(cfg.MQTT, topics.BridgeStatus())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to register commands
//	err = client.Subscribe(topics.CommandWildcard(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish register state
//	client.Publish(topics.State("speed"), []byte("2"), 1, true)
package mqtt
