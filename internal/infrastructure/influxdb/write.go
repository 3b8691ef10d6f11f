package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRegisterMetric writes a single register reading to InfluxDB.
//
// This is the primary method for recording poll results. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: The controller serial (e.g., "0020003935325105")
//   - register: The register name (e.g., "supply_in_temperature")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteRegisterMetric("0020003935325105", "supply_in_temperature", 21.5)
//	client.WriteRegisterMetric("0020003935325105", "fan1_speed", 1340)
func (c *Client) WriteRegisterMetric(deviceID string, register string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"ahu_registers",
		map[string]string{
			"device_id": deviceID,
			"register":  register,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("bridge_stats",
//	    map[string]string{"device_id": id},
//	    map[string]interface{}{"poll_failures": 3, "poll_duration_ms": 120})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePollStats records the outcome of one poll cycle: how many
// registers answered and how long the exchange took.
//
// Parameters:
//   - deviceID: The controller serial
//   - registersRead: Number of registers read this cycle
//   - duration: Wall time of the poll exchange
func (c *Client) WritePollStats(deviceID string, registersRead int, duration time.Duration) {
	c.WritePoint("bridge_polls",
		map[string]string{"device_id": deviceID},
		map[string]interface{}{
			"registers_read":   registersRead,
			"poll_duration_ms": duration.Milliseconds(),
		})
}
