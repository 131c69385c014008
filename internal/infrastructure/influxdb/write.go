package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteAttribute records one numeric device attribute sample.
//
// This is the primary method for recording polled telemetry. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteAttribute("700001", "litter_box", "sand_percent", 64)
//	client.WriteAttribute("500123", "feeder", "feed_amount", 50)
func (c *Client) WriteAttribute(deviceID, deviceKind, attribute string, value float64) {
	c.WritePoint(
		"device_attributes",
		map[string]string{
			"device_id": deviceID,
			"kind":      deviceKind,
			"attribute": attribute,
		},
		map[string]interface{}{
			"value": value,
		},
	)
}

// WriteEvent records a device event such as a litter box cleanup cycle.
//
// The event name is stored as a field so high-cardinality event streams
// do not explode the tag index.
func (c *Client) WriteEvent(deviceID, deviceKind, event string) {
	c.WritePoint(
		"device_events",
		map[string]string{
			"device_id": deviceID,
			"kind":      deviceKind,
		},
		map[string]interface{}{
			"event": event,
		},
	)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g. replaying cloud records).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
