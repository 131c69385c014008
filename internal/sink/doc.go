// Package sink fans device state out to external systems.
//
// The MQTT publisher mirrors every device attribute onto retained state
// topics, listens for command topics to drive controllable attributes,
// and tracks external numeric inputs (feeding amount sliders). The
// InfluxDB recorder writes numeric attribute values as time-series
// points on every device update.
//
// Sinks attach to devices through registry hooks and device listeners,
// so they stay current without knowing anything about the polling loop.
package sink
