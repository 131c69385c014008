// Package device models PetKit devices and derives typed attributes
// from the raw cloud payloads.
//
// A Device carries two payloads: data (the roster entry, refreshed every
// poll) and detail (the per-device detail fetch). Both are raw vendor
// maps; typed accessors read them tolerantly, because field types drift
// between firmware versions and product lines.
//
// Four kinds exist, keyed by the roster's type tag:
//
//	p3            → fitness tracker (read-only)
//	t3, t4        → litter box
//	w5            → water fountain
//	anything else → feeder (feeder, feedermini, d3, d4, d4s, ...)
//
// Each kind exposes its surface as a table of Attribute descriptors:
// value functions for sensors, and control callbacks for switches,
// buttons and selects. Sinks (MQTT, REST, InfluxDB) consume the tables
// instead of knowing per-kind field names.
//
// Devices are long-lived: the Registry hands out the same instance for
// a given ID across polls, so attribute listeners registered by sinks
// survive roster refreshes. Roster updates merge into the existing data
// map rather than replacing it, which keeps fields only present in
// earlier polls available.
package device
