// Package influxdb provides time-series storage for polled device attributes.
//
// It wraps the official influxdb-client-go v2 library with the bridge's
// patterns for connection management, metric writing, and health checks.
//
// # Purpose
//
// Every numeric attribute the coordinator derives from a poll (sand
// percentage, food level, daily feed totals, activity counters) can be
// recorded here for history and dashboards. The recorder is optional:
// when disabled in config the bridge runs MQTT-only.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteAttribute("700001", "litter_box", "sand_percent", 64)
//
// # Thread Safety
//
// All methods are safe for concurrent use. The underlying write API uses
// non-blocking batched writes; batch errors surface via SetOnError.
package influxdb
