// Package mqtt provides MQTT connectivity for the PetKit bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained state publishing with QoS guarantees
//   - Command and input subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// MQTT is the bridge's push surface: every polled device attribute is
// published retained under petkit/state/..., and inbound control is
// received on petkit/command/... topics. External numeric inputs (e.g.
// a feeding amount slider) arrive retained on petkit/input/....
//
//	PetKit cloud → bridge → MQTT broker → consumers (HA, Node-RED, ...)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceState("700001", "food_state")
//	client.PublishRetained(topic, []byte("false"))
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        // dispatch to the device layer
//	        return nil
//	    })
package mqtt
