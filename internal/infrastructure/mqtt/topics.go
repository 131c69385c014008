package mqtt

import "fmt"

// Topic prefixes for the bridge's MQTT surface.
//
// All device topics use the flat scheme: petkit/{category}/{device_id}/{attribute}
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "petkit"

	// TopicPrefixSystem is the base for bridge lifecycle topics.
	TopicPrefixSystem = "petkit/system"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("700001", "sand_percent")
//	// Returns: "petkit/state/700001/sand_percent"
type Topics struct{}

// DeviceState returns the retained state topic for one device attribute.
//
// Example: petkit/state/700001/sand_percent
func (Topics) DeviceState(deviceID, attribute string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, deviceID, attribute)
}

// DeviceAttrs returns the retained topic for an attribute's JSON metadata
// (extra key/value pairs alongside the primary state value).
//
// Example: petkit/state/700001/sand_percent/attrs
func (Topics) DeviceAttrs(deviceID, attribute string) string {
	return fmt.Sprintf("%s/state/%s/%s/attrs", TopicPrefix, deviceID, attribute)
}

// DeviceAvailability returns the retained topic for a device's reachability.
//
// Example: petkit/availability/700001
func (Topics) DeviceAvailability(deviceID string) string {
	return fmt.Sprintf("%s/availability/%s", TopicPrefix, deviceID)
}

// DeviceCommand returns the topic consumers publish to in order to drive
// a controllable attribute.
//
// Example: petkit/command/700001/power
func (Topics) DeviceCommand(deviceID, attribute string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, deviceID, attribute)
}

// AllCommands returns the wildcard pattern covering every device command.
//
// Example: petkit/command/+/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

// Input returns the retained topic for an external numeric input.
//
// Example: petkit/input/feeding_amount
func (Topics) Input(name string) string {
	return fmt.Sprintf("%s/input/%s", TopicPrefix, name)
}

// AllInputs returns the wildcard pattern covering every external input.
//
// Example: petkit/input/+
func (Topics) AllInputs() string {
	return fmt.Sprintf("%s/input/+", TopicPrefix)
}

// SystemStatus returns the bridge lifecycle topic (online/offline/LWT).
//
// Example: petkit/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
