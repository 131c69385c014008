package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/device"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/mqtt"
)

// commandTimeout bounds one cloud control round-trip triggered by an
// MQTT command.
const commandTimeout = 45 * time.Second

// listenerKey identifies the publisher's per-device listener.
const listenerKey = "mqtt-publisher"

// Broker is the MQTT surface the publisher needs. *mqtt.Client
// satisfies it.
type Broker interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Publisher mirrors device state onto retained MQTT topics and drives
// controls from command topics.
type Publisher struct {
	broker   Broker
	registry *device.Registry
	topics   mqtt.Topics
	logger   *logging.Logger
}

// NewPublisher creates an MQTT publisher over a device registry.
func NewPublisher(broker Broker, registry *device.Registry, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		broker:   broker,
		registry: registry,
		logger:   logger.With("component", "mqtt_publisher"),
	}
}

// Start attaches the publisher to the registry and subscribes to the
// command wildcard. Devices already in the registry are published
// immediately; future ones attach through the registry hook.
func (p *Publisher) Start() error {
	if err := p.broker.Subscribe(p.topics.AllCommands(), 1, p.handleCommand); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}

	p.registry.OnDeviceAdded(p.attach)
	for _, d := range p.registry.Snapshot() {
		p.attach(d)
	}
	return nil
}

func (p *Publisher) attach(d *device.Device) {
	d.Subscribe(listenerKey, func() { p.publishDevice(d) })
	p.publishDevice(d)
}

func (p *Publisher) publishDevice(d *device.Device) {
	availability := "online"
	if state, ok := d.State().(string); ok && state == "offline" {
		availability = "offline"
	}
	p.publish(p.topics.DeviceAvailability(d.ID()), []byte(availability))

	for _, attr := range d.Attributes() {
		if attr.Value == nil {
			continue
		}
		p.publish(p.topics.DeviceState(d.ID(), attr.Key), encodeValue(attr.Value()))

		if attr.Attrs == nil {
			continue
		}
		meta := attr.Attrs()
		if len(meta) == 0 {
			continue
		}
		payload, err := json.Marshal(meta)
		if err != nil {
			p.logger.Warn("encoding attribute metadata", "device", d.ID(), "attribute", attr.Key, "error", err)
			continue
		}
		p.publish(p.topics.DeviceAttrs(d.ID(), attr.Key), payload)
	}
}

func (p *Publisher) publish(topic string, payload []byte) {
	if err := p.broker.PublishRetained(topic, payload); err != nil {
		p.logger.Warn("publish failed", "topic", topic, "error", err)
	}
}

// handleCommand routes petkit/command/<id>/<attribute> messages to the
// matching attribute callback. Switch payloads are on/off (or
// true/false, 1/0), buttons take "press", selects take the option name.
func (p *Publisher) handleCommand(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 {
		return fmt.Errorf("malformed command topic %q", topic)
	}
	deviceID, key := parts[2], parts[3]

	d, ok := p.registry.Get(deviceID)
	if !ok {
		return fmt.Errorf("command for unknown device %q", deviceID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	value := strings.TrimSpace(string(payload))
	for _, attr := range d.Attributes() {
		if attr.Key != key {
			continue
		}
		if handled, err := dispatchCommand(ctx, attr, value); handled {
			if err != nil {
				return fmt.Errorf("command %s/%s: %w", deviceID, key, err)
			}
			p.logger.Info("command executed", "device", deviceID, "attribute", key, "payload", value)
			return nil
		}
	}
	return fmt.Errorf("no control %q on device %q accepts payload %q", key, deviceID, value)
}

// dispatchCommand maps a command payload onto one attribute's
// callbacks. handled is false when the attribute has no callback for
// this payload, letting the caller try a same-key attribute in another
// group.
func dispatchCommand(ctx context.Context, attr device.Attribute, payload string) (handled bool, err error) {
	switch strings.ToLower(payload) {
	case "press":
		if attr.Press != nil {
			return true, attr.Press(ctx)
		}
	case "on", "true", "1":
		if attr.TurnOn != nil {
			return true, attr.TurnOn(ctx)
		}
	case "off", "false", "0":
		if attr.TurnOff != nil {
			return true, attr.TurnOff(ctx)
		}
	default:
		if attr.Select != nil {
			return true, attr.Select(ctx, payload)
		}
	}
	return false, nil
}

// encodeValue renders an attribute value for its state topic. Strings
// pass through raw; everything else is JSON so booleans and numbers
// stay machine-readable.
func encodeValue(v any) []byte {
	switch val := v.(type) {
	case nil:
		return []byte("unknown")
	case string:
		return []byte(val)
	case bool:
		return []byte(strconv.FormatBool(val))
	case float64:
		return []byte(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return []byte(strconv.Itoa(val))
	default:
		payload, err := json.Marshal(val)
		if err != nil {
			return []byte("unknown")
		}
		return payload
	}
}
