package sink

import (
	"fmt"
	"sync"

	"github.com/nerrad567/petkit-bridge/internal/device"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
)

// recorderKey identifies the recorder's per-device listener.
const recorderKey = "influx-recorder"

// Writer is the time-series surface the recorder needs.
// *influxdb.Client satisfies it.
type Writer interface {
	WriteAttribute(deviceID, deviceKind, attribute string, value float64)
	WriteEvent(deviceID, deviceKind, event string)
}

// Recorder writes numeric device attributes to a time-series store on
// every device update, plus litter box event transitions.
type Recorder struct {
	writer   Writer
	registry *device.Registry
	logger   *logging.Logger

	mu         sync.Mutex
	lastEvents map[string]string
}

// NewRecorder creates a time-series recorder over a device registry.
func NewRecorder(writer Writer, registry *device.Registry, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		writer:     writer,
		registry:   registry,
		logger:     logger.With("component", "recorder"),
		lastEvents: make(map[string]string),
	}
}

// Start attaches the recorder to the registry.
func (r *Recorder) Start() {
	r.registry.OnDeviceAdded(r.attach)
	for _, d := range r.registry.Snapshot() {
		r.attach(d)
	}
}

func (r *Recorder) attach(d *device.Device) {
	d.Subscribe(recorderKey, func() { r.record(d) })
}

func (r *Recorder) record(d *device.Device) {
	kind := string(d.Kind())
	for _, attr := range d.Attributes() {
		if attr.Value == nil {
			continue
		}
		value, ok := numericValue(attr.Value())
		if !ok {
			continue
		}
		r.writer.WriteAttribute(d.ID(), kind, attr.Key, value)
	}

	if d.Kind() == device.KindLitterBox {
		r.recordEvent(d, kind)
	}
}

// recordEvent writes a litter box's latest event once per transition,
// so a record that sits in the day's log for hours yields one point.
func (r *Recorder) recordEvent(d *device.Device, kind string) {
	raw := d.LastRecord()
	if raw == nil || raw == 0 {
		return
	}
	event := fmt.Sprintf("%v", raw)

	r.mu.Lock()
	last, seen := r.lastEvents[d.ID()]
	r.lastEvents[d.ID()] = event
	r.mu.Unlock()

	if seen && last == event {
		return
	}
	r.writer.WriteEvent(d.ID(), kind, event)
}

// numericValue extracts a float from the value types attribute
// callbacks return. Booleans record as 0/1 so binary sensors graph.
func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
