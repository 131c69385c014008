package device

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/petkit-bridge/internal/petkit"
)

// Kind classifies a device by product family.
type Kind string

// Device kinds.
const (
	KindFeeder         Kind = "feeder"
	KindLitterBox      Kind = "litter_box"
	KindFitnessTracker Kind = "fitness_tracker"
	KindWaterFountain  Kind = "water_fountain"
)

// KindOf maps a roster type tag to a device kind. Unrecognised tags are
// feeders, matching the vendor's long tail of feeder models.
func KindOf(typeTag string) Kind {
	switch strings.ToLower(typeTag) {
	case "p3":
		return KindFitnessTracker
	case "t3", "t4":
		return KindLitterBox
	case "w5":
		return KindWaterFountain
	default:
		return KindFeeder
	}
}

// dayFormat is the vendor's date parameter layout (YYYYMMDD).
const dayFormat = "20060102"

// stateNames maps the roster state code to a readable state.
// Codes outside the table pass through untouched.
var stateNames = map[int]string{
	1: "online",
	2: "offline",
	3: "feeding",
	4: "ota",
	5: "error",
	6: "battery_mode",
}

// Device is one PetKit device tracked across polls.
//
// Two locks guard it: opMu serialises cloud operations (control requests
// and detail refreshes never interleave for one device), while dataMu
// guards the payload maps and listener table. Listeners are notified
// outside dataMu so they can read derived values without deadlocking.
type Device struct {
	kind    Kind
	id      string
	typeTag string

	account *petkit.Account
	logger  *logging.Logger

	opMu sync.Mutex

	dataMu   sync.RWMutex
	data     map[string]any
	detail   map[string]any
	lastSeen time.Time

	listenerKeys []string
	listeners    map[string]func()
}

// New creates a device from a roster data payload. The payload must
// carry an id; the type tag should already be folded in by the caller.
func New(data map[string]any, account *petkit.Account, logger *logging.Logger) (*Device, error) {
	id := asString(data["id"])
	if id == "" {
		return nil, ErrMissingID
	}
	if logger == nil {
		logger = logging.Default()
	}

	typeTag := strings.ToLower(asString(data["type"]))
	d := &Device{
		kind:      KindOf(typeTag),
		id:        id,
		typeTag:   typeTag,
		account:   account,
		logger:    logger.With("device", id, "kind", string(KindOf(typeTag))),
		data:      copyMap(data),
		detail:    map[string]any{},
		lastSeen:  time.Now(),
		listeners: make(map[string]func()),
	}
	return d, nil
}

// ID returns the canonical device identifier.
func (d *Device) ID() string { return d.id }

// Kind returns the device's product family.
func (d *Device) Kind() Kind { return d.kind }

// TypeTag returns the raw lowercased roster type (e.g. "d4s", "t4").
func (d *Device) TypeTag() string { return d.typeTag }

// Account returns the account this device belongs to.
func (d *Device) Account() *petkit.Account { return d.account }

// Name returns the user-assigned device name.
func (d *Device) Name() string {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return asString(d.data["name"])
}

// LastSeen returns when the device last appeared in a roster.
func (d *Device) LastSeen() time.Time {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return d.lastSeen
}

// Data returns a deep copy of the roster payload.
func (d *Device) Data() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return copyMap(d.data)
}

// Detail returns a deep copy of the detail payload.
func (d *Device) Detail() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return copyMap(d.detail)
}

// UpdateData merges a fresh roster payload into the device and notifies
// listeners. Fields absent from the new payload survive the merge.
func (d *Device) UpdateData(data map[string]any) {
	d.dataMu.Lock()
	d.data = mergeMaps(d.data, data)
	d.lastSeen = time.Now()
	d.dataMu.Unlock()

	d.logger.Debug("device data updated")
	d.notify()
}

// Subscribe registers a listener invoked after every data or detail
// update. Registration order is preserved; re-registering an existing
// key is a no-op.
func (d *Device) Subscribe(key string, fn func()) {
	if fn == nil {
		return
	}
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	if _, exists := d.listeners[key]; exists {
		return
	}
	d.listeners[key] = fn
	d.listenerKeys = append(d.listenerKeys, key)
}

// Unsubscribe removes a listener. Unknown keys are ignored.
func (d *Device) Unsubscribe(key string) {
	d.dataMu.Lock()
	defer d.dataMu.Unlock()
	if _, exists := d.listeners[key]; !exists {
		return
	}
	delete(d.listeners, key)
	for i, k := range d.listenerKeys {
		if k == key {
			d.listenerKeys = append(d.listenerKeys[:i], d.listenerKeys[i+1:]...)
			break
		}
	}
}

// notify invokes listeners in registration order, outside dataMu.
// A panicking listener is logged and does not stop the fan-out.
func (d *Device) notify() {
	d.dataMu.RLock()
	fns := make([]func(), 0, len(d.listenerKeys))
	keys := make([]string, 0, len(d.listenerKeys))
	for _, key := range d.listenerKeys {
		fns = append(fns, d.listeners[key])
		keys = append(keys, key)
	}
	d.dataMu.RUnlock()

	for i, fn := range fns {
		d.invokeListener(keys[i], fn)
	}
}

func (d *Device) invokeListener(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("device listener panic recovered", "listener", key, "panic", r)
		}
	}()
	fn()
}

// Status returns the roster status object (may be nil).
func (d *Device) Status() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return copyMap(asMap(d.data["status"]))
}

// State derives the device's headline state.
//
// Feeders and litter boxes map the numeric roster code through
// stateNames; unknown codes pass through raw. Fitness trackers report
// their last sync time. Water fountains derive state from warning and
// run flags in priority order.
func (d *Device) State() any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()

	switch d.kind {
	case KindFitnessTracker:
		return d.data["syncTime"]
	case KindWaterFountain:
		return d.fountainState()
	default:
		raw := d.data["state"]
		if raw == nil {
			raw = 0
		}
		if name, ok := stateNames[asInt(raw)]; ok {
			return name
		}
		return raw
	}
}

// StateAttrs returns the metadata published alongside the state.
func (d *Device) StateAttrs() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()

	switch d.kind {
	case KindFitnessTracker:
		attrs := copyMap(d.data)
		attrs["data24"] = copyValue(d.detail["data24"])
		return attrs
	case KindWaterFountain:
		return copyMap(d.data)
	default:
		return map[string]any{
			"state":  d.data["state"],
			"desc":   d.data["desc"],
			"status": copyMap(asMap(d.data["status"])),
			"shared": d.data["deviceShared"],
		}
	}
}

// HasBattery reports whether the roster payload carries a battery level.
func (d *Device) HasBattery() bool {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	_, ok := d.data["battery"]
	return ok
}

// Battery returns the battery level from the roster payload.
func (d *Device) Battery() any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return d.data["battery"]
}

// Firmware returns the firmware version from the detail payload.
func (d *Device) Firmware() string {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return asString(d.detail["firmware"])
}

// RefreshDetail fetches the device detail from the cloud. Litter boxes
// additionally fetch the day's event records. Listeners are notified
// once the new detail is in place.
func (d *Device) RefreshDetail(ctx context.Context) {
	d.opMu.Lock()
	defer d.opMu.Unlock()
	d.refreshDetailLocked(ctx)
}

// refreshDetailLocked requires opMu held.
func (d *Device) refreshDetailLocked(ctx context.Context) {
	switch d.kind {
	case KindFitnessTracker:
		d.refreshTrackerDetail(ctx)
	case KindLitterBox:
		d.refreshGenericDetail(ctx)
		d.refreshLitterRecords(ctx)
	default:
		d.refreshGenericDetail(ctx)
	}
	d.notify()
}

func (d *Device) refreshGenericDetail(ctx context.Context) {
	rsp := d.account.Request(ctx, d.typeTag+"/device_detail", map[string]string{
		"id": d.id,
	}, petkit.MethodGet)

	result := petkit.Result(rsp)
	if len(result) == 0 {
		d.logger.Warn("device detail fetch empty", "response", rsp)
		return
	}

	d.dataMu.Lock()
	// Records come from a separate endpoint; keep them across detail swaps.
	if records, ok := d.detail["records"]; ok {
		result["records"] = records
	}
	d.detail = result
	d.dataMu.Unlock()
}
