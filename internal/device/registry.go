package device

import (
	"sort"
	"sync"

	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/petkit-bridge/internal/petkit"
)

// Registry holds the live device instances for the bridge.
//
// Devices are created on first sight and reused for every later poll,
// so listeners registered by sinks survive roster refreshes. Devices
// that drop out of the roster are kept; LastSeen tells consumers how
// stale they are.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	logger  *logging.Logger

	addedMu sync.RWMutex
	onAdded []func(*Device)
}

// NewRegistry creates an empty device registry.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		devices: make(map[string]*Device),
		logger:  logger,
	}
}

// OnDeviceAdded registers a hook invoked once for every new device.
// Hooks run synchronously inside Sync, in registration order.
func (r *Registry) OnDeviceAdded(fn func(*Device)) {
	if fn == nil {
		return
	}
	r.addedMu.Lock()
	r.onAdded = append(r.onAdded, fn)
	r.addedMu.Unlock()
}

// Sync folds one roster data payload into the registry.
//
// An existing device absorbs the payload via UpdateData; a new one is
// created, stored, and announced through the OnDeviceAdded hooks. The
// returned bool is true when the device was created by this call.
func (r *Registry) Sync(data map[string]any, account *petkit.Account) (*Device, bool, error) {
	id := asString(data["id"])
	if id == "" {
		return nil, false, ErrMissingID
	}

	r.mu.RLock()
	existing, ok := r.devices[id]
	r.mu.RUnlock()
	if ok {
		existing.UpdateData(data)
		return existing, false, nil
	}

	r.mu.Lock()
	// Re-check under the write lock; a concurrent Sync may have won.
	if existing, ok := r.devices[id]; ok {
		r.mu.Unlock()
		existing.UpdateData(data)
		return existing, false, nil
	}

	created, err := New(data, account, r.logger)
	if err != nil {
		r.mu.Unlock()
		return nil, false, err
	}
	r.devices[id] = created
	r.mu.Unlock()

	r.logger.Info("device discovered",
		"device", created.ID(),
		"kind", string(created.Kind()),
		"type", created.TypeTag(),
		"name", created.Name(),
	)

	r.addedMu.RLock()
	hooks := append([]func(*Device){}, r.onAdded...)
	r.addedMu.RUnlock()
	for _, hook := range hooks {
		hook(created)
	}

	return created, true, nil
}

// Get returns the device with the given ID.
func (r *Registry) Get(id string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	return d, ok
}

// Snapshot returns all devices sorted by ID.
func (r *Registry) Snapshot() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ID() < devices[j].ID()
	})
	return devices
}

// Count returns the number of tracked devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
