package device

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerrad567/petkit-bridge/internal/infrastructure/config"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/petkit-bridge/internal/petkit"
)

// offlineAccount returns an account whose requests would all fail; used
// for tests that only exercise payload-derived behaviour.
func offlineAccount() *petkit.Account {
	return petkit.NewAccount(config.AccountConfig{
		Username: "cat@example.com",
		Password: "pw",
	}, petkit.NewClient("http://127.0.0.1:1", logging.Default()), nil, logging.Default())
}

// serverAccount returns an account wired to an httptest handler.
func serverAccount(t *testing.T, handler http.Handler) *petkit.Account {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return petkit.NewAccount(config.AccountConfig{
		Username: "cat@example.com",
		Password: "pw",
	}, petkit.NewClient(srv.URL, logging.Default()), nil, logging.Default())
}

// newTestDevice builds a device from a payload, failing the test on error.
func newTestDevice(t *testing.T, account *petkit.Account, data map[string]any) *Device {
	t.Helper()
	d, err := New(data, account, logging.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

// setDetail injects a detail payload directly, bypassing the cloud.
func setDetail(d *Device, detail map[string]any) {
	d.dataMu.Lock()
	d.detail = detail
	d.dataMu.Unlock()
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		typeTag string
		want    Kind
	}{
		{"p3", KindFitnessTracker},
		{"P3", KindFitnessTracker},
		{"t3", KindLitterBox},
		{"t4", KindLitterBox},
		{"w5", KindWaterFountain},
		{"feeder", KindFeeder},
		{"feedermini", KindFeeder},
		{"d3", KindFeeder},
		{"d4s", KindFeeder},
		{"", KindFeeder},
		{"unknown-future-model", KindFeeder},
	}

	for _, tt := range tests {
		if got := KindOf(tt.typeTag); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.typeTag, got, tt.want)
		}
	}
}

func TestNewRequiresID(t *testing.T) {
	_, err := New(map[string]any{"type": "t4"}, offlineAccount(), logging.Default())
	if err == nil {
		t.Fatal("New() without id expected error")
	}
}

func TestNewCanonicalisesNumericID(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{
		"id":   float64(700001), // as the JSON decoder delivers it
		"type": "t4",
	})
	if d.ID() != "700001" {
		t.Errorf("ID() = %q, want 700001", d.ID())
	}
}

func TestState(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want any
	}{
		{"online", map[string]any{"id": "1", "type": "feeder", "state": float64(1)}, "online"},
		{"offline", map[string]any{"id": "1", "type": "feeder", "state": float64(2)}, "offline"},
		{"feeding", map[string]any{"id": "1", "type": "feeder", "state": float64(3)}, "feeding"},
		{"ota", map[string]any{"id": "1", "type": "feeder", "state": float64(4)}, "ota"},
		{"error", map[string]any{"id": "1", "type": "feeder", "state": float64(5)}, "error"},
		{"battery mode", map[string]any{"id": "1", "type": "feeder", "state": float64(6)}, "battery_mode"},
		{"unknown code passes through", map[string]any{"id": "1", "type": "feeder", "state": float64(42)}, float64(42)},
		{"missing state", map[string]any{"id": "1", "type": "feeder"}, 0},
		{"tracker reports sync time", map[string]any{"id": "1", "type": "p3", "syncTime": "2026-08-30 08:00"}, "2026-08-30 08:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, offlineAccount(), tt.data)
			if got := d.State(); got != tt.want {
				t.Errorf("State() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestUpdateDataMerges(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{
		"id":   "700001",
		"type": "t4",
		"name": "Litter Box",
		"status": map[string]any{
			"power":       float64(1),
			"sandPercent": float64(64),
		},
	})

	// A later roster omits sandPercent and adds boxFull; both must be
	// visible afterwards.
	d.UpdateData(map[string]any{
		"id":   "700001",
		"type": "t4",
		"status": map[string]any{
			"power":   float64(0),
			"boxFull": true,
		},
	})

	status := d.Status()
	if asInt(status["power"]) != 0 {
		t.Errorf("power = %v, want 0", status["power"])
	}
	if asInt(status["sandPercent"]) != 64 {
		t.Errorf("sandPercent = %v, want 64 (preserved)", status["sandPercent"])
	}
	if !asBool(status["boxFull"]) {
		t.Error("boxFull = false, want true")
	}
	if d.Name() != "Litter Box" {
		t.Errorf("Name() = %q, want preserved name", d.Name())
	}
}

func TestSubscribe(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": "feeder"})

	var order []string
	d.Subscribe("first", func() { order = append(order, "first") })
	d.Subscribe("second", func() { order = append(order, "second") })
	d.Subscribe("first", func() { order = append(order, "duplicate") }) // no-op

	d.UpdateData(map[string]any{"state": float64(1)})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("listener order = %v, want [first second]", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": "feeder"})

	calls := 0
	d.Subscribe("gone", func() { calls++ })
	d.Unsubscribe("gone")
	d.Unsubscribe("never-existed") // ignored

	d.UpdateData(map[string]any{"state": float64(1)})
	if calls != 0 {
		t.Errorf("unsubscribed listener called %d times", calls)
	}
}

func TestListenerPanicIsolation(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": "feeder"})

	survived := false
	d.Subscribe("bad", func() { panic("boom") })
	d.Subscribe("good", func() { survived = true })

	d.UpdateData(map[string]any{"state": float64(1)})

	if !survived {
		t.Error("listener after panicking one was not invoked")
	}
}

func TestDataReturnsCopy(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{
		"id": "1", "type": "feeder",
		"status": map[string]any{"food": float64(1)},
	})

	snapshot := d.Data()
	asMap(snapshot["status"])["food"] = float64(0)

	if d.FoodLow() {
		t.Error("mutating a Data() snapshot leaked into the device")
	}
}
