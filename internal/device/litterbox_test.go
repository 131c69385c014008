package device

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func litterDevice(t *testing.T, detail map[string]any) *Device {
	t.Helper()
	d := newTestDevice(t, offlineAccount(), map[string]any{
		"id": "700001", "type": "t4",
		"status": map[string]any{
			"power":       float64(1),
			"boxFull":     false,
			"sandPercent": float64(64),
			"workState":   map[string]any{"workMode": float64(0)},
		},
	})
	if detail != nil {
		setDetail(d, detail)
	}
	return d
}

func TestLastRecord(t *testing.T) {
	tests := []struct {
		name    string
		records []any
		want    any
	}{
		{
			"cleaned",
			[]any{map[string]any{"eventType": float64(5)}},
			"cleaned",
		},
		{
			"dumped",
			[]any{map[string]any{"eventType": float64(5)}, map[string]any{"eventType": float64(6)}},
			"dumped",
		},
		{
			"unknown code passes through",
			[]any{map[string]any{"eventType": float64(99)}},
			float64(99),
		},
		{
			"no records",
			[]any{},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := litterDevice(t, map[string]any{"records": tt.records})
			if got := d.LastRecord(); got != tt.want {
				t.Errorf("LastRecord() = %v (%T), want %v", got, got, tt.want)
			}
		})
	}
}

func TestLastRecordAttrsFlattening(t *testing.T) {
	d := litterDevice(t, map[string]any{
		"records": []any{
			map[string]any{
				"eventType": float64(10),
				"timestamp": float64(1756600000),
				"content":   map[string]any{"petWeight": float64(4200)},
			},
		},
	})

	attrs := d.LastRecordAttrs()
	if _, ok := attrs["content"]; ok {
		t.Error("content object not flattened away")
	}
	if asInt(attrs["petWeight"]) != 4200 {
		t.Errorf("petWeight = %v, want 4200", attrs["petWeight"])
	}
	if asInt(attrs["eventType"]) != 10 {
		t.Errorf("eventType = %v, want 10", attrs["eventType"])
	}
}

func TestPetWeightPicksLatestOccupancyWithContent(t *testing.T) {
	d := litterDevice(t, map[string]any{
		"records": []any{
			map[string]any{"eventType": float64(10), "content": map[string]any{"petWeight": float64(4100)}},
			map[string]any{"eventType": float64(10)}, // occupancy without content is skipped
			map[string]any{"eventType": float64(5)},  // cleanup is not an occupancy
		},
	})

	if got := asInt(d.PetWeight()); got != 4100 {
		t.Errorf("PetWeight() = %v, want 4100", got)
	}
}

func TestManualLock(t *testing.T) {
	d := litterDevice(t, map[string]any{
		"settings": map[string]any{"manualLock": float64(1)},
	})
	if !d.ManualLock() {
		t.Error("ManualLock() = false, want true")
	}

	d = litterDevice(t, nil)
	if d.ManualLock() {
		t.Error("ManualLock() with no settings = true, want false")
	}
}

func TestSelectAction(t *testing.T) {
	tests := []struct {
		action   string
		workMode float64
		wantKV   string
		wantType string
	}{
		{"cleanup", 0, `{"start_action":0}`, "start"},
		{"deodorize", 0, `{"start_action":2}`, "start"},
		{"maintain", 0, `{"start_action":9}`, "start"},
		{"pause", 9, `{"stop_action":9}`, "stop"},
		{"end", 2, `{"end_action":2}`, "end"},
		{"continue", 9, `{"continue_action":9}`, "continue"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			var gotKV, gotType string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/t4/controlDevice":
					gotKV = r.URL.Query().Get("kv")
					gotType = r.URL.Query().Get("type")
					w.Write([]byte(`{"result":"success"}`)) //nolint:errcheck // test handler
				default:
					w.Write([]byte(`{"result":{}}`)) //nolint:errcheck // test handler
				}
			})

			d := newTestDevice(t, serverAccount(t, handler), map[string]any{
				"id": "700001", "type": "t4",
				"status": map[string]any{
					"workState": map[string]any{"workMode": tt.workMode},
				},
			})

			if err := d.SelectAction(context.Background(), tt.action); err != nil {
				t.Fatalf("SelectAction(%s) error = %v", tt.action, err)
			}
			if gotKV != tt.wantKV {
				t.Errorf("kv = %q, want %q", gotKV, tt.wantKV)
			}
			if gotType != tt.wantType {
				t.Errorf("type = %q, want %q", gotType, tt.wantType)
			}
		})
	}
}

func TestSelectActionUnknown(t *testing.T) {
	d := litterDevice(t, nil)
	if err := d.SelectAction(context.Background(), "explode"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("SelectAction(explode) error = %v, want ErrUnknownAction", err)
	}
}

func TestSetPower(t *testing.T) {
	var gotKV string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/t4/controlDevice":
			gotKV = r.URL.Query().Get("kv")
			w.Write([]byte(`{"result":"success"}`)) //nolint:errcheck // test handler
		default:
			w.Write([]byte(`{"result":{}}`)) //nolint:errcheck // test handler
		}
	})

	d := newTestDevice(t, serverAccount(t, handler), map[string]any{
		"id": "700001", "type": "t4",
	})

	if err := d.SetPower(context.Background(), true); err != nil {
		t.Fatalf("SetPower(true) error = %v", err)
	}
	if gotKV != `{"power_action":1}` {
		t.Errorf("kv = %q, want power_action 1", gotKV)
	}

	if err := d.SetPower(context.Background(), false); err != nil {
		t.Fatalf("SetPower(false) error = %v", err)
	}
	if gotKV != `{"power_action":0}` {
		t.Errorf("kv = %q, want power_action 0", gotKV)
	}
}

func TestSetManualLockEndpoint(t *testing.T) {
	var gotPath, gotKV string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/t4/updateSettings":
			gotPath = r.URL.Path
			gotKV = r.URL.Query().Get("kv")
			w.Write([]byte(`{"result":"success"}`)) //nolint:errcheck // test handler
		default:
			w.Write([]byte(`{"result":{}}`)) //nolint:errcheck // test handler
		}
	})

	d := newTestDevice(t, serverAccount(t, handler), map[string]any{
		"id": "700001", "type": "t4",
	})

	if err := d.SetManualLock(context.Background(), true); err != nil {
		t.Fatalf("SetManualLock() error = %v", err)
	}
	if gotPath != "/t4/updateSettings" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKV != `{"manualLock":1}` {
		t.Errorf("kv = %q, want manualLock 1", gotKV)
	}
}

func TestControlRejectionLeavesStateUntouched(t *testing.T) {
	detailCalls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/t4/controlDevice":
			w.Write([]byte(`{"error":{"code":400,"msg":"busy"}}`)) //nolint:errcheck // test handler
		default:
			detailCalls++
		}
	})

	d := newTestDevice(t, serverAccount(t, handler), map[string]any{
		"id": "700001", "type": "t4",
		"status": map[string]any{"power": float64(1)},
	})

	err := d.SetPower(context.Background(), false)
	if !errors.Is(err, ErrControlFailed) {
		t.Fatalf("SetPower() error = %v, want ErrControlFailed", err)
	}
	if detailCalls != 0 {
		t.Errorf("detail calls after rejection = %d, want 0", detailCalls)
	}
	if !d.Power() {
		t.Error("Power() changed after rejected control")
	}
}

func TestControlWrongKind(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": "feeder"})

	if err := d.SetPower(context.Background(), true); !errors.Is(err, ErrNotSupported) {
		t.Errorf("SetPower() on feeder error = %v, want ErrNotSupported", err)
	}
	if err := d.SetManualLock(context.Background(), true); !errors.Is(err, ErrNotSupported) {
		t.Errorf("SetManualLock() on feeder error = %v, want ErrNotSupported", err)
	}
	if err := d.SelectAction(context.Background(), "cleanup"); !errors.Is(err, ErrNotSupported) {
		t.Errorf("SelectAction() on feeder error = %v, want ErrNotSupported", err)
	}
}
