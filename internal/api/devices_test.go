package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/nerrad567/petkit-bridge/internal/device"
)

func TestListDevices(t *testing.T) {
	registry := device.NewRegistry(nil)
	account := okCloud(t)
	for _, data := range []map[string]any{
		{"id": 1, "type": "d3", "name": "Kitchen", "state": float64(1)},
		{"id": 2, "type": "t4", "name": "Hall", "state": float64(2)},
	} {
		if _, _, err := registry.Sync(data, account); err != nil {
			t.Fatalf("Sync: %v", err)
		}
	}

	srv := testServer(t, registry)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/devices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeJSON(t, rec)
	if body["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", body["count"])
	}
	devices := body["devices"].([]any)
	first := devices[0].(map[string]any)
	if first["id"] != "1" || first["kind"] != "feeder" || first["state"] != "online" {
		t.Fatalf("unexpected first device: %v", first)
	}
	second := devices[1].(map[string]any)
	if second["kind"] != "litter_box" || second["state"] != "offline" {
		t.Fatalf("unexpected second device: %v", second)
	}
}

func TestGetDevice(t *testing.T) {
	registry := device.NewRegistry(nil)
	data := map[string]any{
		"id": 5, "type": "t4", "name": "Hall", "state": float64(1),
		"status": map[string]any{"sandPercent": float64(70)},
	}
	if _, _, err := registry.Sync(data, okCloud(t)); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	srv := testServer(t, registry)
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/devices/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeJSON(t, rec)
	attrs := body["attributes"].(map[string]any)
	if attrs["sand_percent"] != float64(70) {
		t.Fatalf("sand_percent = %v, want 70", attrs["sand_percent"])
	}
	if body["data"].(map[string]any)["name"] != "Hall" {
		t.Fatalf("raw data not exposed: %v", body["data"])
	}

	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/devices/404", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status for unknown device = %d, want 404", rec.Code)
	}
}

func TestFeedEndpoint(t *testing.T) {
	var feedQuery string
	account := cloudAccount(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "saveDailyFeed") {
			feedQuery = r.URL.RawQuery
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{}})
	})

	registry := device.NewRegistry(nil)
	data := map[string]any{"id": 7, "type": "d3", "state": float64(1)}
	if _, _, err := registry.Sync(data, account); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	srv := testServer(t, registry)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/7/feed", `{"amount": 25}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(feedQuery, "amount=25") {
		t.Fatalf("feed request not forwarded, query %q", feedQuery)
	}

	// Empty body falls back to the configured amount.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/devices/7/feed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status without body = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/devices/7/feed", `{"amount": -1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for negative amount = %d, want 400", rec.Code)
	}
}

func TestFeedWrongKind(t *testing.T) {
	registry := device.NewRegistry(nil)
	data := map[string]any{"id": 8, "type": "t4", "state": float64(1)}
	if _, _, err := registry.Sync(data, okCloud(t)); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	srv := testServer(t, registry)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/8/feed", `{"amount": 10}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestActionEndpoint(t *testing.T) {
	var controlQuery string
	account := cloudAccount(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "controlDevice") {
			controlQuery = r.URL.RawQuery
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{}})
	})

	registry := device.NewRegistry(nil)
	data := map[string]any{"id": 9, "type": "t4", "state": float64(1)}
	if _, _, err := registry.Sync(data, account); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	srv := testServer(t, registry)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/9/action", `{"action": "cleanup"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(controlQuery, "start_action") {
		t.Fatalf("control request not forwarded, query %q", controlQuery)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/devices/9/action", `{"action": "nonsense"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for unknown action = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/devices/9/action", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status for missing action = %d, want 400", rec.Code)
	}
}

func TestControlUpstreamFailure(t *testing.T) {
	account := cloudAccount(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": float64(400), "msg": "device busy"},
		})
	})

	registry := device.NewRegistry(nil)
	data := map[string]any{"id": 11, "type": "t4", "state": float64(1)}
	if _, _, err := registry.Sync(data, account); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	srv := testServer(t, registry)
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/devices/11/power", `{"on": true}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", rec.Code, rec.Body.String())
	}
}
