package device

import "testing"

func TestFountainState(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want any
	}{
		{
			"water lack wins over everything",
			map[string]any{"lackWarning": float64(1), "breakdownWarning": float64(1), "runStatus": float64(1), "powerStatus": float64(1)},
			"water_lack",
		},
		{
			"breakdown beats running",
			map[string]any{"breakdownWarning": float64(1), "runStatus": float64(1)},
			"breakdown",
		},
		{
			"running",
			map[string]any{"runStatus": float64(1), "powerStatus": float64(1)},
			"working",
		},
		{
			"powered but idle",
			map[string]any{"powerStatus": float64(1)},
			"idle",
		},
		{
			"no flags at all",
			map[string]any{},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{"id": "1", "type": "w5"}
			for k, v := range tt.data {
				data[k] = v
			}
			d := newTestDevice(t, offlineAccount(), data)
			if got := d.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFountainFilter(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{
		"id": "1", "type": "w5",
		"filterPercent":      float64(80),
		"filterExpectedDays": float64(21),
	})

	if got := asInt(d.FilterPercent()); got != 80 {
		t.Errorf("FilterPercent() = %v, want 80", got)
	}
	if got := asInt(d.FilterDays()); got != 21 {
		t.Errorf("FilterDays() = %v, want 21", got)
	}
}

func TestTrackerTotals(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{
		"id": "1", "type": "p3", "syncTime": "2026-08-30 08:00",
	})
	setDetail(d, map[string]any{
		"activityRecord": map[string]any{"total": float64(1234)},
		"calorieRecord":  map[string]any{"total": float64(88)},
		"sleepDetail":    map[string]any{"total": float64(540)},
		"data24":         []any{float64(1), float64(2)},
	})

	if got := asInt(d.Activity()); got != 1234 {
		t.Errorf("Activity() = %v, want 1234", got)
	}
	if got := asInt(d.Calorie()); got != 88 {
		t.Errorf("Calorie() = %v, want 88", got)
	}
	if got := asInt(d.Sleep()); got != 540 {
		t.Errorf("Sleep() = %v, want 540", got)
	}

	attrs := d.StateAttrs()
	if len(asSlice(attrs["data24"])) != 2 {
		t.Errorf("state attrs data24 = %v", attrs["data24"])
	}
}
