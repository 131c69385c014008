package device

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestFoodLow(t *testing.T) {
	tests := []struct {
		name   string
		status map[string]any
		want   bool
	}{
		{"food present", map[string]any{"food": float64(1)}, false},
		{"food empty", map[string]any{"food": float64(0)}, true},
		{"food missing", map[string]any{}, true},
		{"no status at all", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{"id": "1", "type": "feeder"}
			if tt.status != nil {
				data["status"] = tt.status
			}
			d := newTestDevice(t, offlineAccount(), data)
			if got := d.FoodLow(); got != tt.want {
				t.Errorf("FoodLow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFeedTimes(t *testing.T) {
	tests := []struct {
		name      string
		typeTag   string
		feedState map[string]any
		want      int
	}{
		{
			"d3 counts feed events",
			"d3",
			map[string]any{"feedTimes": []any{map[string]any{}, map[string]any{}, map[string]any{}}},
			3,
		},
		{
			"other models use the counter",
			"d4",
			map[string]any{"times": float64(5)},
			5,
		},
		{
			"empty feed state",
			"feeder",
			map[string]any{},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": tt.typeTag})
			setDetail(d, map[string]any{"state": map[string]any{"feedState": tt.feedState}})
			if got := d.FeedTimes(); got != tt.want {
				t.Errorf("FeedTimes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFeedAmount(t *testing.T) {
	tests := []struct {
		name      string
		typeTag   string
		feedState map[string]any
		want      int
	}{
		{
			"single hopper",
			"d4",
			map[string]any{"realAmountTotal": float64(40)},
			40,
		},
		{
			"dual hopper sums both",
			"d4s",
			map[string]any{"realAmountTotal1": float64(20), "realAmountTotal2": float64(30)},
			50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": tt.typeTag})
			setDetail(d, map[string]any{"state": map[string]any{"feedState": tt.feedState}})
			if got := d.FeedAmount(); got != tt.want {
				t.Errorf("FeedAmount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFeedEndpoint(t *testing.T) {
	tests := []struct {
		typeTag string
		want    string
	}{
		{"feedermini", "feedermini/save_dailyfeed"},
		{"d3", "d3/saveDailyFeed"},
		{"d4", "d4/saveDailyFeed"},
		{"d4s", "d4s/saveDailyFeed"},
		{"feeder", "feeder/save_dailyfeed"},
		{"someday-model", "feeder/save_dailyfeed"},
	}

	for _, tt := range tests {
		d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": tt.typeTag})
		if got := d.feedEndpoint(); got != tt.want {
			t.Errorf("feedEndpoint(%s) = %q, want %q", tt.typeTag, got, tt.want)
		}
	}
}

func TestFeedNow(t *testing.T) {
	var feedPath, feedQuery string
	detailCalls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feedermini/save_dailyfeed":
			feedPath = r.URL.Path
			feedQuery = r.URL.RawQuery
			w.Write([]byte(`{"result":"success"}`)) //nolint:errcheck // test handler
		case "/feedermini/device_detail":
			detailCalls++
			w.Write([]byte(`{"result":{"state":{"feedState":{"times":2,"realAmountTotal":50}}}}`)) //nolint:errcheck // test handler
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	d := newTestDevice(t, serverAccount(t, handler), map[string]any{
		"id": "500123", "type": "feedermini",
	})

	if err := d.FeedNow(context.Background(), 50); err != nil {
		t.Fatalf("FeedNow() error = %v", err)
	}

	if feedPath != "/feedermini/save_dailyfeed" {
		t.Errorf("feed path = %q", feedPath)
	}
	day := time.Now().Format("20060102")
	for _, want := range []string{"deviceId=500123", "amount=50", "time=-1", "day=" + day} {
		if !queryHas(feedQuery, want) {
			t.Errorf("feed query %q missing %q", feedQuery, want)
		}
	}

	// The detail refetch after a successful feed updates daily totals.
	if detailCalls != 1 {
		t.Errorf("detail calls = %d, want 1", detailCalls)
	}
	if d.FeedAmount() != 50 {
		t.Errorf("FeedAmount() after feed = %d, want 50", d.FeedAmount())
	}
	if d.FeedTimes() != 2 {
		t.Errorf("FeedTimes() after feed = %d, want 2", d.FeedTimes())
	}
}

func TestFeedNowDualHopperAmounts(t *testing.T) {
	var feedQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/d4s/saveDailyFeed":
			feedQuery = r.URL.RawQuery
			w.Write([]byte(`{"result":"success"}`)) //nolint:errcheck // test handler
		default:
			w.Write([]byte(`{"result":{}}`)) //nolint:errcheck // test handler
		}
	})

	d := newTestDevice(t, serverAccount(t, handler), map[string]any{
		"id": "500124", "type": "d4s",
	})

	if err := d.FeedNow(context.Background(), 0); err != nil {
		t.Fatalf("FeedNow() error = %v", err)
	}

	// Unset config: dual-hopper default is 1 per hopper.
	for _, want := range []string{"amount=1", "amount1=1", "amount2=1"} {
		if !queryHas(feedQuery, want) {
			t.Errorf("feed query %q missing %q", feedQuery, want)
		}
	}
}

func TestFeedNowVendorRejection(t *testing.T) {
	detailCalls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feeder/save_dailyfeed":
			w.Write([]byte(`{"error":{"code":400,"msg":"feeding too often"}}`)) //nolint:errcheck // test handler
		default:
			detailCalls++
		}
	})

	d := newTestDevice(t, serverAccount(t, handler), map[string]any{
		"id": "500125", "type": "feeder",
	})
	setDetail(d, map[string]any{"state": map[string]any{"feedState": map[string]any{"realAmountTotal": float64(10)}}})

	err := d.FeedNow(context.Background(), 20)
	if !errors.Is(err, ErrControlFailed) {
		t.Fatalf("FeedNow() error = %v, want ErrControlFailed", err)
	}

	// Rejection does not touch local state or trigger a refetch.
	if detailCalls != 0 {
		t.Errorf("detail calls after rejection = %d, want 0", detailCalls)
	}
	if d.FeedAmount() != 10 {
		t.Errorf("FeedAmount() after rejection = %d, want 10", d.FeedAmount())
	}
}

func TestFeedNowWrongKind(t *testing.T) {
	d := newTestDevice(t, offlineAccount(), map[string]any{"id": "1", "type": "t4"})
	if err := d.FeedNow(context.Background(), 10); !errors.Is(err, ErrNotSupported) {
		t.Errorf("FeedNow() on litter box error = %v, want ErrNotSupported", err)
	}
}

// queryHas checks for an exact key=value pair in a raw query string.
func queryHas(query, pair string) bool {
	for _, p := range strings.Split(query, "&") {
		if p == pair {
			return true
		}
	}
	return false
}
