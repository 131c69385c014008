package device

import (
	"context"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/petkit"
)

// Fitness tracker (p3) accessors. The tracker is read-only: it exposes
// daily totals fetched from the deviceAllData endpoint and has no
// controls.

// Activity returns today's activity total.
func (d *Device) Activity() any {
	return d.ActivityAttrs()["total"]
}

// ActivityAttrs returns the raw activity record.
func (d *Device) ActivityAttrs() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return copyMap(asMap(d.detail["activityRecord"]))
}

// Calorie returns today's calorie total.
func (d *Device) Calorie() any {
	return d.CalorieAttrs()["total"]
}

// CalorieAttrs returns the raw calorie record.
func (d *Device) CalorieAttrs() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return copyMap(asMap(d.detail["calorieRecord"]))
}

// Sleep returns today's sleep total.
func (d *Device) Sleep() any {
	return d.SleepAttrs()["total"]
}

// SleepAttrs returns the raw sleep detail.
func (d *Device) SleepAttrs() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return copyMap(asMap(d.detail["sleepDetail"]))
}

// refreshTrackerDetail fetches the tracker's daily aggregate payload.
func (d *Device) refreshTrackerDetail(ctx context.Context) {
	rsp := d.account.Request(ctx, d.typeTag+"/deviceAllData", map[string]string{
		"deviceId": d.id,
		"day":      time.Now().Format(dayFormat),
	}, petkit.MethodGet)

	result := petkit.Result(rsp)
	if len(result) == 0 {
		d.logger.Warn("tracker detail fetch empty", "response", rsp)
		return
	}

	d.dataMu.Lock()
	d.detail = result
	d.dataMu.Unlock()
}
