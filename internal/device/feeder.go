package device

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/petkit"
)

// Feeder accessors read detail.state.feedState and the roster status.
// Model quirks: d3 counts feed events from a list, d4s splits totals
// across two hoppers.

// feedState returns detail.state.feedState (may be nil).
func (d *Device) feedState() map[string]any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return copyMap(asMap(asMap(d.detail["state"])["feedState"]))
}

// FeedStateAttrs exposes the raw feed state for attribute metadata.
func (d *Device) FeedStateAttrs() map[string]any {
	return d.feedState()
}

// Desiccant returns the remaining drying-agent days.
func (d *Device) Desiccant() int {
	return asInt(d.Status()["desiccantLeftDays"])
}

// FoodLow reports whether the hopper is short on food. A missing food
// field counts as empty, matching the vendor app.
func (d *Device) FoodLow() bool {
	status := d.Status()
	if _, ok := status["food"]; !ok {
		return true
	}
	return asInt(status["food"]) == 0
}

// FoodStateAttrs returns the food level metadata.
func (d *Device) FoodStateAttrs() map[string]any {
	desc := "normal"
	if d.FoodLow() {
		desc = "few"
	}
	return map[string]any{
		"state": d.Status()["food"],
		"desc":  desc,
	}
}

// FeedTimes returns today's number of feeds. The d3 reports a list of
// feed events; other models report a counter.
func (d *Device) FeedTimes() int {
	fs := d.feedState()
	if d.typeTag == "d3" {
		return len(asSlice(fs["feedTimes"]))
	}
	return asInt(fs["times"])
}

// FeedAmount returns today's dispensed grams. The d4s totals its two
// hoppers separately.
func (d *Device) FeedAmount() int {
	fs := d.feedState()
	if d.typeTag == "d4s" {
		return asInt(fs["realAmountTotal1"]) + asInt(fs["realAmountTotal2"])
	}
	return asInt(fs["realAmountTotal"])
}

// EatAmount returns today's eaten grams (d3 only reports this).
func (d *Device) EatAmount() int {
	return asInt(d.feedState()["eatAmountTotal"])
}

// EatTimes returns today's number of eating events.
func (d *Device) EatTimes() int {
	return len(asSlice(d.feedState()["eatTimes"]))
}

// BowlWeight returns the current bowl weight in grams.
func (d *Device) BowlWeight() int {
	return asInt(d.Status()["weight"])
}

// FeedingAmount returns the portion a FeedNow without an explicit
// amount would dispense.
func (d *Device) FeedingAmount() int {
	return d.account.FeedingAmount("", d.typeTag)
}

// FeedingAttrs returns the metadata for the manual-feed control.
func (d *Device) FeedingAttrs() map[string]any {
	attrs := map[string]any{
		"feeding_amount": d.FeedingAmount(),
		"desc":           d.Data()["desc"],
		"error":          d.Status()["errorMsg"],
	}
	if d.typeTag == "d4s" {
		attrs["feeding_amount1"] = d.account.FeedingAmount("1", d.typeTag)
		attrs["feeding_amount2"] = d.account.FeedingAmount("2", d.typeTag)
	}
	for k, v := range d.feedState() {
		attrs[k] = v
	}
	return attrs
}

// feedEndpoint returns the model-specific manual feed API path.
func (d *Device) feedEndpoint() string {
	switch d.typeTag {
	case "feedermini":
		return "feedermini/save_dailyfeed"
	case "d3", "d4", "d4s":
		return d.typeTag + "/saveDailyFeed"
	default:
		return "feeder/save_dailyfeed"
	}
}

// FeedNow dispenses a manual feed.
//
// amount <= 0 uses the configured feeding amount. Dual-hopper models
// (d4s) additionally send their per-hopper amounts. On vendor rejection
// the error is returned and local state is untouched; on success the
// detail is refetched so daily totals update immediately.
func (d *Device) FeedNow(ctx context.Context, amount int) error {
	if d.kind != KindFeeder {
		return fmt.Errorf("%w: feed on %s", ErrNotSupported, d.kind)
	}

	d.opMu.Lock()
	defer d.opMu.Unlock()

	if amount <= 0 {
		amount = d.account.FeedingAmount("", d.typeTag)
	}
	params := map[string]string{
		"deviceId": d.id,
		"day":      time.Now().Format(dayFormat),
		"time":     "-1",
		"amount":   strconv.Itoa(amount),
	}
	if d.typeTag == "d4s" {
		params["amount1"] = strconv.Itoa(d.account.FeedingAmount("1", d.typeTag))
		params["amount2"] = strconv.Itoa(d.account.FeedingAmount("2", d.typeTag))
	}

	rsp := d.account.Request(ctx, d.feedEndpoint(), params, petkit.MethodGet)
	if apiErr := petkit.EnvelopeError(rsp); apiErr != nil {
		d.logger.Error("manual feed rejected", "code", apiErr.Code, "msg", apiErr.Msg)
		return fmt.Errorf("%w: %w", ErrControlFailed, apiErr)
	}

	d.logger.Info("manual feed dispensed", "amount", amount)
	d.refreshDetailLocked(ctx)
	return nil
}
