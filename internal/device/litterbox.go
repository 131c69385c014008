package device

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/petkit-bridge/internal/petkit"
)

// litterEventNames maps record event codes to readable events.
// Codes outside the table pass through untouched.
var litterEventNames = map[int]string{
	5:  "cleaned",
	6:  "dumped",
	7:  "reset",
	8:  "deodorized",
	10: "occupied",
}

// occupiedEvent is the record event carrying a pet weight measurement.
const occupiedEvent = 10

// litterActions maps action names to the vendor verb and mode value.
// Mode -1 means "current work mode".
var litterActions = map[string]struct {
	verb string
	mode int
}{
	"cleanup":   {"start", 0},
	"pause":     {"stop", -1},
	"end":       {"end", -1},
	"continue":  {"continue", -1},
	"deodorize": {"start", 2},
	"maintain":  {"start", 9},
}

// litterActionOrder fixes the option order exposed to consumers.
var litterActionOrder = []string{"cleanup", "pause", "end", "continue", "deodorize", "maintain"}

// Power reports whether the litter box is powered on.
func (d *Device) Power() bool {
	return asBool(d.Status()["power"])
}

// BoxFull reports whether the waste box needs emptying.
func (d *Device) BoxFull() bool {
	return asBool(d.Status()["boxFull"])
}

// SandPercent returns the remaining litter percentage.
func (d *Device) SandPercent() any {
	return d.Status()["sandPercent"]
}

// SandAttrs returns litter level metadata.
func (d *Device) SandAttrs() map[string]any {
	status := d.Status()
	return map[string]any{
		"sand_lack":   status["sandLack"],
		"sand_weight": status["sandWeight"],
	}
}

// Liquid returns the deodorant liquid percentage (newer models).
func (d *Device) Liquid() any {
	return d.Status()["liquid"]
}

// LiquidAttrs returns deodorant liquid metadata.
func (d *Device) LiquidAttrs() map[string]any {
	status := d.Status()
	return map[string]any{
		"liquid":       status["liquid"],
		"liquid_empty": status["liquidEmpty"],
		"liquid_lack":  status["liquidLack"],
	}
}

// WorkMode returns the current cycle mode from status.workState.
func (d *Device) WorkMode() int {
	return asInt(asMap(d.Status()["workState"])["workMode"])
}

// CurrentAction names the running cycle, or "" when idle or unknown.
func (d *Device) CurrentAction() string {
	switch d.WorkMode() {
	case 0:
		return "cleanup"
	case 2:
		return "deodorize"
	case 9:
		return "maintain"
	}
	return ""
}

// Actions returns the selectable action names in a fixed order.
func (d *Device) Actions() []string {
	return append([]string(nil), litterActionOrder...)
}

// InTimes returns today's entry count.
func (d *Device) InTimes() any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return d.detail["inTimes"]
}

// Records returns today's event records.
func (d *Device) Records() []any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return asSlice(copyValue(d.detail["records"]))
}

// LastRecord names the most recent event. Codes outside the event table
// pass through raw.
func (d *Device) LastRecord() any {
	attrs := d.LastRecordAttrs()
	raw, ok := attrs["eventType"]
	if !ok {
		return 0
	}
	if name, ok := litterEventNames[asInt(raw)]; ok {
		return name
	}
	return raw
}

// LastRecordAttrs flattens the latest record: the record's own fields
// plus its content object, content keys winning.
func (d *Device) LastRecordAttrs() map[string]any {
	return d.latestRecord(0)
}

// PetWeight returns the weight from the latest occupancy record.
func (d *Device) PetWeight() any {
	return d.PetWeightAttrs()["petWeight"]
}

// PetWeightAttrs returns the latest occupancy record with content.
func (d *Device) PetWeightAttrs() map[string]any {
	return d.latestRecord(occupiedEvent)
}

// latestRecord picks the newest record, or with onlyEvent set, the
// newest record of that event type that carries content.
func (d *Device) latestRecord(onlyEvent int) map[string]any {
	records := d.Records()
	if len(records) == 0 {
		return map[string]any{}
	}

	last := asMap(records[len(records)-1])
	if onlyEvent != 0 {
		for i := len(records) - 1; i >= 0; i-- {
			rec := asMap(records[i])
			if asInt(rec["eventType"]) == onlyEvent && asBool(rec["content"]) {
				last = rec
				break
			}
		}
	}
	if last == nil {
		return map[string]any{}
	}

	flat := make(map[string]any, len(last))
	for k, v := range last {
		if k == "content" {
			continue
		}
		flat[k] = v
	}
	for k, v := range asMap(last["content"]) {
		flat[k] = v
	}
	return flat
}

// ManualLock reports whether the child lock is engaged.
func (d *Device) ManualLock() bool {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return asBool(asMap(d.detail["settings"])["manualLock"])
}

// SetPower switches the litter box on or off.
func (d *Device) SetPower(ctx context.Context, on bool) error {
	if d.kind != KindLitterBox {
		return fmt.Errorf("%w: power on %s", ErrNotSupported, d.kind)
	}
	val := 0
	if on {
		val = 1
	}
	return d.controlDevice(ctx, "power", fmt.Sprintf(`{"power_action":%d}`, val))
}

// SelectAction starts or adjusts a cleaning cycle.
func (d *Device) SelectAction(ctx context.Context, action string) error {
	if d.kind != KindLitterBox {
		return fmt.Errorf("%w: action on %s", ErrNotSupported, d.kind)
	}
	entry, ok := litterActions[action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	mode := entry.mode
	if mode < 0 {
		mode = d.WorkMode()
	}
	return d.controlDevice(ctx, entry.verb, fmt.Sprintf(`{"%s_action":%d}`, entry.verb, mode))
}

// PressCleanup triggers an immediate cleaning cycle.
func (d *Device) PressCleanup(ctx context.Context) error {
	return d.SelectAction(ctx, "cleanup")
}

// PressDeodorize triggers a deodorising cycle.
func (d *Device) PressDeodorize(ctx context.Context) error {
	return d.SelectAction(ctx, "deodorize")
}

// SetManualLock engages or releases the child lock.
func (d *Device) SetManualLock(ctx context.Context, on bool) error {
	if d.kind != KindLitterBox {
		return fmt.Errorf("%w: manual lock on %s", ErrNotSupported, d.kind)
	}
	val := 0
	if on {
		val = 1
	}

	d.opMu.Lock()
	defer d.opMu.Unlock()

	params := map[string]string{
		"id": d.id,
		"kv": fmt.Sprintf(`{"manualLock":%d}`, val),
	}
	rsp := d.account.Request(ctx, d.typeTag+"/updateSettings", params, petkit.MethodGet)
	if apiErr := petkit.EnvelopeError(rsp); apiErr != nil {
		d.logger.Error("manual lock rejected", "code", apiErr.Code, "msg", apiErr.Msg)
		return fmt.Errorf("%w: %w", ErrControlFailed, apiErr)
	}

	d.refreshDetailLocked(ctx)
	return nil
}

// controlDevice issues a controlDevice request and refetches the detail
// on success. Vendor rejection leaves local state untouched.
func (d *Device) controlDevice(ctx context.Context, verb, kv string) error {
	d.opMu.Lock()
	defer d.opMu.Unlock()

	params := map[string]string{
		"id":   d.id,
		"type": verb,
		"kv":   kv,
	}
	rsp := d.account.Request(ctx, d.typeTag+"/controlDevice", params, petkit.MethodGet)
	if apiErr := petkit.EnvelopeError(rsp); apiErr != nil {
		d.logger.Error("device control rejected", "verb", verb, "code", apiErr.Code, "msg", apiErr.Msg)
		return fmt.Errorf("%w: %w", ErrControlFailed, apiErr)
	}

	d.logger.Info("device control accepted", "verb", verb, "kv", kv)
	d.refreshDetailLocked(ctx)
	return nil
}

// refreshLitterRecords fetches the day's event records. The t4 requires
// an explicit date parameter.
func (d *Device) refreshLitterRecords(ctx context.Context) {
	params := map[string]string{
		"deviceId": d.id,
	}
	if d.typeTag == "t4" {
		params["date"] = time.Now().Format(dayFormat)
	}

	rsp := d.account.Request(ctx, d.typeTag+"/getDeviceRecord", params, petkit.MethodGet)
	result := rsp["result"]
	if result == nil {
		d.logger.Warn("device records fetch empty", "response", rsp)
		return
	}

	d.dataMu.Lock()
	d.detail["records"] = result
	d.dataMu.Unlock()
}
