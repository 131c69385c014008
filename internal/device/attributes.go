package device

import "context"

// Group classifies an attribute by how consumers interact with it.
type Group string

// Attribute groups.
const (
	GroupSensor       Group = "sensor"
	GroupBinarySensor Group = "binary_sensor"
	GroupSwitch       Group = "switch"
	GroupSelect       Group = "select"
	GroupButton       Group = "button"
)

// Measurement units used in attribute tables.
const (
	unitGrams   = "g"
	unitPercent = "%"
	unitDays    = "days"
	unitTimes   = "times"
)

// Attribute describes one published value or control of a device.
//
// Value and Attrs are read callbacks evaluated at publish time, so an
// Attribute can be held long-term and always reflects the current
// payloads. Control callbacks are set only where the group implies
// them: TurnOn/TurnOff for switches, Press for buttons, Select for
// selects.
type Attribute struct {
	Key     string
	Group   Group
	Icon    string
	Unit    string
	Class   string
	Options []string

	Value func() any
	Attrs func() map[string]any

	TurnOn  func(ctx context.Context) error
	TurnOff func(ctx context.Context) error
	Press   func(ctx context.Context) error
	Select  func(ctx context.Context, option string) error
}

// Attributes returns the device's full attribute table for its kind.
//
// The slice is rebuilt per call; the callbacks close over the device,
// so holding an old slice is safe.
func (d *Device) Attributes() []Attribute {
	attrs := d.baseAttributes()
	switch d.kind {
	case KindFeeder:
		attrs = append(attrs, d.feederAttributes()...)
	case KindLitterBox:
		attrs = append(attrs, d.litterAttributes()...)
	case KindFitnessTracker:
		attrs = append(attrs, d.trackerAttributes()...)
	case KindWaterFountain:
		attrs = append(attrs, d.fountainAttributes()...)
	}
	return attrs
}

func (d *Device) baseAttributes() []Attribute {
	stateClass := ""
	if d.kind == KindFitnessTracker {
		stateClass = "timestamp"
	}

	attrs := []Attribute{
		{
			Key:   "state",
			Group: GroupSensor,
			Icon:  "mdi:information",
			Class: stateClass,
			Value: func() any { return d.State() },
			Attrs: d.StateAttrs,
		},
	}
	if d.HasBattery() {
		attrs = append(attrs, Attribute{
			Key:   "battery",
			Group: GroupSensor,
			Class: "battery",
			Value: d.Battery,
		})
	}
	return attrs
}

func (d *Device) feederAttributes() []Attribute {
	attrs := []Attribute{
		{
			Key:   "desiccant",
			Group: GroupSensor,
			Icon:  "mdi:air-filter",
			Unit:  unitDays,
			Value: func() any { return d.Desiccant() },
		},
		{
			Key:   "feed_times",
			Group: GroupSensor,
			Icon:  "mdi:counter",
			Unit:  unitTimes,
			Value: func() any { return d.FeedTimes() },
			Attrs: d.FeedStateAttrs,
		},
		{
			Key:   "feed_amount",
			Group: GroupSensor,
			Icon:  "mdi:weight-gram",
			Unit:  unitGrams,
			Value: func() any { return d.FeedAmount() },
			Attrs: d.FeedStateAttrs,
		},
		{
			Key:   "food_state",
			Group: GroupBinarySensor,
			Icon:  "mdi:food-drumstick-outline",
			Class: "problem",
			Value: func() any { return d.FoodLow() },
			Attrs: d.FoodStateAttrs,
		},
		{
			Key:   "feeding",
			Group: GroupSwitch,
			Icon:  "mdi:shaker",
			Value: func() any { return false },
			Attrs: d.FeedingAttrs,
			TurnOn: func(ctx context.Context) error {
				return d.FeedNow(ctx, 0)
			},
		},
	}
	if d.typeTag == "d3" {
		attrs = append(attrs,
			Attribute{
				Key:   "eat_amount",
				Group: GroupSensor,
				Icon:  "mdi:weight-gram",
				Unit:  unitGrams,
				Value: func() any { return d.EatAmount() },
			},
			Attribute{
				Key:   "eat_times",
				Group: GroupSensor,
				Icon:  "mdi:counter",
				Unit:  unitTimes,
				Value: func() any { return d.EatTimes() },
			},
			Attribute{
				Key:   "bowl_weight",
				Group: GroupSensor,
				Icon:  "mdi:weight-gram",
				Unit:  unitGrams,
				Value: func() any { return d.BowlWeight() },
			},
		)
	}
	return attrs
}

func (d *Device) litterAttributes() []Attribute {
	return []Attribute{
		{
			Key:   "sand_percent",
			Group: GroupSensor,
			Icon:  "mdi:percent-outline",
			Unit:  unitPercent,
			Value: d.SandPercent,
			Attrs: d.SandAttrs,
		},
		{
			Key:   "liquid",
			Group: GroupSensor,
			Icon:  "mdi:water-percent",
			Unit:  unitPercent,
			Value: d.Liquid,
			Attrs: d.LiquidAttrs,
		},
		{
			Key:   "pet_weight",
			Group: GroupSensor,
			Icon:  "mdi:weight",
			Unit:  unitGrams,
			Value: d.PetWeight,
			Attrs: d.PetWeightAttrs,
		},
		{
			Key:   "in_times",
			Group: GroupSensor,
			Icon:  "mdi:location-enter",
			Unit:  unitTimes,
			Value: d.InTimes,
		},
		{
			Key:   "last_record",
			Group: GroupSensor,
			Icon:  "mdi:history",
			Value: d.LastRecord,
			Attrs: d.LastRecordAttrs,
		},
		{
			Key:   "box_full",
			Group: GroupBinarySensor,
			Icon:  "mdi:tray-full",
			Class: "problem",
			Value: func() any { return d.BoxFull() },
		},
		{
			Key:   "power",
			Group: GroupButton,
			Icon:  "mdi:broom",
			Press: d.PressCleanup,
		},
		{
			Key:   "power",
			Group: GroupSwitch,
			Icon:  "mdi:power",
			Value: func() any { return d.Power() },
			TurnOn: func(ctx context.Context) error {
				return d.SetPower(ctx, true)
			},
			TurnOff: func(ctx context.Context) error {
				return d.SetPower(ctx, false)
			},
		},
		{
			Key:   "manual_lock",
			Group: GroupSwitch,
			Icon:  "mdi:lock",
			Value: func() any { return d.ManualLock() },
			TurnOn: func(ctx context.Context) error {
				return d.SetManualLock(ctx, true)
			},
			TurnOff: func(ctx context.Context) error {
				return d.SetManualLock(ctx, false)
			},
		},
		{
			Key:     "action",
			Group:   GroupSelect,
			Icon:    "mdi:play-box",
			Options: d.Actions(),
			Value:   func() any { return d.CurrentAction() },
			Select:  d.SelectAction,
		},
	}
}

func (d *Device) trackerAttributes() []Attribute {
	return []Attribute{
		{
			Key:   "activity",
			Group: GroupSensor,
			Icon:  "mdi:run",
			Value: d.Activity,
			Attrs: d.ActivityAttrs,
		},
		{
			Key:   "calorie",
			Group: GroupSensor,
			Icon:  "mdi:arm-flex",
			Value: d.Calorie,
			Attrs: d.CalorieAttrs,
		},
		{
			Key:   "sleep",
			Group: GroupSensor,
			Icon:  "mdi:sleep",
			Value: d.Sleep,
			Attrs: d.SleepAttrs,
		},
	}
}

func (d *Device) fountainAttributes() []Attribute {
	return []Attribute{
		{
			Key:   "filter_level",
			Group: GroupSensor,
			Unit:  unitPercent,
			Value: d.FilterPercent,
		},
		{
			Key:   "filter_days",
			Group: GroupSensor,
			Unit:  unitDays,
			Value: d.FilterDays,
		},
	}
}
