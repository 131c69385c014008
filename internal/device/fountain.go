package device

// Water fountain (w5) accessors. The fountain reports everything in the
// roster payload; the detail fetch only contributes firmware metadata.

// fountainState derives the fountain's state from warning and run flags
// in priority order. Requires dataMu held (read).
func (d *Device) fountainState() any {
	switch {
	case asBool(d.data["lackWarning"]):
		return "water_lack"
	case asBool(d.data["breakdownWarning"]):
		return "breakdown"
	case asBool(d.data["runStatus"]):
		return "working"
	case asBool(d.data["powerStatus"]):
		return "idle"
	}
	return nil
}

// FilterPercent returns the remaining filter life percentage.
func (d *Device) FilterPercent() any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return d.data["filterPercent"]
}

// FilterDays returns the expected remaining filter days.
func (d *Device) FilterDays() any {
	d.dataMu.RLock()
	defer d.dataMu.RUnlock()
	return d.data["filterExpectedDays"]
}
