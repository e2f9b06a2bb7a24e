package domain

// ExtraInfo carries the optional, source-dependent attributes of a facility:
// typed fields for the facts the search path filters on, plus an open bag for
// everything else a feed reports.
type ExtraInfo struct {
	BaseFee        *int              `json:"base_fee,omitempty"`
	BaseMinutes    *int              `json:"base_minutes,omitempty"`
	UnitFee        *int              `json:"unit_fee,omitempty"`
	UnitMinutes    *int              `json:"unit_minutes,omitempty"`
	DailyMaxFee    *int              `json:"daily_max_fee,omitempty"`
	OperatingHours string            `json:"operating_hours,omitempty"`
	ChargerType    string            `json:"charger_type,omitempty"`
	OutputKW       string            `json:"output_kw,omitempty"`
	Free           *bool             `json:"free,omitempty"`
	Attrs          map[string]string `json:"attrs,omitempty"`
}

// IsZero reports whether nothing was set.
func (e ExtraInfo) IsZero() bool {
	return e.BaseFee == nil && e.BaseMinutes == nil && e.UnitFee == nil &&
		e.UnitMinutes == nil && e.DailyMaxFee == nil && e.OperatingHours == "" &&
		e.ChargerType == "" && e.OutputKW == "" && e.Free == nil && len(e.Attrs) == 0
}

// IsFree reports whether the facility is known to be free of charge. A zero
// base fee also counts.
func (e ExtraInfo) IsFree() bool {
	if e.Free != nil {
		return *e.Free
	}
	return e.BaseFee != nil && *e.BaseFee == 0
}

// Merge overlays the set fields of other onto e and returns the result.
// Unset fields of other never erase existing values; this is what makes delta
// updates safe to apply.
func (e ExtraInfo) Merge(other ExtraInfo) ExtraInfo {
	out := e
	if other.BaseFee != nil {
		out.BaseFee = other.BaseFee
	}
	if other.BaseMinutes != nil {
		out.BaseMinutes = other.BaseMinutes
	}
	if other.UnitFee != nil {
		out.UnitFee = other.UnitFee
	}
	if other.UnitMinutes != nil {
		out.UnitMinutes = other.UnitMinutes
	}
	if other.DailyMaxFee != nil {
		out.DailyMaxFee = other.DailyMaxFee
	}
	if other.OperatingHours != "" {
		out.OperatingHours = other.OperatingHours
	}
	if other.ChargerType != "" {
		out.ChargerType = other.ChargerType
	}
	if other.OutputKW != "" {
		out.OutputKW = other.OutputKW
	}
	if other.Free != nil {
		out.Free = other.Free
	}
	if len(other.Attrs) > 0 {
		attrs := make(map[string]string, len(e.Attrs)+len(other.Attrs))
		for k, v := range e.Attrs {
			attrs[k] = v
		}
		for k, v := range other.Attrs {
			attrs[k] = v
		}
		out.Attrs = attrs
	}
	return out
}
