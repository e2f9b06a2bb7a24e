package domain

import (
	"fmt"
	"time"
)

// FacilityKind distinguishes the two facility families served by the platform.
type FacilityKind string

const (
	KindParking  FacilityKind = "PARKING"
	KindCharging FacilityKind = "CHARGING"
)

// Valid reports whether the kind is one of the known values.
func (k FacilityKind) Valid() bool {
	return k == KindParking || k == KindCharging
}

// Location is a validated coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocation validates coordinate ranges. The exact point (0,0) is rejected
// because upstream feeds use it as "unknown".
func NewLocation(latitude, longitude float64) (Location, error) {
	if latitude == 0 && longitude == 0 {
		return Location{}, ErrInvalidCoordinates
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return Location{}, ErrInvalidCoordinates
	}
	return Location{Latitude: latitude, Longitude: longitude}, nil
}

func (l Location) String() string {
	return fmt.Sprintf("(%.6f,%.6f)", l.Latitude, l.Longitude)
}

// CongestionLevel buckets occupancy for display.
type CongestionLevel string

const (
	CongestionEmpty    CongestionLevel = "EMPTY"
	CongestionModerate CongestionLevel = "MODERATE"
	CongestionCrowded  CongestionLevel = "CROWDED"
	CongestionFull     CongestionLevel = "FULL"
)

// Availability holds the capacity counters of a facility.
// The invariant 0 <= Available <= Total holds for every value produced by
// NewAvailability; violating input is clamped, not rejected, so a noisy
// upstream delta never drops the whole record.
type Availability struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

// NewAvailability clamps the counters into a consistent state.
func NewAvailability(total, available int) Availability {
	if total < 0 {
		total = 0
	}
	if available < 0 {
		available = 0
	}
	if available > total {
		available = total
	}
	return Availability{Total: total, Available: available}
}

// OccupancyRate is in [0,1]; an empty facility reports 0.
func (a Availability) OccupancyRate() float64 {
	if a.Total == 0 {
		return 0
	}
	return float64(a.Total-a.Available) / float64(a.Total)
}

func (a Availability) IsFull() bool {
	return a.Total > 0 && a.Available == 0
}

func (a Availability) Congestion() CongestionLevel {
	switch rate := a.OccupancyRate(); {
	case a.IsFull():
		return CongestionFull
	case rate >= 0.8:
		return CongestionCrowded
	case rate >= 0.5:
		return CongestionModerate
	default:
		return CongestionEmpty
	}
}

// Facility is the canonical aggregate for a parking lot or charging point.
// Identity is the source-prefixed ExternalID; ID is a store surrogate.
type Facility struct {
	ID           int64        `json:"id"`
	ExternalID   string       `json:"external_id"`
	Kind         FacilityKind `json:"kind"`
	Name         string       `json:"name"`
	Address      string       `json:"address,omitempty"`
	Location     Location     `json:"location"`
	Availability Availability `json:"availability"`
	Extra        ExtraInfo    `json:"extra,omitempty"`
	CollectedAt  time.Time    `json:"collected_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewFacility builds an aggregate from authoritative full-update fields.
func NewFacility(externalID string, kind FacilityKind, name, address string,
	latitude, longitude float64, total, available int,
	extra ExtraInfo, collectedAt time.Time) (*Facility, error) {

	if externalID == "" {
		return nil, ErrMissingExternalID
	}
	if !kind.Valid() {
		return nil, NewError(ErrCodeInvalid, fmt.Sprintf("unknown facility kind %q", kind))
	}
	loc, err := NewLocation(latitude, longitude)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Facility{
		ExternalID:   externalID,
		Kind:         kind,
		Name:         name,
		Address:      address,
		Location:     loc,
		Availability: NewAvailability(total, available),
		Extra:        extra,
		CollectedAt:  collectedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ApplyFull overwrites every authoritative field from a full update.
func (f *Facility) ApplyFull(name, address string, latitude, longitude float64,
	total, available int, extra ExtraInfo, collectedAt time.Time) error {

	loc, err := NewLocation(latitude, longitude)
	if err != nil {
		return err
	}
	f.Name = name
	f.Address = address
	f.Location = loc
	f.Availability = NewAvailability(total, available)
	f.Extra = extra
	f.CollectedAt = collectedAt
	f.UpdatedAt = time.Now()
	return nil
}

// ApplyAvailability replaces the available count, keeping the known total.
func (f *Facility) ApplyAvailability(available int, collectedAt time.Time) {
	f.Availability = NewAvailability(f.Availability.Total, available)
	f.CollectedAt = collectedAt
	f.UpdatedAt = time.Now()
}

// ApplyOperation overlays operational attributes without touching identity
// or capacity fields.
func (f *Facility) ApplyOperation(extra ExtraInfo, collectedAt time.Time) {
	f.Extra = f.Extra.Merge(extra)
	f.CollectedAt = collectedAt
	f.UpdatedAt = time.Now()
}

func (f *Facility) OccupancyRate() float64 {
	return f.Availability.OccupancyRate()
}

func (f *Facility) IsParking() bool {
	return f.Kind == KindParking
}

func (f *Facility) IsCharging() bool {
	return f.Kind == KindCharging
}
