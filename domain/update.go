package domain

import "time"

// FacilityUpdate is the canonical representation of one upstream observation.
// It only lives between the translator and the change detector; it is never
// stored.
//
// A full update carries every field as authoritative. A partial update (delta)
// only vouches for AvailableCount and the set fields of Extra; absent fields
// must not overwrite existing state downstream.
type FacilityUpdate struct {
	ExternalID     string
	Kind           FacilityKind
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	TotalCount     int
	AvailableCount int
	Extra          ExtraInfo
	ObservedAt     time.Time
	Partial        bool
}
