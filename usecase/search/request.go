package search

import (
	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/pkg/geo"
)

const (
	DefaultRadiusKm = 5.0
	MaxRadiusKm     = 50.0
	DefaultSize     = 20
	MaxSize         = 100
)

// Request is one facility search. Lat/Lng are optional as a pair; without a
// center the query degrades to a filtered, unranked page.
type Request struct {
	Lat           *float64
	Lng           *float64
	RadiusKm      float64
	Kind          domain.FacilityKind
	AvailableOnly bool
	FreeOnly      bool
	Page          int
	Size          int
}

func (r Request) HasCenter() bool {
	return r.Lat != nil && r.Lng != nil
}

// Normalize validates the request and fills defaults. Engines expect only
// normalized requests.
func (r Request) Normalize() (Request, error) {
	if (r.Lat == nil) != (r.Lng == nil) {
		return r, domain.NewError(domain.ErrCodeInvalid, "latitude and longitude must be given together")
	}
	if r.HasCenter() && !geo.ValidCoordinates(*r.Lat, *r.Lng) {
		return r, domain.ErrInvalidCoordinates
	}
	if r.Kind != "" && !r.Kind.Valid() {
		return r, domain.NewError(domain.ErrCodeInvalid, "unknown facility kind")
	}

	if r.RadiusKm <= 0 {
		r.RadiusKm = DefaultRadiusKm
	}
	if r.RadiusKm > MaxRadiusKm {
		r.RadiusKm = MaxRadiusKm
	}
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultSize
	}
	if r.Size > MaxSize {
		r.Size = MaxSize
	}
	return r, nil
}
