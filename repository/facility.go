package repository

import (
	"context"
	"time"

	"github.com/spotsync/backend/domain"
)

// FacilitySearchFilter drives the store-backed proximity query.
// When HasCenter is false the query degrades to a filtered, unordered page.
type FacilitySearchFilter struct {
	HasCenter     bool
	Lat           float64
	Lng           float64
	RadiusKm      float64
	Kind          domain.FacilityKind
	AvailableOnly bool
	FreeOnly      bool
	Page          int
	Size          int
}

// FacilityHit pairs a facility with its distance from the query center.
type FacilityHit struct {
	Facility   domain.Facility
	DistanceKm *float64
}

// FacilityRepository is the canonical durable store for facility aggregates.
// ExternalID carries a unique constraint; Upsert relies on it.
type FacilityRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.Facility, error)
	// Upsert creates the aggregate on first sight of the external id and
	// overwrites all authoritative fields otherwise. The returned value
	// carries the store-assigned surrogate id.
	Upsert(ctx context.Context, facility *domain.Facility) (*domain.Facility, error)
	// UpdateAvailability replaces only the available count, clamped to the
	// stored total. Returns domain.ErrFacilityNotFound for unknown ids.
	UpdateAvailability(ctx context.Context, externalID string, available int, collectedAt time.Time) (*domain.Facility, error)
	// UpdateExtra overlays operational attributes onto the stored extra.
	UpdateExtra(ctx context.Context, externalID string, extra domain.ExtraInfo, collectedAt time.Time) (*domain.Facility, error)
	Delete(ctx context.Context, externalID string) error
	// Search applies the bounding-box prefilter and exact haversine distance
	// in the store, sorted ascending by distance when a center is given.
	Search(ctx context.Context, filter FacilitySearchFilter) ([]FacilityHit, error)
	CountByKind(ctx context.Context) (map[domain.FacilityKind]int64, error)
	// ScanAll streams every aggregate through fn; used for full reindexing.
	ScanAll(ctx context.Context, fn func(*domain.Facility) error) error
}
