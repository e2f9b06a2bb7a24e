package repository

import (
	"context"
	"time"

	"github.com/spotsync/backend/domain"
)

// SearchQuery describes one proximity query against the index.
type SearchQuery struct {
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

// SearchHit is one ranked result. DistanceKm is only meaningful when the
// query carried a center.
type SearchHit struct {
	Document    domain.SearchDocument
	DistanceKm  float64
	HasDistance bool
}

// SearchIndex is the denormalized geo-queryable projection store.
// All writes are best-effort from the pipeline's point of view: projection
// failures are logged, never rolled back into the canonical store.
type SearchIndex interface {
	// Save creates or fully overwrites the document keyed by its ID.
	Save(ctx context.Context, doc domain.SearchDocument) error
	// UpdateAvailability rewrites only the availability-derived fields,
	// keeping the rest of the document untouched.
	UpdateAvailability(ctx context.Context, id int64, available int, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
	// Search filters by kind/availability/fee, restricts by radial distance
	// and sorts ascending by exact distance when a center is given.
	Search(ctx context.Context, q SearchQuery) ([]SearchHit, error)
}
