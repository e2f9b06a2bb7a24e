package domain

import "time"

// SearchDocument is the denormalized geo-search projection of a facility.
// It is eventually consistent with the aggregate: it may lag by the window
// between the reconciliation commit and the projection write.
type SearchDocument struct {
	ID             int64        `json:"id"`
	ExternalID     string       `json:"external_id"`
	Kind           FacilityKind `json:"kind"`
	Name           string       `json:"name"`
	Address        string       `json:"address,omitempty"`
	Latitude       float64      `json:"latitude"`
	Longitude      float64      `json:"longitude"`
	TotalCount     int          `json:"total_count"`
	AvailableCount int          `json:"available_count"`
	OccupancyRate  float64      `json:"occupancy_rate"`
	Free           bool         `json:"free"`
	Extra          ExtraInfo    `json:"extra,omitempty"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewSearchDocument projects an aggregate into its search document.
func NewSearchDocument(f *Facility) SearchDocument {
	return SearchDocument{
		ID:             f.ID,
		ExternalID:     f.ExternalID,
		Kind:           f.Kind,
		Name:           f.Name,
		Address:        f.Address,
		Latitude:       f.Location.Latitude,
		Longitude:      f.Location.Longitude,
		TotalCount:     f.Availability.Total,
		AvailableCount: f.Availability.Available,
		OccupancyRate:  f.Availability.OccupancyRate(),
		Free:           f.Extra.IsFree(),
		Extra:          f.Extra,
		UpdatedAt:      f.UpdatedAt,
	}
}
