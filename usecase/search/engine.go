// Package search answers proximity queries over the facility projection.
// The engine chain is Service -> CachedEngine -> IndexEngine, with the
// store-backed engine available as a fallback when the index is cold.
package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/repository"
)

// Result is one search hit. DistanceKm is nil when the request had no center.
type Result struct {
	Facility   domain.SearchDocument `json:"facility"`
	DistanceKm *float64              `json:"distance_km,omitempty"`
}

// Engine answers normalized search requests.
type Engine interface {
	Search(ctx context.Context, req Request) ([]Result, error)
}

// IndexEngine serves queries from the embedded projection index.
type IndexEngine struct {
	index repository.SearchIndex
}

func NewIndexEngine(index repository.SearchIndex) *IndexEngine {
	return &IndexEngine{index: index}
}

func (e *IndexEngine) Search(ctx context.Context, req Request) ([]Result, error) {
	query := repository.SearchQuery{
		HasCenter:     req.HasCenter(),
		RadiusKm:      req.RadiusKm,
		Kind:          req.Kind,
		AvailableOnly: req.AvailableOnly,
		FreeOnly:      req.FreeOnly,
		Page:          req.Page,
		Size:          req.Size,
	}
	if req.HasCenter() {
		query.Lat = *req.Lat
		query.Lng = *req.Lng
	}

	hits, err := e.index.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		result := Result{Facility: hit.Document}
		if hit.HasDistance {
			distance := hit.DistanceKm
			result.DistanceKm = &distance
		}
		results = append(results, result)
	}
	return results, nil
}

// StoreEngine serves queries straight from the canonical store. Slower than
// the index but always current; used while the index warms up.
type StoreEngine struct {
	store repository.FacilityRepository
}

func NewStoreEngine(store repository.FacilityRepository) *StoreEngine {
	return &StoreEngine{store: store}
}

func (e *StoreEngine) Search(ctx context.Context, req Request) ([]Result, error) {
	filter := repository.FacilitySearchFilter{
		HasCenter:     req.HasCenter(),
		RadiusKm:      req.RadiusKm,
		Kind:          req.Kind,
		AvailableOnly: req.AvailableOnly,
		FreeOnly:      req.FreeOnly,
		Page:          req.Page,
		Size:          req.Size,
	}
	if req.HasCenter() {
		filter.Lat = *req.Lat
		filter.Lng = *req.Lng
	}

	hits, err := e.store.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Facility:   domain.NewSearchDocument(&hit.Facility),
			DistanceKm: hit.DistanceKm,
		})
	}
	return results, nil
}

// Stats summarizes the canonical store for the operations endpoint.
type Stats struct {
	Total  int64                         `json:"total"`
	ByKind map[domain.FacilityKind]int64 `json:"by_kind"`
}

// Service is the API-facing entry point: it normalizes requests before
// handing them to the engine chain.
type Service struct {
	engine Engine
	store  repository.FacilityRepository
	logger *zap.Logger
}

func NewService(engine Engine, store repository.FacilityRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, store: store, logger: logger}
}

func (s *Service) Search(ctx context.Context, req Request) ([]Result, error) {
	normalized, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	return s.engine.Search(ctx, normalized)
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*domain.Facility, error) {
	if externalID == "" {
		return nil, domain.ErrMissingExternalID
	}
	return s.store.GetByExternalID(ctx, externalID)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	byKind, err := s.store.CountByKind(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{ByKind: byKind}
	for _, count := range byKind {
		stats.Total += count
	}
	return stats, nil
}
