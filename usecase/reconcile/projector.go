package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/repository"
)

// Projector maintains the denormalized search document per aggregate.
// All writes are best-effort: a failed projection is logged and the index
// catches up on the next change or a full reindex, never by rolling back
// the canonical store.
type Projector struct {
	index  repository.SearchIndex
	logger *zap.Logger
}

func NewProjector(index repository.SearchIndex, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{index: index, logger: logger}
}

// Project writes or overwrites the full search document for the aggregate.
func (p *Projector) Project(ctx context.Context, facility *domain.Facility) error {
	doc := domain.NewSearchDocument(facility)
	if err := p.index.Save(ctx, doc); err != nil {
		p.logger.Error("projection write failed",
			zap.String("external_id", facility.ExternalID), zap.Error(err))
		return err
	}
	return nil
}

// ProjectAvailability updates only the availability-derived fields, keeping
// index write amplification low on the partial-update path.
func (p *Projector) ProjectAvailability(ctx context.Context, id int64, available int) error {
	if err := p.index.UpdateAvailability(ctx, id, available, time.Now()); err != nil {
		p.logger.Error("availability projection failed",
			zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// Remove deletes the search document.
func (p *Projector) Remove(ctx context.Context, id int64) error {
	if err := p.index.Delete(ctx, id); err != nil {
		p.logger.Error("projection delete failed", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ReindexAll streams the whole canonical store back into the index.
// Returns how many documents were written.
func (p *Projector) ReindexAll(ctx context.Context, store repository.FacilityRepository) (int, error) {
	var indexed, failed int
	err := store.ScanAll(ctx, func(facility *domain.Facility) error {
		if err := p.index.Save(ctx, domain.NewSearchDocument(facility)); err != nil {
			failed++
			p.logger.Error("reindex write failed",
				zap.String("external_id", facility.ExternalID), zap.Error(err))
			return nil
		}
		indexed++
		return nil
	})
	p.logger.Info("reindex completed", zap.Int("indexed", indexed), zap.Int("failed", failed))
	return indexed, err
}
