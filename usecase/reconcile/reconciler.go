package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/internal/metrics"
	"github.com/spotsync/backend/repository"
)

// Outcome reports what the reconciler did with an event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)

// Reconciler folds facility events into the canonical store and keeps the
// search projection in step. Apply is idempotent per event payload, so the
// at-least-once delivery of the log is safe to replay.
type Reconciler struct {
	store        repository.FacilityRepository
	projector    *Projector
	fingerprints repository.FingerprintStore
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewReconciler(store repository.FacilityRepository, projector *Projector,
	fingerprints repository.FingerprintStore, m *metrics.Metrics, logger *zap.Logger) *Reconciler {

	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:        store,
		projector:    projector,
		fingerprints: fingerprints,
		metrics:      m,
		logger:       logger,
	}
}

// Apply routes the event by type. Partial events for unknown facilities are
// skipped, not created: a full event for the same facility arrives on the
// next metadata collection and backfills the aggregate.
func (r *Reconciler) Apply(ctx context.Context, event *domain.FacilityEvent) (Outcome, error) {
	if event.ExternalID == "" {
		return OutcomeSkipped, domain.ErrMissingExternalID
	}

	var (
		outcome Outcome
		err     error
	)
	switch {
	case event.Type.IsFull():
		outcome, err = r.applyFull(ctx, event)
	case event.Type == domain.EventAvailabilityChanged || event.Type == domain.EventStatusUpdate:
		outcome, err = r.applyAvailability(ctx, event)
	case event.Type == domain.EventOperationUpdated:
		outcome, err = r.applyOperation(ctx, event)
	case event.Type == domain.EventFacilityDeleted:
		outcome, err = r.applyDelete(ctx, event)
	default:
		r.logger.Warn("unknown event type skipped",
			zap.String("event_type", string(event.Type)),
			zap.String("external_id", event.ExternalID))
		outcome = OutcomeSkipped
	}

	switch {
	case err != nil:
		r.metrics.ReconcileFailed.Inc()
	case outcome == OutcomeApplied:
		r.metrics.ReconcileApplied.Inc()
	default:
		r.metrics.ReconcileSkipped.Inc()
	}
	return outcome, err
}

// Handle adapts Apply to the consumer handler signature.
func (r *Reconciler) Handle(ctx context.Context, event *domain.FacilityEvent) error {
	r.metrics.EventsConsumed.WithLabelValues(string(event.Type)).Inc()
	_, err := r.Apply(ctx, event)
	return err
}

func (r *Reconciler) applyFull(ctx context.Context, event *domain.FacilityEvent) (Outcome, error) {
	facility, err := domain.NewFacility(event.ExternalID, event.Kind, event.Name,
		event.Address, event.Latitude, event.Longitude,
		event.TotalCount, event.AvailableCount, event.Extra, event.CollectedAt)
	if err != nil {
		// The translator already rejected malformed records, so a
		// validation failure here means a corrupt payload on the log.
		r.logger.Warn("full event rejected",
			zap.String("external_id", event.ExternalID), zap.Error(err))
		return OutcomeSkipped, nil
	}

	stored, err := r.store.Upsert(ctx, facility)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("upsert %s: %w", event.ExternalID, err)
	}
	r.projector.Project(ctx, stored)
	return OutcomeApplied, nil
}

func (r *Reconciler) applyAvailability(ctx context.Context, event *domain.FacilityEvent) (Outcome, error) {
	stored, err := r.store.UpdateAvailability(ctx, event.ExternalID, event.AvailableCount, event.CollectedAt)
	if errors.Is(err, domain.ErrFacilityNotFound) {
		r.logger.Debug("availability for unknown facility skipped",
			zap.String("external_id", event.ExternalID))
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("update availability %s: %w", event.ExternalID, err)
	}
	r.projector.ProjectAvailability(ctx, stored.ID, stored.Availability.Available)
	return OutcomeApplied, nil
}

func (r *Reconciler) applyOperation(ctx context.Context, event *domain.FacilityEvent) (Outcome, error) {
	stored, err := r.store.UpdateExtra(ctx, event.ExternalID, event.Extra, event.CollectedAt)
	if errors.Is(err, domain.ErrFacilityNotFound) {
		r.logger.Debug("operation update for unknown facility skipped",
			zap.String("external_id", event.ExternalID))
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("update extra %s: %w", event.ExternalID, err)
	}
	r.projector.Project(ctx, stored)
	return OutcomeApplied, nil
}

func (r *Reconciler) applyDelete(ctx context.Context, event *domain.FacilityEvent) (Outcome, error) {
	stored, err := r.store.GetByExternalID(ctx, event.ExternalID)
	if errors.Is(err, domain.ErrFacilityNotFound) {
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("load %s: %w", event.ExternalID, err)
	}

	if err := r.store.Delete(ctx, event.ExternalID); err != nil {
		return OutcomeSkipped, fmt.Errorf("delete %s: %w", event.ExternalID, err)
	}
	r.projector.Remove(ctx, stored.ID)
	if r.fingerprints != nil {
		if err := r.fingerprints.Forget(ctx, event.ExternalID); err != nil {
			r.logger.Warn("fingerprint cleanup failed",
				zap.String("external_id", event.ExternalID), zap.Error(err))
		}
	}
	return OutcomeApplied, nil
}
