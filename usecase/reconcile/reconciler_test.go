package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/repository"
)

type memRepo struct {
	nextID     int64
	byExternal map[string]*domain.Facility
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, byExternal: map[string]*domain.Facility{}}
}

func (r *memRepo) GetByExternalID(_ context.Context, externalID string) (*domain.Facility, error) {
	f, ok := r.byExternal[externalID]
	if !ok {
		return nil, domain.ErrFacilityNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *memRepo) Upsert(_ context.Context, facility *domain.Facility) (*domain.Facility, error) {
	if existing, ok := r.byExternal[facility.ExternalID]; ok {
		facility.ID = existing.ID
		facility.CreatedAt = existing.CreatedAt
	} else {
		facility.ID = r.nextID
		r.nextID++
	}
	copied := *facility
	r.byExternal[facility.ExternalID] = &copied
	return facility, nil
}

func (r *memRepo) UpdateAvailability(_ context.Context, externalID string, available int, collectedAt time.Time) (*domain.Facility, error) {
	f, ok := r.byExternal[externalID]
	if !ok {
		return nil, domain.ErrFacilityNotFound
	}
	f.ApplyAvailability(available, collectedAt)
	copied := *f
	return &copied, nil
}

func (r *memRepo) UpdateExtra(_ context.Context, externalID string, extra domain.ExtraInfo, collectedAt time.Time) (*domain.Facility, error) {
	f, ok := r.byExternal[externalID]
	if !ok {
		return nil, domain.ErrFacilityNotFound
	}
	f.ApplyOperation(extra, collectedAt)
	copied := *f
	return &copied, nil
}

func (r *memRepo) Delete(_ context.Context, externalID string) error {
	if _, ok := r.byExternal[externalID]; !ok {
		return domain.ErrFacilityNotFound
	}
	delete(r.byExternal, externalID)
	return nil
}

func (r *memRepo) Search(context.Context, repository.FacilitySearchFilter) ([]repository.FacilityHit, error) {
	return nil, nil
}

func (r *memRepo) CountByKind(context.Context) (map[domain.FacilityKind]int64, error) {
	counts := map[domain.FacilityKind]int64{}
	for _, f := range r.byExternal {
		counts[f.Kind]++
	}
	return counts, nil
}

func (r *memRepo) ScanAll(_ context.Context, fn func(*domain.Facility) error) error {
	for _, f := range r.byExternal {
		copied := *f
		if err := fn(&copied); err != nil {
			return err
		}
	}
	return nil
}

type memIndex struct {
	docs map[int64]domain.SearchDocument
}

func newMemIndex() *memIndex {
	return &memIndex{docs: map[int64]domain.SearchDocument{}}
}

func (i *memIndex) Save(_ context.Context, doc domain.SearchDocument) error {
	i.docs[doc.ID] = doc
	return nil
}

func (i *memIndex) UpdateAvailability(_ context.Context, id int64, available int, updatedAt time.Time) error {
	doc, ok := i.docs[id]
	if !ok {
		return domain.ErrFacilityNotFound
	}
	avail := domain.NewAvailability(doc.TotalCount, available)
	doc.AvailableCount = avail.Available
	doc.OccupancyRate = avail.OccupancyRate()
	doc.UpdatedAt = updatedAt
	i.docs[id] = doc
	return nil
}

func (i *memIndex) Delete(_ context.Context, id int64) error {
	delete(i.docs, id)
	return nil
}

func (i *memIndex) Search(context.Context, repository.SearchQuery) ([]repository.SearchHit, error) {
	return nil, nil
}

func fullEvent(externalID string, total, available int) *domain.FacilityEvent {
	return &domain.FacilityEvent{
		Type:           domain.EventFacilityCreated,
		ExternalID:     externalID,
		Kind:           domain.KindParking,
		Name:           "lot",
		Address:        "somewhere",
		Latitude:       37.5,
		Longitude:      127.0,
		TotalCount:     total,
		AvailableCount: available,
		CollectedAt:    time.Now(),
	}
}

func newTestReconciler(t *testing.T) (*Reconciler, *memRepo, *memIndex) {
	t.Helper()
	repo := newMemRepo()
	index := newMemIndex()
	r := NewReconciler(repo, NewProjector(index, nil), nil, nil, nil)
	return r, repo, index
}

func TestApply_FullEvent_CreatesAndProjects(t *testing.T) {
	ctx := context.Background()
	r, repo, index := newTestReconciler(t)

	outcome, err := r.Apply(ctx, fullEvent("CITY_1", 50, 20))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	stored, err := repo.GetByExternalID(ctx, "CITY_1")
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Availability.Total)
	assert.Equal(t, 20, stored.Availability.Available)

	doc, ok := index.docs[stored.ID]
	require.True(t, ok, "projection written")
	assert.Equal(t, 20, doc.AvailableCount)
}

func TestApply_FullEvent_Replay_Idempotent(t *testing.T) {
	ctx := context.Background()
	r, repo, _ := newTestReconciler(t)

	event := fullEvent("CITY_1", 50, 20)
	_, err := r.Apply(ctx, event)
	require.NoError(t, err)
	first, err := repo.GetByExternalID(ctx, "CITY_1")
	require.NoError(t, err)

	_, err = r.Apply(ctx, event)
	require.NoError(t, err)
	second, err := repo.GetByExternalID(ctx, "CITY_1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "replay keeps the surrogate id")
	assert.Equal(t, first.Availability, second.Availability)
}

func TestApply_Availability_ClampsToStoredTotal(t *testing.T) {
	ctx := context.Background()
	r, repo, index := newTestReconciler(t)

	_, err := r.Apply(ctx, fullEvent("CITY_1", 10, 10))
	require.NoError(t, err)

	outcome, err := r.Apply(ctx, domain.NewAvailabilityEvent("CITY_1", 15, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	stored, err := repo.GetByExternalID(ctx, "CITY_1")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Availability.Available)
	assert.Equal(t, 10, index.docs[stored.ID].AvailableCount)
}

func TestApply_Availability_UnknownFacilitySkipped(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t)

	outcome, err := r.Apply(ctx, domain.NewAvailabilityEvent("TS_missing", 3, time.Now()))
	require.NoError(t, err, "skip is not a failure")
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestApply_Operation_MergesWithoutErasing(t *testing.T) {
	ctx := context.Background()
	r, repo, _ := newTestReconciler(t)

	event := fullEvent("TS_1", 20, 20)
	fee := 1000
	event.Extra = domain.ExtraInfo{BaseFee: &fee, OperatingHours: "09:00-18:00"}
	_, err := r.Apply(ctx, event)
	require.NoError(t, err)

	unitFee := 500
	outcome, err := r.Apply(ctx, domain.NewOperationEvent("TS_1",
		domain.ExtraInfo{UnitFee: &unitFee}, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	stored, err := repo.GetByExternalID(ctx, "TS_1")
	require.NoError(t, err)
	require.NotNil(t, stored.Extra.BaseFee)
	assert.Equal(t, 1000, *stored.Extra.BaseFee)
	require.NotNil(t, stored.Extra.UnitFee)
	assert.Equal(t, 500, *stored.Extra.UnitFee)
	assert.Equal(t, "09:00-18:00", stored.Extra.OperatingHours)
}

func TestApply_Operation_UnknownFacilitySkipped(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t)

	fee := 100
	outcome, err := r.Apply(ctx, domain.NewOperationEvent("TS_missing",
		domain.ExtraInfo{BaseFee: &fee}, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestApply_Delete(t *testing.T) {
	ctx := context.Background()
	r, repo, index := newTestReconciler(t)

	_, err := r.Apply(ctx, fullEvent("CITY_1", 10, 5))
	require.NoError(t, err)
	stored, err := repo.GetByExternalID(ctx, "CITY_1")
	require.NoError(t, err)

	outcome, err := r.Apply(ctx, domain.NewDeleteEvent("CITY_1", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	_, err = repo.GetByExternalID(ctx, "CITY_1")
	assert.ErrorIs(t, err, domain.ErrFacilityNotFound)
	_, ok := index.docs[stored.ID]
	assert.False(t, ok, "projection removed")

	// Deleting again is a no-op skip.
	outcome, err = r.Apply(ctx, domain.NewDeleteEvent("CITY_1", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestApply_CorruptFullEventSkipped(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t)

	event := fullEvent("CITY_1", 10, 5)
	event.Latitude = 0
	event.Longitude = 0

	outcome, err := r.Apply(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestApply_MissingExternalID(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t)

	_, err := r.Apply(ctx, &domain.FacilityEvent{Type: domain.EventFacilityCreated})
	assert.ErrorIs(t, err, domain.ErrMissingExternalID)
}

func TestProjector_ReindexAll(t *testing.T) {
	ctx := context.Background()
	r, repo, index := newTestReconciler(t)

	_, err := r.Apply(ctx, fullEvent("CITY_1", 10, 5))
	require.NoError(t, err)
	_, err = r.Apply(ctx, fullEvent("CITY_2", 20, 8))
	require.NoError(t, err)

	fresh := newMemIndex()
	projector := NewProjector(fresh, nil)
	indexed, err := projector.ReindexAll(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 2, indexed)
	assert.Len(t, fresh.docs, len(index.docs))
}
