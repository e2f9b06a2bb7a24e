package searchindex

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/repository"
)

func openTestIndex(t *testing.T) *BoltIndex {
	t.Helper()
	index, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })
	return index
}

func doc(id int64, kind domain.FacilityKind, lat, lng float64, total, available int) domain.SearchDocument {
	avail := domain.NewAvailability(total, available)
	return domain.SearchDocument{
		ID:             id,
		ExternalID:     "EXT-" + string(rune('A'+id)),
		Kind:           kind,
		Name:           "facility",
		Latitude:       lat,
		Longitude:      lng,
		TotalCount:     avail.Total,
		AvailableCount: avail.Available,
		OccupancyRate:  avail.OccupancyRate(),
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestBoltIndex_SaveAndSearchRoundTrip(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	saved := doc(1, domain.KindParking, 37.5665, 126.9780, 50, 30)
	saved.Address = "1 city hall rd"
	require.NoError(t, index.Save(ctx, saved))

	hits, err := index.Search(ctx, repository.SearchQuery{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, saved.ExternalID, hits[0].Document.ExternalID)
	assert.Equal(t, saved.Address, hits[0].Document.Address)
	assert.Equal(t, 30, hits[0].Document.AvailableCount)
	assert.False(t, hits[0].HasDistance)

	count, err := index.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBoltIndex_SaveOverwritesExisting(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Save(ctx, doc(1, domain.KindParking, 37.5, 127.0, 50, 30)))
	updated := doc(1, domain.KindParking, 37.5, 127.0, 60, 10)
	require.NoError(t, index.Save(ctx, updated))

	hits, err := index.Search(ctx, repository.SearchQuery{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 60, hits[0].Document.TotalCount)
	assert.Equal(t, 10, hits[0].Document.AvailableCount)

	count, err := index.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBoltIndex_SearchOrdersByDistance(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	// Distances from Seoul City Hall grow with the id suffix.
	require.NoError(t, index.Save(ctx, doc(3, domain.KindParking, 37.60, 126.98, 10, 5)))
	require.NoError(t, index.Save(ctx, doc(1, domain.KindParking, 37.567, 126.978, 10, 5)))
	require.NoError(t, index.Save(ctx, doc(2, domain.KindParking, 37.58, 126.98, 10, 5)))

	hits, err := index.Search(ctx, repository.SearchQuery{
		HasCenter: true,
		Lat:       37.5665,
		Lng:       126.9780,
		RadiusKm:  10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, int64(1), hits[0].Document.ID)
	assert.Equal(t, int64(2), hits[1].Document.ID)
	assert.Equal(t, int64(3), hits[2].Document.ID)
	for _, hit := range hits {
		assert.True(t, hit.HasDistance)
	}
	assert.LessOrEqual(t, hits[0].DistanceKm, hits[1].DistanceKm)
	assert.LessOrEqual(t, hits[1].DistanceKm, hits[2].DistanceKm)
}

func TestBoltIndex_SearchRadiusExcludesFarDocuments(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Save(ctx, doc(1, domain.KindParking, 37.567, 126.978, 10, 5)))
	// Busan, roughly 320km away.
	require.NoError(t, index.Save(ctx, doc(2, domain.KindParking, 35.1796, 129.0756, 10, 5)))

	hits, err := index.Search(ctx, repository.SearchQuery{
		HasCenter: true,
		Lat:       37.5665,
		Lng:       126.9780,
		RadiusKm:  5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].Document.ID)
}

func TestBoltIndex_SearchFilters(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	parking := doc(1, domain.KindParking, 37.50, 127.00, 20, 5)
	charger := doc(2, domain.KindCharging, 37.50, 127.00, 4, 0)
	freeLot := doc(3, domain.KindParking, 37.50, 127.00, 10, 10)
	freeLot.Free = true
	require.NoError(t, index.Save(ctx, parking))
	require.NoError(t, index.Save(ctx, charger))
	require.NoError(t, index.Save(ctx, freeLot))

	hits, err := index.Search(ctx, repository.SearchQuery{Kind: domain.KindCharging})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(2), hits[0].Document.ID)

	hits, err = index.Search(ctx, repository.SearchQuery{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, hit := range hits {
		assert.Positive(t, hit.Document.AvailableCount)
	}

	hits, err = index.Search(ctx, repository.SearchQuery{FreeOnly: true})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(3), hits[0].Document.ID)
}

func TestBoltIndex_SearchPagination(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	for id := int64(1); id <= 5; id++ {
		require.NoError(t, index.Save(ctx, doc(id, domain.KindParking, 37.5, 127.0, 10, 5)))
	}

	first, err := index.Search(ctx, repository.SearchQuery{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := index.Search(ctx, repository.SearchQuery{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.NotEqual(t, first[0].Document.ID, second[0].Document.ID)

	last, err := index.Search(ctx, repository.SearchQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Len(t, last, 1)

	beyond, err := index.Search(ctx, repository.SearchQuery{Page: 3, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	clamped, err := index.Search(ctx, repository.SearchQuery{Page: -1, Size: -5})
	require.NoError(t, err)
	assert.Len(t, clamped, 5)
}

func TestBoltIndex_UpdateAvailability(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Save(ctx, doc(1, domain.KindParking, 37.5, 127.0, 50, 30)))

	at := time.Now().UTC().Add(time.Minute).Truncate(time.Second)
	require.NoError(t, index.UpdateAvailability(ctx, 1, 12, at))

	hits, err := index.Search(ctx, repository.SearchQuery{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 12, hits[0].Document.AvailableCount)
	assert.Equal(t, 50, hits[0].Document.TotalCount)
	assert.InDelta(t, 0.76, hits[0].Document.OccupancyRate, 0.001)
	assert.True(t, hits[0].Document.UpdatedAt.Equal(at))
}

func TestBoltIndex_UpdateAvailabilityClampsToTotal(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Save(ctx, doc(1, domain.KindParking, 37.5, 127.0, 10, 5)))
	require.NoError(t, index.UpdateAvailability(ctx, 1, 25, time.Now().UTC()))

	hits, err := index.Search(ctx, repository.SearchQuery{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 10, hits[0].Document.AvailableCount)
}

func TestBoltIndex_UpdateAvailabilityUnknownID(t *testing.T) {
	index := openTestIndex(t)

	err := index.UpdateAvailability(context.Background(), 404, 3, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrFacilityNotFound)
}

func TestBoltIndex_Delete(t *testing.T) {
	index := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Save(ctx, doc(1, domain.KindParking, 37.5, 127.0, 10, 5)))
	require.NoError(t, index.Delete(ctx, 1))

	hits, err := index.Search(ctx, repository.SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Deleting an absent document is a no-op.
	require.NoError(t, index.Delete(ctx, 1))

	count, err := index.Size()
	require.NoError(t, err)
	assert.Zero(t, count)
}
