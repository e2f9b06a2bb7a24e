package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/internal/changedetect"
	"github.com/spotsync/backend/internal/translator"
	"github.com/spotsync/backend/repository"
)

type memFingerprints struct {
	values map[string]string
}

func newMemFingerprints() *memFingerprints {
	return &memFingerprints{values: map[string]string{}}
}

func (s *memFingerprints) key(class repository.FingerprintClass, id string) string {
	return string(class) + ":" + id
}

func (s *memFingerprints) Get(_ context.Context, class repository.FingerprintClass, id string) (string, bool, error) {
	v, ok := s.values[s.key(class, id)]
	return v, ok, nil
}

func (s *memFingerprints) Set(_ context.Context, class repository.FingerprintClass, id, value string) error {
	s.values[s.key(class, id)] = value
	return nil
}

func (s *memFingerprints) Exists(_ context.Context, class repository.FingerprintClass, id string) (bool, error) {
	_, ok := s.values[s.key(class, id)]
	return ok, nil
}

func (s *memFingerprints) Forget(_ context.Context, id string) error {
	for _, class := range []repository.FingerprintClass{
		repository.FingerprintIdentity, repository.FingerprintOperation, repository.FingerprintAvailability,
	} {
		delete(s.values, s.key(class, id))
	}
	return nil
}

type capturingPublisher struct {
	events []*domain.FacilityEvent
	fail   bool
}

func (p *capturingPublisher) Publish(_ context.Context, event *domain.FacilityEvent) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) byType(t domain.EventType) []*domain.FacilityEvent {
	var out []*domain.FacilityEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeCityFeed struct {
	pages [][]translator.CityParkingItem
	calls int
}

func (f *fakeCityFeed) FetchPage(_ context.Context, page, _ int) ([]translator.CityParkingItem, error) {
	f.calls++
	if page-1 < len(f.pages) {
		return f.pages[page-1], nil
	}
	return nil, nil
}

type fakeTSFeed struct {
	info     []translator.TSParkingInfoItem
	opr      []translator.TSParkingOprItem
	realtime []translator.TSParkingRealtimeItem
}

func (f *fakeTSFeed) FetchInfoPage(_ context.Context, page, _ int) ([]translator.TSParkingInfoItem, error) {
	if page == 1 {
		return f.info, nil
	}
	return nil, nil
}

func (f *fakeTSFeed) FetchOperationPage(_ context.Context, page, _ int) ([]translator.TSParkingOprItem, error) {
	if page == 1 {
		return f.opr, nil
	}
	return nil, nil
}

func (f *fakeTSFeed) FetchRealtimePage(_ context.Context, page, _ int) ([]translator.TSParkingRealtimeItem, error) {
	if page == 1 {
		return f.realtime, nil
	}
	return nil, nil
}

func cityItem(code string, total, current int) translator.CityParkingItem {
	return translator.CityParkingItem{
		Code:            code,
		Name:            "lot " + code,
		Address:         "addr " + code,
		Latitude:        37.5,
		Longitude:       127.0,
		TotalSlots:      total,
		CurrentVehicles: current,
	}
}

func newTestCollector(city CityParkingFeed, ts TSParkingFeed, pub EventPublisher) *Collector {
	detector := changedetect.New(newMemFingerprints(), nil)
	return NewCollector(translator.New(nil), detector, pub, city, ts, nil, 2, 10, nil, nil)
}

func TestCollectCityParking_EmitsCreateOncePerFacility(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	feed := &fakeCityFeed{pages: [][]translator.CityParkingItem{
		{cityItem("1", 50, 30), cityItem("2", 20, 20)},
		{cityItem("3", 10, 0)},
	}}
	c := newTestCollector(feed, nil, pub)

	require.NoError(t, c.CollectCityParking(ctx))
	created := pub.byType(domain.EventFacilityCreated)
	assert.Len(t, created, 3)

	// Identical second run is fully suppressed.
	pub.events = nil
	require.NoError(t, c.CollectCityParking(ctx))
	assert.Empty(t, pub.events)
}

func TestCollectCityParking_AvailabilityOnlyChange(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	feed := &fakeCityFeed{pages: [][]translator.CityParkingItem{{cityItem("1", 50, 30)}}}
	c := newTestCollector(feed, nil, pub)

	require.NoError(t, c.CollectCityParking(ctx))
	pub.events = nil

	feed.pages[0][0].CurrentVehicles = 35
	require.NoError(t, c.CollectCityParking(ctx))

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventAvailabilityChanged, pub.events[0].Type)
	assert.Equal(t, 15, pub.events[0].AvailableCount)
}

func TestCollectCityParking_IdentityChangeEmitsFullUpdate(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	feed := &fakeCityFeed{pages: [][]translator.CityParkingItem{{cityItem("1", 50, 30)}}}
	c := newTestCollector(feed, nil, pub)

	require.NoError(t, c.CollectCityParking(ctx))
	pub.events = nil

	feed.pages[0][0].TotalSlots = 60
	require.NoError(t, c.CollectCityParking(ctx))

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventFacilityUpdated, pub.events[0].Type)
	assert.Equal(t, 60, pub.events[0].TotalCount)
}

func TestCollectCityParking_PublishFailureLeavesFingerprintsUncommitted(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{fail: true}
	feed := &fakeCityFeed{pages: [][]translator.CityParkingItem{{cityItem("1", 50, 30)}}}
	c := newTestCollector(feed, nil, pub)

	require.NoError(t, c.CollectCityParking(ctx))
	assert.Empty(t, pub.events)

	// Broker recovers; the same observation re-emits on the next cycle.
	pub.fail = false
	require.NoError(t, c.CollectCityParking(ctx))
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventFacilityCreated, pub.events[0].Type)
}

func TestCollectCityParking_StopsAtShortPage(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	// Page size is 2; a one-item page signals the end.
	feed := &fakeCityFeed{pages: [][]translator.CityParkingItem{{cityItem("1", 50, 30)}}}
	c := newTestCollector(feed, nil, pub)

	require.NoError(t, c.CollectCityParking(ctx))
	assert.Equal(t, 1, feed.calls)
}

func TestCollectCityParking_MaxPagesCap(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}

	pages := make([][]translator.CityParkingItem, 50)
	for i := range pages {
		pages[i] = []translator.CityParkingItem{
			cityItem(string(rune('A'+i))+"0", 10, 5),
			cityItem(string(rune('A'+i))+"1", 10, 5),
		}
	}
	feed := &fakeCityFeed{pages: pages}
	c := newTestCollector(feed, nil, pub)

	require.NoError(t, c.CollectCityParking(ctx))
	assert.Equal(t, 10, feed.calls, "page loop respects the cap")
}

func TestCollectParkingMeta_JoinsOperationRecords(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	fee := 1000
	ts := &fakeTSFeed{
		info: []translator.TSParkingInfoItem{
			{ID: "P1", Name: "north lot", Latitude: 37.5, Longitude: 127.0, TotalCount: 40},
		},
		opr: []translator.TSParkingOprItem{
			{ID: "P1", WeekdayHours: "06:00-23:00", BaseFee: &fee},
		},
	}
	c := newTestCollector(nil, ts, pub)

	require.NoError(t, c.CollectParkingMeta(ctx))
	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, "TS_P1", event.ExternalID)
	assert.Equal(t, "06:00-23:00", event.Extra.OperatingHours)
	require.NotNil(t, event.Extra.BaseFee)
	assert.Equal(t, 1000, *event.Extra.BaseFee)
}

func TestCollectParkingMeta_OperationOnlyChange(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	fee := 1000
	ts := &fakeTSFeed{
		info: []translator.TSParkingInfoItem{
			{ID: "P1", Name: "north lot", Latitude: 37.5, Longitude: 127.0, TotalCount: 40},
		},
		opr: []translator.TSParkingOprItem{{ID: "P1", BaseFee: &fee}},
	}
	c := newTestCollector(nil, ts, pub)

	require.NoError(t, c.CollectParkingMeta(ctx))
	pub.events = nil

	higher := 1500
	ts.opr[0].BaseFee = &higher
	require.NoError(t, c.CollectParkingMeta(ctx))

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventOperationUpdated, pub.events[0].Type)
}

func TestCollectParkingRealtime_SuppressesUnchangedCounts(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	ts := &fakeTSFeed{
		realtime: []translator.TSParkingRealtimeItem{{ID: "P1", AvailableCount: 12}},
	}
	c := newTestCollector(nil, ts, pub)

	require.NoError(t, c.CollectParkingRealtime(ctx))
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventAvailabilityChanged, pub.events[0].Type)
	assert.Equal(t, "TS_P1", pub.events[0].ExternalID)

	pub.events = nil
	require.NoError(t, c.CollectParkingRealtime(ctx))
	assert.Empty(t, pub.events)

	ts.realtime[0].AvailableCount = 11
	require.NoError(t, c.CollectParkingRealtime(ctx))
	require.Len(t, pub.events, 1)
	assert.Equal(t, 11, pub.events[0].AvailableCount)
}

func TestEmitDelete(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	fingerprints := newMemFingerprints()
	detector := changedetect.New(fingerprints, nil)
	c := NewCollector(translator.New(nil), detector, pub, nil, nil, nil, 0, 0, nil, nil)

	require.NoError(t, fingerprints.Set(ctx, repository.FingerprintIdentity, "CITY_1", "abc"))

	require.NoError(t, c.EmitDelete(ctx, "CITY_1"))
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventFacilityDeleted, pub.events[0].Type)

	known, err := detector.Known(ctx, "CITY_1")
	require.NoError(t, err)
	assert.False(t, known)

	assert.Error(t, c.EmitDelete(ctx, ""))
}
