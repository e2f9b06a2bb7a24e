package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/internal/changedetect"
	"github.com/spotsync/backend/internal/metrics"
	"github.com/spotsync/backend/internal/translator"
	"github.com/spotsync/backend/repository"
	"github.com/spotsync/backend/usecase/ingest"
)

type memFingerprints struct {
	values map[string]string
}

func newMemFingerprints() *memFingerprints {
	return &memFingerprints{values: map[string]string{}}
}

func (m *memFingerprints) key(class repository.FingerprintClass, externalID string) string {
	return string(class) + ":" + externalID
}

func (m *memFingerprints) Get(ctx context.Context, class repository.FingerprintClass, externalID string) (string, bool, error) {
	v, ok := m.values[m.key(class, externalID)]
	return v, ok, nil
}

func (m *memFingerprints) Set(ctx context.Context, class repository.FingerprintClass, externalID, value string) error {
	m.values[m.key(class, externalID)] = value
	return nil
}

func (m *memFingerprints) Exists(ctx context.Context, class repository.FingerprintClass, externalID string) (bool, error) {
	_, ok := m.values[m.key(class, externalID)]
	return ok, nil
}

func (m *memFingerprints) Forget(ctx context.Context, externalID string) error {
	for k := range m.values {
		if strings.HasSuffix(k, ":"+externalID) {
			delete(m.values, k)
		}
	}
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event *domain.FacilityEvent) error { return nil }

// orderedFeeds records which feed endpoint each job hits first, so the
// sequential sweep order is observable. Every page is empty.
type orderedFeeds struct {
	calls   *[]string
	cityErr error
}

func (f *orderedFeeds) record(name string) {
	*f.calls = append(*f.calls, name)
}

func (f *orderedFeeds) FetchPage(ctx context.Context, page, size int) ([]translator.CityParkingItem, error) {
	f.record("city")
	return nil, f.cityErr
}

func (f *orderedFeeds) FetchInfoPage(ctx context.Context, page, size int) ([]translator.TSParkingInfoItem, error) {
	f.record("parking_info")
	return nil, nil
}

func (f *orderedFeeds) FetchOperationPage(ctx context.Context, page, size int) ([]translator.TSParkingOprItem, error) {
	f.record("parking_operation")
	return nil, nil
}

func (f *orderedFeeds) FetchRealtimePage(ctx context.Context, page, size int) ([]translator.TSParkingRealtimeItem, error) {
	f.record("parking_realtime")
	return nil, nil
}

type orderedChargerFeed struct {
	calls *[]string
}

func (f *orderedChargerFeed) FetchPage(ctx context.Context, page, size int) ([]translator.ChargerItem, error) {
	*f.calls = append(*f.calls, "charger_meta")
	return nil, nil
}

func (f *orderedChargerFeed) FetchStatusPage(ctx context.Context, page, size int) ([]translator.ChargerStatusItem, error) {
	*f.calls = append(*f.calls, "charger_status")
	return nil, nil
}

func newSweepService(t *testing.T, calls *[]string, cityErr error) *CollectorService {
	t.Helper()

	detector := changedetect.New(newMemFingerprints(), nil)
	collector := ingest.NewCollector(translator.New(nil), detector, nopPublisher{},
		&orderedFeeds{calls: calls, cityErr: cityErr},
		&orderedFeeds{calls: calls},
		&orderedChargerFeed{calls: calls},
		10, 10, metrics.NewNop(), nil)

	service, err := NewCollectorService(collector, CollectorConfig{}, nil)
	require.NoError(t, err)
	return service
}

func TestRunAll_MetaFeedsBeforeRealtime(t *testing.T) {
	var calls []string
	service := newSweepService(t, &calls, nil)

	require.NoError(t, service.RunAll(context.Background()))

	// Metadata sweeps land first so the availability deltas that follow
	// refer to known facilities.
	assert.Equal(t, []string{
		"city",
		"parking_operation",
		"parking_info",
		"charger_meta",
		"parking_realtime",
		"charger_status",
	}, calls)
}

func TestRunAll_StopsOnFirstJobError(t *testing.T) {
	var calls []string
	service := newSweepService(t, &calls, errors.New("feed offline"))

	err := service.RunAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"city"}, calls)
}
