package ingest

import (
	"context"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/internal/translator"
)

// EventPublisher is the outbound port to the event log. Publish must not
// return before the write is confirmed; the collector commits fingerprints
// only afterwards.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.FacilityEvent) error
}

// CityParkingFeed pages through the municipal parking feed. Pages are
// 1-based; an empty page means the end of the data set.
type CityParkingFeed interface {
	FetchPage(ctx context.Context, page, size int) ([]translator.CityParkingItem, error)
}

// TSParkingFeed pages through the three transport-authority feeds.
type TSParkingFeed interface {
	FetchInfoPage(ctx context.Context, page, size int) ([]translator.TSParkingInfoItem, error)
	FetchOperationPage(ctx context.Context, page, size int) ([]translator.TSParkingOprItem, error)
	FetchRealtimePage(ctx context.Context, page, size int) ([]translator.TSParkingRealtimeItem, error)
}

// ChargerFeed pages through the EV charging feeds: the full charger list
// and the lighter status delta feed.
type ChargerFeed interface {
	FetchPage(ctx context.Context, page, size int) ([]translator.ChargerItem, error)
	FetchStatusPage(ctx context.Context, page, size int) ([]translator.ChargerStatusItem, error)
}
