package feeds

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spotsync/backend/internal/translator"
	"github.com/spotsync/backend/usecase/ingest"
)

// CityParkingClient reads the municipal parking feed.
type CityParkingClient struct {
	client *client
}

var _ ingest.CityParkingFeed = (*CityParkingClient)(nil)

func NewCityParkingClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *CityParkingClient {
	return &CityParkingClient{client: newClient(baseURL, apiKey, timeout, logger)}
}

func (c *CityParkingClient) FetchPage(ctx context.Context, page, size int) ([]translator.CityParkingItem, error) {
	var env struct {
		TotalCount int                          `json:"total_count"`
		Items      []translator.CityParkingItem `json:"items"`
	}
	if err := c.client.getJSON(ctx, "/parking", page, size, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

// TSParkingClient reads the three transport-authority parking feeds.
type TSParkingClient struct {
	client *client
}

var _ ingest.TSParkingFeed = (*TSParkingClient)(nil)

func NewTSParkingClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *TSParkingClient {
	return &TSParkingClient{client: newClient(baseURL, apiKey, timeout, logger)}
}

func (c *TSParkingClient) FetchInfoPage(ctx context.Context, page, size int) ([]translator.TSParkingInfoItem, error) {
	var env struct {
		TotalCount int                            `json:"total_count"`
		Items      []translator.TSParkingInfoItem `json:"items"`
	}
	if err := c.client.getJSON(ctx, "/info", page, size, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

func (c *TSParkingClient) FetchOperationPage(ctx context.Context, page, size int) ([]translator.TSParkingOprItem, error) {
	var env struct {
		TotalCount int                           `json:"total_count"`
		Items      []translator.TSParkingOprItem `json:"items"`
	}
	if err := c.client.getJSON(ctx, "/operation", page, size, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

func (c *TSParkingClient) FetchRealtimePage(ctx context.Context, page, size int) ([]translator.TSParkingRealtimeItem, error) {
	var env struct {
		TotalCount int                                `json:"total_count"`
		Items      []translator.TSParkingRealtimeItem `json:"items"`
	}
	if err := c.client.getJSON(ctx, "/realtime", page, size, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

// ChargerClient reads the EV charging feeds.
type ChargerClient struct {
	client *client
}

var _ ingest.ChargerFeed = (*ChargerClient)(nil)

func NewChargerClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *ChargerClient {
	return &ChargerClient{client: newClient(baseURL, apiKey, timeout, logger)}
}

func (c *ChargerClient) FetchPage(ctx context.Context, page, size int) ([]translator.ChargerItem, error) {
	var env struct {
		TotalCount int                      `json:"total_count"`
		Items      []translator.ChargerItem `json:"items"`
	}
	if err := c.client.getJSON(ctx, "/chargers", page, size, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

func (c *ChargerClient) FetchStatusPage(ctx context.Context, page, size int) ([]translator.ChargerStatusItem, error) {
	var env struct {
		TotalCount int                            `json:"total_count"`
		Items      []translator.ChargerStatusItem `json:"items"`
	}
	if err := c.client.getJSON(ctx, "/status", page, size, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}
