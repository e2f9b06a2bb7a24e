package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spotsync/backend/usecase/ingest"
)

// CollectorConfig holds the cron expression per collection job. An empty
// expression disables that job.
type CollectorConfig struct {
	CityParking     string
	ParkingMeta     string
	ParkingRealtime string
	ChargerMeta     string
	ChargerStatus   string
	JobTimeout      time.Duration
}

// CollectorService schedules the feed collection jobs. Overlapping runs of
// the same job are skipped, not queued.
type CollectorService struct {
	collector *ingest.Collector
	logger    *zap.Logger
	cron      *cron.Cron
	timeout   time.Duration
}

func NewCollectorService(collector *ingest.Collector, cfg CollectorConfig, logger *zap.Logger) (*CollectorService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}

	cs := &CollectorService{
		collector: collector,
		logger:    logger,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout:   cfg.JobTimeout,
	}

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{"city_parking", cfg.CityParking, collector.CollectCityParking},
		{"parking_meta", cfg.ParkingMeta, collector.CollectParkingMeta},
		{"parking_realtime", cfg.ParkingRealtime, collector.CollectParkingRealtime},
		{"charger_meta", cfg.ChargerMeta, collector.CollectChargerMeta},
		{"charger_status", cfg.ChargerStatus, collector.CollectChargerStatus},
	}
	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		name, run := job.name, job.run
		if _, err := cs.cron.AddFunc(job.schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
			defer cancel()
			if err := run(ctx); err != nil {
				cs.logger.Error("collection job failed", zap.String("job", name), zap.Error(err))
			}
		}); err != nil {
			return nil, err
		}
		logger.Info("collection job registered",
			zap.String("job", name), zap.String("schedule", job.schedule))
	}

	return cs, nil
}

// Start launches the cron scheduler.
func (cs *CollectorService) Start() {
	if cs == nil || cs.cron == nil {
		return
	}
	cs.cron.Start()
	cs.logger.Info("collector service started")
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (cs *CollectorService) Stop(ctx context.Context) {
	if cs == nil || cs.cron == nil {
		return
	}
	stopCtx := cs.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	cs.logger.Info("collector service stopped")
}

// RunAll executes every collection job once, sequentially in dependency
// order: metadata feeds first so the realtime feeds land on known
// facilities. Used for manual backfills.
func (cs *CollectorService) RunAll(ctx context.Context) error {
	runs := []func(context.Context) error{
		cs.collector.CollectCityParking,
		cs.collector.CollectParkingMeta,
		cs.collector.CollectChargerMeta,
		cs.collector.CollectParkingRealtime,
		cs.collector.CollectChargerStatus,
	}
	for _, run := range runs {
		if err := run(ctx); err != nil {
			return err
		}
	}
	return nil
}
