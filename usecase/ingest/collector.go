// Package ingest runs the scheduled feed collections. Each job pages through
// an upstream feed, translates records into canonical updates, asks the
// change detector whether anything actually changed, and publishes events
// for the changes only. Fingerprints are committed strictly after a
// confirmed publish, so a publish failure re-emits on the next cycle
// instead of losing the fact.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
	"github.com/spotsync/backend/internal/changedetect"
	"github.com/spotsync/backend/internal/metrics"
	"github.com/spotsync/backend/internal/translator"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 100
)

// Collector owns the collection jobs. Feeds may be nil when a source is not
// configured; the matching job is then a no-op.
type Collector struct {
	translator *translator.Translator
	detector   *changedetect.Detector
	publisher  EventPublisher
	city       CityParkingFeed
	ts         TSParkingFeed
	chargers   ChargerFeed
	pageSize   int
	maxPages   int
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewCollector(tr *translator.Translator, det *changedetect.Detector, pub EventPublisher,
	city CityParkingFeed, ts TSParkingFeed, chargers ChargerFeed,
	pageSize, maxPages int, m *metrics.Metrics, logger *zap.Logger) *Collector {

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		translator: tr,
		detector:   det,
		publisher:  pub,
		city:       city,
		ts:         ts,
		chargers:   chargers,
		pageSize:   pageSize,
		maxPages:   maxPages,
		metrics:    m,
		logger:     logger,
	}
}

// jobStats accumulates per-run counters for the completion log line.
type jobStats struct {
	seen       int
	published  int
	suppressed int
	rejected   int
	failed     int
}

// CollectCityParking ingests the municipal parking feed. The feed carries
// both metadata and live occupancy, so availability is fingerprinted here
// as well.
func (c *Collector) CollectCityParking(ctx context.Context) error {
	if c.city == nil {
		return nil
	}
	start := time.Now()
	var st jobStats

	for page := 1; page <= c.maxPages; page++ {
		items, err := c.city.FetchPage(ctx, page, c.pageSize)
		if err != nil {
			return fmt.Errorf("city parking page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			st.seen++
			update := c.translator.CityParking(item, time.Now())
			if update == nil {
				st.rejected++
				continue
			}
			c.processFull(ctx, update, true, &st)
		}
		if len(items) < c.pageSize {
			break
		}
	}

	c.logStats("city parking collection", start, st)
	return nil
}

// CollectParkingMeta ingests the transport-authority facility feed, joined
// with its operational records. Availability is not fingerprinted on this
// path; the realtime feed owns it.
func (c *Collector) CollectParkingMeta(ctx context.Context) error {
	if c.ts == nil {
		return nil
	}
	start := time.Now()
	var st jobStats

	operations, err := c.fetchOperations(ctx)
	if err != nil {
		return err
	}

	for page := 1; page <= c.maxPages; page++ {
		items, err := c.ts.FetchInfoPage(ctx, page, c.pageSize)
		if err != nil {
			return fmt.Errorf("parking info page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			st.seen++
			var opr *translator.TSParkingOprItem
			if o, ok := operations[item.ID]; ok {
				opr = &o
			}
			update := c.translator.TSParking(item, opr, time.Now())
			if update == nil {
				st.rejected++
				continue
			}
			c.processFull(ctx, update, false, &st)
		}
		if len(items) < c.pageSize {
			break
		}
	}

	c.logStats("parking meta collection", start, st)
	return nil
}

// CollectParkingRealtime ingests the realtime availability counters.
func (c *Collector) CollectParkingRealtime(ctx context.Context) error {
	if c.ts == nil {
		return nil
	}
	start := time.Now()
	var st jobStats

	for page := 1; page <= c.maxPages; page++ {
		items, err := c.ts.FetchRealtimePage(ctx, page, c.pageSize)
		if err != nil {
			return fmt.Errorf("parking realtime page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			st.seen++
			if item.ID == "" {
				st.rejected++
				continue
			}
			c.processAvailability(ctx, translator.TSPrefix+item.ID, item.AvailableCount, time.Now(), &st)
		}
		if len(items) < c.pageSize {
			break
		}
	}

	c.logStats("parking realtime collection", start, st)
	return nil
}

// CollectChargerMeta ingests the full charger list. The list includes each
// charger's current status, so availability is fingerprinted here too; the
// status delta feed keeps it fresh between runs.
func (c *Collector) CollectChargerMeta(ctx context.Context) error {
	if c.chargers == nil {
		return nil
	}
	start := time.Now()
	var st jobStats

	for page := 1; page <= c.maxPages; page++ {
		items, err := c.chargers.FetchPage(ctx, page, c.pageSize)
		if err != nil {
			return fmt.Errorf("charger meta page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			st.seen++
			update := c.translator.Charger(item, time.Now())
			if update == nil {
				st.rejected++
				continue
			}
			c.processFull(ctx, update, true, &st)
		}
		if len(items) < c.pageSize {
			break
		}
	}

	c.logStats("charger meta collection", start, st)
	return nil
}

// CollectChargerStatus ingests the charger status delta feed.
func (c *Collector) CollectChargerStatus(ctx context.Context) error {
	if c.chargers == nil {
		return nil
	}
	start := time.Now()
	var st jobStats

	for page := 1; page <= c.maxPages; page++ {
		items, err := c.chargers.FetchStatusPage(ctx, page, c.pageSize)
		if err != nil {
			return fmt.Errorf("charger status page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			st.seen++
			if item.StationID == "" || item.ChargerID == "" {
				st.rejected++
				continue
			}
			externalID := translator.ChargerExternalID(item.StationID, item.ChargerID)
			c.processAvailability(ctx, externalID, translator.ChargerAvailable(item.Status), time.Now(), &st)
		}
		if len(items) < c.pageSize {
			break
		}
	}

	c.logStats("charger status collection", start, st)
	return nil
}

// EmitDelete publishes a tombstone for a facility that left the upstream
// data set and drops its fingerprints, so a later reappearance counts as a
// create again.
func (c *Collector) EmitDelete(ctx context.Context, externalID string) error {
	if externalID == "" {
		return domain.ErrMissingExternalID
	}
	event := domain.NewDeleteEvent(externalID, time.Now())
	if err := c.publisher.Publish(ctx, event); err != nil {
		return err
	}
	c.metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
	return c.detector.Forget(ctx, externalID)
}

// fetchOperations pages the operational feed into a lookup by facility id.
func (c *Collector) fetchOperations(ctx context.Context) (map[string]translator.TSParkingOprItem, error) {
	operations := make(map[string]translator.TSParkingOprItem)
	for page := 1; page <= c.maxPages; page++ {
		items, err := c.ts.FetchOperationPage(ctx, page, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("parking operation page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			if item.ID == "" {
				continue
			}
			operations[item.ID] = item
		}
		if len(items) < c.pageSize {
			break
		}
	}
	return operations, nil
}

// processFull runs the fingerprint cascade for a full update. An identity
// change wins and emits a full event; otherwise narrower operation and
// availability events are emitted independently.
func (c *Collector) processFull(ctx context.Context, update *domain.FacilityUpdate, withAvailability bool, st *jobStats) {
	idVerdict, idObs, err := c.detector.EvaluateIdentity(ctx, update)
	if err != nil {
		st.failed++
		c.logger.Warn("identity evaluation failed",
			zap.String("external_id", update.ExternalID), zap.Error(err))
		return
	}
	opVerdict, opObs, err := c.detector.EvaluateOperation(ctx, update.ExternalID, update.Extra)
	if err != nil {
		st.failed++
		c.logger.Warn("operation evaluation failed",
			zap.String("external_id", update.ExternalID), zap.Error(err))
		return
	}

	var (
		avVerdict = changedetect.Unchanged
		avObs     changedetect.Observation
	)
	if withAvailability {
		avVerdict, avObs, err = c.detector.EvaluateAvailability(ctx, update.ExternalID, update.AvailableCount)
		if err != nil {
			st.failed++
			c.logger.Warn("availability evaluation failed",
				zap.String("external_id", update.ExternalID), zap.Error(err))
			return
		}
	}

	fullObservations := []changedetect.Observation{idObs, opObs}
	if withAvailability {
		fullObservations = append(fullObservations, avObs)
	}

	switch {
	case idVerdict == changedetect.FirstSeen:
		c.publish(ctx, domain.NewFullEvent(domain.EventFacilityCreated, update), fullObservations, st)
	case idVerdict == changedetect.Changed:
		c.publish(ctx, domain.NewFullEvent(domain.EventFacilityUpdated, update), fullObservations, st)
	default:
		emitted := false
		if opVerdict != changedetect.Unchanged {
			c.publish(ctx, domain.NewOperationEvent(update.ExternalID, update.Extra, update.ObservedAt),
				[]changedetect.Observation{opObs}, st)
			emitted = true
		}
		if avVerdict != changedetect.Unchanged {
			c.publish(ctx, domain.NewAvailabilityEvent(update.ExternalID, update.AvailableCount, update.ObservedAt),
				[]changedetect.Observation{avObs}, st)
			emitted = true
		}
		if !emitted {
			st.suppressed++
			c.metrics.UpdatesSuppressed.Inc()
		}
	}
}

// processAvailability handles one counter observation from a realtime feed.
func (c *Collector) processAvailability(ctx context.Context, externalID string, available int, observedAt time.Time, st *jobStats) {
	verdict, obs, err := c.detector.EvaluateAvailability(ctx, externalID, available)
	if err != nil {
		st.failed++
		c.logger.Warn("availability evaluation failed",
			zap.String("external_id", externalID), zap.Error(err))
		return
	}
	if verdict == changedetect.Unchanged {
		st.suppressed++
		c.metrics.UpdatesSuppressed.Inc()
		return
	}
	c.publish(ctx, domain.NewAvailabilityEvent(externalID, available, observedAt),
		[]changedetect.Observation{obs}, st)
}

// publish writes the event and, only on success, commits the fingerprints
// that produced it. A failed commit is logged and tolerated: the worst case
// is one duplicate event on the next cycle.
func (c *Collector) publish(ctx context.Context, event *domain.FacilityEvent, observations []changedetect.Observation, st *jobStats) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		st.failed++
		c.logger.Warn("event publish failed, fingerprints left uncommitted",
			zap.String("event_type", string(event.Type)),
			zap.String("external_id", event.ExternalID),
			zap.Error(err))
		return
	}
	st.published++
	c.metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()

	for _, obs := range observations {
		if err := c.detector.Commit(ctx, obs); err != nil {
			c.logger.Warn("fingerprint commit failed",
				zap.String("external_id", obs.ExternalID),
				zap.String("class", string(obs.Class)),
				zap.Error(err))
		}
	}
}

func (c *Collector) logStats(job string, start time.Time, st jobStats) {
	c.logger.Info(job+" finished",
		zap.Int("seen", st.seen),
		zap.Int("published", st.published),
		zap.Int("suppressed", st.suppressed),
		zap.Int("rejected", st.rejected),
		zap.Int("failed", st.failed),
		zap.Duration("took", time.Since(start)))
}
