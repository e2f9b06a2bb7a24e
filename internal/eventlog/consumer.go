package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spotsync/backend/domain"
)

// Handler processes one delivered event. A returned error is logged and the
// message is committed anyway: this pipeline never retries in place, the
// next poll cycle re-observes whatever is still different.
type Handler func(ctx context.Context, event *domain.FacilityEvent) error

// Consumer reads the facility topic in a consumer group. Each worker owns
// one reader; the group balances partitions across them, so per-key order
// is preserved while different keys process in parallel.
type Consumer struct {
	brokers []string
	topic   string
	group   string
	workers int
	handler Handler
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(brokers []string, topic, group string, workers int, handler Handler, logger *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		brokers: brokers,
		topic:   topic,
		group:   group,
		workers: workers,
		handler: handler,
		logger:  logger,
	}
}

// Start launches the worker readers.
func (c *Consumer) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.run(runCtx, i)
	}
	c.logger.Info("event consumer started",
		zap.String("topic", c.topic),
		zap.String("group", c.group),
		zap.Int("workers", c.workers))
}

// Stop cancels the workers and waits for them to drain, bounded by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) run(ctx context.Context, worker int) {
	defer c.wg.Done()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		GroupID:  c.group,
		Topic:    c.topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	defer reader.Close()

	log := c.logger.With(zap.Int("worker", worker))

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			log.Warn("fetch failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
				continue
			}
		}

		var event domain.FacilityEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("undecodable event dropped",
				zap.String("key", string(msg.Key)), zap.Error(err))
		} else if err := c.handler(ctx, &event); err != nil {
			log.Error("event handling failed",
				zap.String("event_type", string(event.Type)),
				zap.String("external_id", event.ExternalID),
				zap.Error(err))
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Warn("commit failed", zap.Error(err))
		}
	}
}
