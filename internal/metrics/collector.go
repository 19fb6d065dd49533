package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventLeaseGranted    EventType = "lease_granted"
	EventOutcomeRecorded EventType = "outcome_recorded"
	EventFailover        EventType = "failover"
	EventReadyChanged    EventType = "ready_changed"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	SlotID    int
	Success   bool
	HoldTime  time.Duration
	Ready     bool
}

// Collector consumes slot events off a buffered channel so the lease path
// never blocks on bookkeeping. Remaining events are drained on shutdown.
type Collector struct {
	eventCh chan Event
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit enqueues an event, dropping it if the buffer is full.
func (c *Collector) Emit(event Event) {
	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("metrics collector started")
	defer c.logger.Info("metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventLeaseGranted:
		c.metrics.RecordLease(event.SlotID)

	case EventOutcomeRecorded:
		c.metrics.RecordOutcome(event.SlotID, event.Success, event.HoldTime)

	case EventFailover:
		c.metrics.RecordFailover(event.SlotID)

	case EventReadyChanged:
		c.metrics.UpdateReadiness(event.SlotID, event.Ready)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(strategy string) Snapshot {
	return c.metrics.Snapshot(strategy)
}
