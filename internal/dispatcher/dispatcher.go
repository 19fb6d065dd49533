package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/steliosk/authpool/internal/metrics"
	"github.com/steliosk/authpool/internal/registry"
	"github.com/steliosk/authpool/internal/strategy"
)

// ErrReleased is returned when a lease is released more than once.
var ErrReleased = errors.New("lease already released")

// FailoverHandler reacts to a credential-exhaustion failure on a slot.
// The call must not block the releasing caller beyond a single rotation
// attempt.
type FailoverHandler interface {
	HandleFailure(slotID int)
}

// Dispatcher is the entry point for the work-execution path: it snapshots
// the registry, asks the configured strategy for a slot and hands back a
// one-shot lease. The strategy can be hot-swapped; in-flight leases are
// not disturbed.
type Dispatcher struct {
	logger    *slog.Logger
	registry  *registry.Registry
	failover  FailoverHandler
	collector *metrics.Collector

	// mutex serializes the whole lease path (snapshot, selection,
	// in-flight increment) as well as strategy swaps.
	mutex sync.Mutex
	strat strategy.Strategy
}

// New creates a dispatcher. failover and collector may be nil.
func New(logger *slog.Logger, reg *registry.Registry, strat strategy.Strategy, failover FailoverHandler, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		logger:    logger,
		registry:  reg,
		failover:  failover,
		collector: collector,
		strat:     strat,
	}
}

// Lease selects a slot and claims it for one unit of work. The snapshot,
// the strategy decision and the in-flight increment happen under one lock,
// so concurrent callers never decide on the same stale counts: the second
// lease always sees the first one's increment. The returned lease must be
// released exactly once; prefer Do, which guarantees that on every exit
// path.
func (d *Dispatcher) Lease() (*Lease, error) {
	d.mutex.Lock()
	snap := d.registry.Snapshot()
	chosen, err := d.strat.Select(snap)
	if err != nil {
		d.mutex.Unlock()
		return nil, err
	}
	err = d.registry.Lease(chosen.ID)
	d.mutex.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reserve slot %d: %w", chosen.ID, err)
	}

	lease := &Lease{
		slot:       chosen,
		token:      uuid.NewString(),
		grantedAt:  time.Now(),
		dispatcher: d,
	}

	d.logger.Debug("lease granted",
		slog.Int("slot", chosen.ID),
		slog.String("credential", chosen.Key),
		slog.String("lease", lease.token))

	d.emit(metrics.Event{
		Type:      metrics.EventLeaseGranted,
		Timestamp: lease.grantedAt,
		SlotID:    chosen.ID,
	})

	return lease, nil
}

// Do runs one unit of work through a scoped lease. The release path runs on
// every exit, including panic and context cancellation, so the slot's
// in-flight count never leaks. A nil error means a lease was granted and fn
// ran; fn's own outcome lands in the slot counters.
func (d *Dispatcher) Do(ctx context.Context, fn func(registry.SlotView) Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lease, err := d.Lease()
	if err != nil {
		return err
	}

	// Released as a transient failure unless fn finishes and overwrites it.
	outcome := Failed(FailureTransient)
	defer func() {
		if err := lease.Release(outcome); err != nil && !errors.Is(err, ErrReleased) {
			d.logger.Error("lease release failed",
				slog.Int("slot", lease.slot.ID),
				slog.String("error", err.Error()))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	outcome = fn(lease.Slot())
	return nil
}

// SetStrategy hot-swaps the active strategy. Takes effect on the next
// Lease call.
func (d *Dispatcher) SetStrategy(kind strategy.Kind) error {
	strat, err := strategy.New(kind)
	if err != nil {
		return err
	}

	d.mutex.Lock()
	d.strat = strat
	d.mutex.Unlock()

	d.logger.Info("strategy changed", slog.String("strategy", string(kind)))
	return nil
}

// StrategyKind returns the active strategy's kind.
func (d *Dispatcher) StrategyKind() strategy.Kind {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.strat.Kind()
}

func (d *Dispatcher) emit(event metrics.Event) {
	if d.collector == nil {
		return
	}
	d.collector.Emit(event)
}
