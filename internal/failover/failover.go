package failover

import (
	"log/slog"
	"sync"
	"time"

	"github.com/steliosk/authpool/internal/credential"
	"github.com/steliosk/authpool/internal/metrics"
	"github.com/steliosk/authpool/internal/registry"
)

// State tracks a slot through credential rotation.
type State int

const (
	StateReady   State = iota // serving normally, never rotated
	StateCooling              // failed, waiting for a spare credential
	StateRebound              // serving on a rotated credential
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateCooling:
		return "COOLING"
	case StateRebound:
		return "REBOUND"
	default:
		return "UNKNOWN"
	}
}

const reasonExhausted = "exhausted - no spare credential"

// Controller rotates a failed slot onto the next spare credential. The slot
// is pulled from the eligible set first, so selection never sees it
// mid-rotation; the rotation itself is one PickNext attempt per failure
// event, never a retry loop.
type Controller struct {
	logger    *slog.Logger
	registry  *registry.Registry
	store     *credential.Store
	collector *metrics.Collector

	mutex  sync.Mutex
	states map[int]State
}

// NewController creates a failover controller. collector may be nil.
func NewController(logger *slog.Logger, reg *registry.Registry, store *credential.Store, collector *metrics.Collector) *Controller {
	return &Controller{
		logger:    logger,
		registry:  reg,
		store:     store,
		collector: collector,
		states:    make(map[int]State),
	}
}

// HandleFailure moves the slot to Cooling and tries exactly one rotation.
// On a hit the slot is rebound and ready again with its counters intact,
// and sits in Rebound until its next failure event; on a miss it stays
// Cooling until a later failure event or an explicit rescan re-attempts.
func (c *Controller) HandleFailure(slotID int) {
	if err := c.registry.MarkNotReady(slotID, reasonExhausted); err != nil {
		c.logger.Error("cannot mark slot not ready",
			slog.Int("slot", slotID),
			slog.String("error", err.Error()))
		return
	}
	c.setState(slotID, StateCooling)
	c.emitReady(slotID, false)

	c.tryRebind(slotID)
}

// RetryCooling re-attempts rotation for every slot stuck in Cooling. Called
// after an explicit rescan, when fresh credentials may have appeared.
func (c *Controller) RetryCooling() {
	c.mutex.Lock()
	cooling := make([]int, 0, len(c.states))
	for id, state := range c.states {
		if state == StateCooling {
			cooling = append(cooling, id)
		}
	}
	c.mutex.Unlock()

	for _, id := range cooling {
		c.tryRebind(id)
	}
}

// StateOf returns the rotation state for a slot; slots never seen by the
// controller are Ready.
func (c *Controller) StateOf(slotID int) State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.states[slotID]
}

// Cooling lists the slots currently waiting for a spare credential.
func (c *Controller) Cooling() []int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var ids []int
	for id, state := range c.states {
		if state == StateCooling {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Controller) tryRebind(slotID int) {
	excluding := c.registry.BoundKeys()

	rec, ok := c.store.PickNext(excluding)
	if !ok {
		c.logger.Warn("no spare credential for slot",
			slog.Int("slot", slotID))
		return
	}

	if err := c.registry.Rebind(slotID, rec); err != nil {
		c.logger.Error("rebind failed",
			slog.Int("slot", slotID),
			slog.String("credential", rec.Name),
			slog.String("error", err.Error()))
		return
	}
	if err := c.registry.MarkReady(slotID); err != nil {
		c.logger.Error("cannot mark rebound slot ready",
			slog.Int("slot", slotID),
			slog.String("error", err.Error()))
		return
	}

	c.setState(slotID, StateRebound)
	c.emitReady(slotID, true)

	c.logger.Info("slot rotated to spare credential",
		slog.Int("slot", slotID),
		slog.String("credential", rec.Name))

	if c.collector != nil {
		c.collector.Emit(metrics.Event{
			Type:      metrics.EventFailover,
			Timestamp: time.Now(),
			SlotID:    slotID,
		})
	}
}

func (c *Controller) setState(slotID int, state State) {
	c.mutex.Lock()
	c.states[slotID] = state
	c.mutex.Unlock()
}

func (c *Controller) emitReady(slotID int, ready bool) {
	if c.collector == nil {
		return
	}
	c.collector.Emit(metrics.Event{
		Type:      metrics.EventReadyChanged,
		Timestamp: time.Now(),
		SlotID:    slotID,
		Ready:     ready,
	})
}
