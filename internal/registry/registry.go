package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/steliosk/authpool/internal/credential"
)

// ErrUnknownSlot is returned for operations on an ordinal id the registry
// has never created.
var ErrUnknownSlot = errors.New("unknown slot id")

const reasonCredentialRemoved = "credential removed"

// Registry owns the slot set: one slot per discovered credential. Every
// mutation and the snapshot read are serialized behind a single lock, so a
// snapshot is always internally consistent.
type Registry struct {
	mu     sync.Mutex
	slots  []*slot
	byKey  map[string]int
	logger *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		byKey:  make(map[string]int),
		logger: logger,
	}
}

// Bootstrap builds one slot per record in discovery order. Called again it
// is a reconfiguration: identity keys still present keep their ordinal id
// and cumulative counters, new keys get appended slots, and slots whose key
// disappeared are disabled and marked not ready rather than deleted, so
// their stats stay auditable. A key that reappears after removal revives
// its old slot with the enable flag it had before the removal, so an
// operator disable survives the round trip.
func (r *Registry) Bootstrap(records []credential.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	present := make(map[string]bool, len(records))
	for _, rec := range records {
		present[rec.Name] = true

		if id, ok := r.byKey[rec.Name]; ok {
			s := r.slots[id]
			if s.notReadyReason == reasonCredentialRemoved {
				s.enabled = s.enabledBeforeRemoval
				s.ready = true
				s.notReadyReason = ""
				r.logger.Info("slot revived, credential reappeared",
					slog.Int("slot", s.id),
					slog.String("credential", s.key))
			}
			continue
		}

		s := &slot{
			id:      len(r.slots),
			key:     rec.Name,
			enabled: true,
			ready:   true,
		}
		r.slots = append(r.slots, s)
		r.byKey[s.key] = s.id
		r.logger.Info("slot created",
			slog.Int("slot", s.id),
			slog.String("credential", s.key),
			slog.String("tier", string(rec.Tier)))
	}

	for _, s := range r.slots {
		if present[s.key] || s.notReadyReason == reasonCredentialRemoved {
			continue
		}
		s.enabledBeforeRemoval = s.enabled
		s.enabled = false
		s.ready = false
		s.notReadyReason = reasonCredentialRemoved
		r.logger.Warn("slot disabled, credential no longer discovered",
			slog.Int("slot", s.id),
			slog.String("credential", s.key))
	}
}

// SetEnabled toggles the operator enable flag. Takes effect on the next
// selection; in-flight work is untouched.
func (r *Registry) SetEnabled(id int, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return err
	}
	s.enabled = enabled
	r.logger.Info("slot enable flag changed",
		slog.Int("slot", id),
		slog.Bool("enabled", enabled))
	return nil
}

// MarkNotReady pulls a slot out of the eligible set, recording why.
func (r *Registry) MarkNotReady(id int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return err
	}
	s.ready = false
	s.notReadyReason = reason
	r.logger.Warn("slot marked not ready",
		slog.Int("slot", id),
		slog.String("reason", reason))
	return nil
}

// MarkReady returns a slot to the eligible set.
func (r *Registry) MarkReady(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return err
	}
	s.ready = true
	s.notReadyReason = ""
	r.logger.Info("slot marked ready", slog.Int("slot", id))
	return nil
}

// Rebind atomically swaps the slot's bound credential and clears its
// not-ready state. Ordinal id and cumulative counters are preserved.
func (r *Registry) Rebind(id int, rec credential.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return err
	}

	old := s.key
	delete(r.byKey, old)
	s.key = rec.Name
	s.ready = true
	s.notReadyReason = ""
	r.byKey[s.key] = s.id

	r.logger.Info("slot rebound",
		slog.Int("slot", id),
		slog.String("from", old),
		slog.String("to", s.key))
	return nil
}

// Lease increments the slot's in-flight count and stamps last-selected.
// Called by the dispatcher once per granted lease.
func (r *Registry) Lease(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return err
	}
	s.inFlight++
	s.lastSelected = time.Now()
	return nil
}

// RecordOutcome counts one finished unit of work and returns the slot's
// in-flight count to its pre-lease value.
func (r *Registry) RecordOutcome(id int, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(id)
	if err != nil {
		return err
	}
	if success {
		s.served++
	} else {
		s.failed++
	}
	if s.inFlight > 0 {
		s.inFlight--
	}
	return nil
}

// Snapshot returns a consistent copy of every slot in ordinal order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		TakenAt: time.Now(),
		Slots:   make([]SlotView, len(r.slots)),
	}
	for i, s := range r.slots {
		snap.Slots[i] = s.view()
	}
	return snap
}

// BoundKeys returns the identity keys currently bound to any slot,
// regardless of readiness. Failover excludes these when hunting a spare.
func (r *Registry) BoundKeys() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make(map[string]bool, len(r.byKey))
	for key := range r.byKey {
		keys[key] = true
	}
	return keys
}

// Len returns the total slot count, eligible or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *Registry) slot(id int) (*slot, error) {
	if id < 0 || id >= len(r.slots) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSlot, id)
	}
	return r.slots[id], nil
}
