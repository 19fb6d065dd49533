package registry

import "time"

// slot is one logical worker bound to a credential identity key. Slots are
// owned exclusively by the Registry and mutated only under its lock.
type slot struct {
	id             int
	key            string
	enabled        bool
	ready          bool
	notReadyReason string
	// enabledBeforeRemoval remembers the operator flag while the slot is
	// disabled because its credential disappeared, so a revival restores
	// it instead of force-enabling.
	enabledBeforeRemoval bool
	inFlight       int
	served         uint64
	failed         uint64
	lastSelected   time.Time
}

// SlotView is an immutable copy of a slot's state handed out in snapshots
// and to the statistics surface.
type SlotView struct {
	ID             int       `json:"id"`
	Key            string    `json:"credential"`
	Enabled        bool      `json:"enabled"`
	Ready          bool      `json:"ready"`
	NotReadyReason string    `json:"not_ready_reason,omitempty"`
	InFlight       int       `json:"in_flight"`
	Served         uint64    `json:"served"`
	Failed         uint64    `json:"failed"`
	LastSelected   time.Time `json:"last_selected"`
}

// Eligible reports whether the slot can serve the next unit of work.
func (v SlotView) Eligible() bool {
	return v.Enabled && v.Ready
}

func (s *slot) view() SlotView {
	return SlotView{
		ID:             s.id,
		Key:            s.key,
		Enabled:        s.enabled,
		Ready:          s.ready,
		NotReadyReason: s.notReadyReason,
		InFlight:       s.inFlight,
		Served:         s.served,
		Failed:         s.failed,
		LastSelected:   s.lastSelected,
	}
}

// Snapshot is a consistent point-in-time view of every slot, in ordinal
// order. Strategies decide on snapshots only, never on live state.
type Snapshot struct {
	TakenAt time.Time
	Slots   []SlotView
}

// Eligible returns the enabled+ready subset, preserving ordinal order.
func (s Snapshot) Eligible() []SlotView {
	eligible := make([]SlotView, 0, len(s.Slots))
	for _, v := range s.Slots {
		if v.Eligible() {
			eligible = append(eligible, v)
		}
	}
	return eligible
}
