package strategy

import (
	"github.com/steliosk/authpool/internal/registry"
)

type leastConnectionsStrategy struct{}

func NewLeastConnectionsStrategy() Strategy {
	return &leastConnectionsStrategy{}
}

func (l *leastConnectionsStrategy) Kind() Kind {
	return KindLeastConnections
}

// Select returns the eligible slot with the fewest in-flight leases.
// Ties break by earliest last-selected timestamp, then ordinal id, so the
// same slot is not reselected while equally loaded peers sit idle.
func (l *leastConnectionsStrategy) Select(snap registry.Snapshot) (registry.SlotView, error) {
	eligible := snap.Eligible()
	if len(eligible) == 0 {
		return registry.SlotView{}, ErrNoEligibleSlot
	}

	best := eligible[0]
	for _, v := range eligible[1:] {
		if less(v, best) {
			best = v
		}
	}
	return best, nil
}

func less(a, b registry.SlotView) bool {
	if a.InFlight != b.InFlight {
		return a.InFlight < b.InFlight
	}
	if !a.LastSelected.Equal(b.LastSelected) {
		return a.LastSelected.Before(b.LastSelected)
	}
	return a.ID < b.ID
}
