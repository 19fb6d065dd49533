package strategy

import (
	"sync"

	"github.com/steliosk/authpool/internal/registry"
)

type roundRobinStrategy struct {
	mu   sync.Mutex
	last int // ordinal id of the last returned slot, -1 before the first pick
}

func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{last: -1}
}

func (rb *roundRobinStrategy) Kind() Kind {
	return KindRoundRobin
}

// Select returns the next eligible slot after the last returned ordinal,
// wrapping. A slot that became ineligible since the previous call is
// skipped, not returned; snapshots arrive in ordinal order already.
func (rb *roundRobinStrategy) Select(snap registry.Snapshot) (registry.SlotView, error) {
	eligible := snap.Eligible()
	if len(eligible) == 0 {
		return registry.SlotView{}, ErrNoEligibleSlot
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	chosen := eligible[0]
	for _, v := range eligible {
		if v.ID > rb.last {
			chosen = v
			break
		}
	}

	rb.last = chosen.ID
	return chosen, nil
}
