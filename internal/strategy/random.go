package strategy

import (
	"math/rand"

	"github.com/steliosk/authpool/internal/registry"
)

type randomStrategy struct{}

func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}

func (r *randomStrategy) Kind() Kind {
	return KindRandom
}

// Select picks uniformly over the eligible set; every call is independent.
func (r *randomStrategy) Select(snap registry.Snapshot) (registry.SlotView, error) {
	eligible := snap.Eligible()
	if len(eligible) == 0 {
		return registry.SlotView{}, ErrNoEligibleSlot
	}

	return eligible[rand.Intn(len(eligible))], nil
}
