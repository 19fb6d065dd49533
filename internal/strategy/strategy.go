package strategy

import (
	"errors"
	"fmt"

	"github.com/steliosk/authpool/internal/registry"
)

// ErrNoEligibleSlot is returned when the snapshot holds no enabled+ready
// slot. It propagates to the caller of lease(), who decides what to do; it
// is a normal operating state, not a fault.
var ErrNoEligibleSlot = errors.New("no eligible slot")

// Kind enumerates the selection strategies.
type Kind string

const (
	KindRoundRobin       Kind = "round-robin"
	KindRandom           Kind = "random"
	KindLeastConnections Kind = "least-connections"
)

// Kinds lists every valid strategy kind.
func Kinds() []Kind {
	return []Kind{KindRoundRobin, KindRandom, KindLeastConnections}
}

// ParseKind validates a strategy name from config or the API.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q (valid: %v)", s, Kinds())
}

// Strategy picks a slot from a registry snapshot. Implementations keep at
// most a selection cursor of their own; they never touch live slot state.
type Strategy interface {
	Kind() Kind
	Select(snap registry.Snapshot) (registry.SlotView, error)
}

// New builds the strategy for a kind.
func New(kind Kind) (Strategy, error) {
	switch kind {
	case KindRoundRobin:
		return NewRoundRobinStrategy(), nil
	case KindRandom:
		return NewRandomStrategy(), nil
	case KindLeastConnections:
		return NewLeastConnectionsStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (valid: %v)", kind, Kinds())
	}
}
