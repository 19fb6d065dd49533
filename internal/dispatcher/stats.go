package dispatcher

import "github.com/steliosk/authpool/internal/registry"

// Stats is a read-only aggregate for the statistics surface.
type Stats struct {
	Strategy      string              `json:"strategy"`
	TotalSlots    int                 `json:"total_slots"`
	EligibleSlots int                 `json:"eligible_slots"`
	TotalInFlight int                 `json:"total_in_flight"`
	TotalServed   uint64              `json:"total_served"`
	TotalFailed   uint64              `json:"total_failed"`
	Slots         []registry.SlotView `json:"slots"`
}

// Stats snapshots the registry and folds it into per-slot and aggregate
// counters.
func (d *Dispatcher) Stats() Stats {
	snap := d.registry.Snapshot()

	stats := Stats{
		Strategy:   string(d.StrategyKind()),
		TotalSlots: len(snap.Slots),
		Slots:      snap.Slots,
	}
	for _, v := range snap.Slots {
		if v.Eligible() {
			stats.EligibleSlots++
		}
		stats.TotalInFlight += v.InFlight
		stats.TotalServed += v.Served
		stats.TotalFailed += v.Failed
	}
	return stats
}
