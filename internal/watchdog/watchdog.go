// Package watchdog periodically inspects the registry for leases held in
// flight past a configured age. It only observes and logs; releasing is the
// lease holder's job, so a stuck lease here points at a caller that lost
// its release path.
package watchdog

import (
	"context"
	"log/slog"
	"time"

	"github.com/steliosk/authpool/internal/registry"
)

// Watch scans the registry every interval and warns about slots whose
// in-flight work has been running longer than maxLeaseAge. Returns when ctx
// is cancelled.
func Watch(
	ctx context.Context,
	reg *registry.Registry,
	interval time.Duration,
	maxLeaseAge time.Duration,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("lease watchdog stopped")
			return

		case <-ticker.C:
			snap := reg.Snapshot()
			for _, v := range snap.Slots {
				if v.InFlight == 0 || v.LastSelected.IsZero() {
					continue
				}
				age := snap.TakenAt.Sub(v.LastSelected)
				if age < maxLeaseAge {
					continue
				}
				logger.Warn("lease in flight past watchdog threshold",
					slog.Int("slot", v.ID),
					slog.String("credential", v.Key),
					slog.Int("in_flight", v.InFlight),
					slog.Duration("age", age))
			}
		}
	}
}
