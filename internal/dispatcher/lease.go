package dispatcher

import (
	"log/slog"
	"sync"
	"time"

	"github.com/steliosk/authpool/internal/metrics"
	"github.com/steliosk/authpool/internal/registry"
)

// Lease is a one-shot claim on a slot for a single unit of work.
type Lease struct {
	slot       registry.SlotView
	token      string
	grantedAt  time.Time
	dispatcher *Dispatcher

	mutex    sync.Mutex
	released bool
}

// Slot returns the slot view captured when the lease was granted.
func (l *Lease) Slot() registry.SlotView {
	return l.slot
}

// Token identifies the lease in logs.
func (l *Lease) Token() string {
	return l.token
}

// Release reports the outcome of the unit of work, returning the slot's
// in-flight count to its pre-lease value. A second call fails with
// ErrReleased and changes nothing. A failure classified as credential
// exhaustion hands the slot to the failover handler after the counters are
// updated; that rotation attempt happens inline but never retries.
func (l *Lease) Release(outcome Outcome) error {
	l.mutex.Lock()
	if l.released {
		l.mutex.Unlock()
		return ErrReleased
	}
	l.released = true
	l.mutex.Unlock()

	d := l.dispatcher
	hold := time.Since(l.grantedAt)

	if err := d.registry.RecordOutcome(l.slot.ID, outcome.Success); err != nil {
		return err
	}

	d.logger.Debug("lease released",
		slog.Int("slot", l.slot.ID),
		slog.String("lease", l.token),
		slog.Bool("success", outcome.Success),
		slog.String("class", string(outcome.Class)))

	d.emit(metrics.Event{
		Type:      metrics.EventOutcomeRecorded,
		Timestamp: time.Now(),
		SlotID:    l.slot.ID,
		Success:   outcome.Success,
		HoldTime:  hold,
	})

	if !outcome.Success && outcome.Class == FailureCredentialExhausted && d.failover != nil {
		d.failover.HandleFailure(l.slot.ID)
	}

	return nil
}
