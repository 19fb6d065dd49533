package metrics

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

type Metrics struct {
	mutex     sync.RWMutex
	leases    map[int]int64
	served    map[int]int64
	failed    map[int]int64
	failovers map[int]int64
	holdTimes map[int][]time.Duration
	ready     map[int]bool
	startTime time.Time
}

type Snapshot struct {
	TotalLeases    int64                  `json:"total_leases"`
	TotalServed    int64                  `json:"total_served"`
	TotalFailed    int64                  `json:"total_failed"`
	TotalFailovers int64                  `json:"total_failovers"`
	Uptime         time.Duration          `json:"uptime"`
	Strategy       string                 `json:"strategy"`
	Slots          map[string]SlotMetrics `json:"slots"`
}

type SlotMetrics struct {
	Leases    int64         `json:"leases"`
	Served    int64         `json:"served"`
	Failed    int64         `json:"failed"`
	Failovers int64         `json:"failovers"`
	Ready     bool          `json:"ready"`
	AvgHold   time.Duration `json:"avg_hold"`
	P50Hold   time.Duration `json:"p50_hold"`
	P95Hold   time.Duration `json:"p95_hold"`
	P99Hold   time.Duration `json:"p99_hold"`
}

func (m *Metrics) RecordLease(slotID int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.leases[slotID]++
}

func (m *Metrics) RecordOutcome(slotID int, success bool, hold time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if success {
		m.served[slotID]++
	} else {
		m.failed[slotID]++
	}

	m.holdTimes[slotID] = append(m.holdTimes[slotID], hold)
	if len(m.holdTimes[slotID]) > 1000 {
		m.holdTimes[slotID] = m.holdTimes[slotID][1:]
	}
}

func (m *Metrics) RecordFailover(slotID int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failovers[slotID]++
}

func (m *Metrics) UpdateReadiness(slotID int, ready bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.ready[slotID] = ready
}

func (m *Metrics) Snapshot(strategy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:   time.Since(m.startTime),
		Strategy: strategy,
		Slots:    make(map[string]SlotMetrics),
	}

	allSlots := make(map[int]bool)
	for id := range m.leases {
		allSlots[id] = true
	}
	for id := range m.served {
		allSlots[id] = true
	}
	for id := range m.failed {
		allSlots[id] = true
	}
	for id := range m.failovers {
		allSlots[id] = true
	}
	for id := range m.ready {
		allSlots[id] = true
	}

	for id := range allSlots {
		snap.TotalLeases += m.leases[id]
		snap.TotalServed += m.served[id]
		snap.TotalFailed += m.failed[id]
		snap.TotalFailovers += m.failovers[id]

		sm := SlotMetrics{
			Leases:    m.leases[id],
			Served:    m.served[id],
			Failed:    m.failed[id],
			Failovers: m.failovers[id],
			Ready:     m.ready[id],
		}

		holds := m.holdTimes[id]
		if len(holds) > 0 {
			sorted := make([]time.Duration, len(holds))
			copy(sorted, holds)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			sm.AvgHold = average(sorted)
			sm.P50Hold = percentile(sorted, 0.50)
			sm.P95Hold = percentile(sorted, 0.95)
			sm.P99Hold = percentile(sorted, 0.99)
		}

		snap.Slots[strconv.Itoa(id)] = sm
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		leases:    make(map[int]int64),
		served:    make(map[int]int64),
		failed:    make(map[int]int64),
		failovers: make(map[int]int64),
		holdTimes: make(map[int][]time.Duration),
		ready:     make(map[int]bool),
		startTime: time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
