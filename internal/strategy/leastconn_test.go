package strategy_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/steliosk/authpool/internal/registry"
	"github.com/steliosk/authpool/internal/strategy"
)

var _ = Describe("LeastConnections", func() {
	var strat strategy.Strategy

	BeforeEach(func() {
		strat = strategy.NewLeastConnectionsStrategy()
	})

	busySlot := func(id, inFlight int, lastSelected time.Time) registry.SlotView {
		v := eligibleSlot(id)
		v.InFlight = inFlight
		v.LastSelected = lastSelected
		return v
	}

	Describe("Select", func() {
		It("should pick the slot with the fewest in-flight leases", func() {
			snap := snapshotWith(
				busySlot(0, 2, time.Time{}),
				busySlot(1, 1, time.Time{}),
				busySlot(2, 3, time.Time{}),
			)

			v, err := strat.Select(snap)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.ID).To(Equal(1))
		})

		It("should break in-flight ties by earliest last-selected", func() {
			earlier := time.Now().Add(-time.Minute)
			later := time.Now()
			snap := snapshotWith(
				busySlot(0, 1, later),
				busySlot(1, 1, earlier),
			)

			v, err := strat.Select(snap)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.ID).To(Equal(1))
		})

		It("should break full ties by ordinal id", func() {
			stamp := time.Now()
			snap := snapshotWith(
				busySlot(2, 1, stamp),
				busySlot(0, 1, stamp),
				busySlot(1, 1, stamp),
			)

			v, err := strat.Select(snap)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.ID).To(Equal(0))
		})

		It("should ignore ineligible slots entirely", func() {
			idle := busySlot(0, 0, time.Time{})
			idle.Ready = false
			snap := snapshotWith(idle, busySlot(1, 5, time.Time{}))

			v, err := strat.Select(snap)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.ID).To(Equal(1))
		})

		It("should distribute across slots under concurrent leases with no releases", func() {
			reg := newRegistry("a.json", "b.json", "c.json")

			counts := make(map[int]int)
			for i := 0; i < 9; i++ {
				v, err := strat.Select(reg.Snapshot())
				Expect(err).NotTo(HaveOccurred())
				Expect(reg.Lease(v.ID)).To(Succeed())
				counts[v.ID]++
			}

			Expect(counts[0]).To(Equal(3))
			Expect(counts[1]).To(Equal(3))
			Expect(counts[2]).To(Equal(3))
		})

		It("should fail with ErrNoEligibleSlot on an empty set", func() {
			_, err := strat.Select(snapshotWith())
			Expect(err).To(MatchError(strategy.ErrNoEligibleSlot))
		})
	})
})
