package strategy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/steliosk/authpool/internal/strategy"
)

var _ = Describe("Random", func() {
	var strat strategy.Strategy

	BeforeEach(func() {
		strat = strategy.NewRandomStrategy()
	})

	Describe("Select", func() {
		It("should pick an eligible slot", func() {
			snap := snapshotWith(eligibleSlot(0), eligibleSlot(1), eligibleSlot(2))

			v, err := strat.Select(snap)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.ID).To(BeElementOf(0, 1, 2))
		})

		It("should never pick an ineligible slot", func() {
			disabled := eligibleSlot(1)
			disabled.Enabled = false
			snap := snapshotWith(eligibleSlot(0), disabled, eligibleSlot(2))

			for i := 0; i < 100; i++ {
				v, err := strat.Select(snap)
				Expect(err).NotTo(HaveOccurred())
				Expect(v.ID).NotTo(Equal(1))
			}
		})

		It("should spread selections across eligible slots over many calls", func() {
			snap := snapshotWith(eligibleSlot(0), eligibleSlot(1), eligibleSlot(2))

			seen := make(map[int]bool)
			for i := 0; i < 200; i++ {
				v, err := strat.Select(snap)
				Expect(err).NotTo(HaveOccurred())
				seen[v.ID] = true
			}
			Expect(seen).To(HaveLen(3))
		})

		It("should fail with ErrNoEligibleSlot on an empty set", func() {
			_, err := strat.Select(snapshotWith())
			Expect(err).To(MatchError(strategy.ErrNoEligibleSlot))
		})
	})
})
