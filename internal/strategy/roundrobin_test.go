package strategy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/steliosk/authpool/internal/registry"
	"github.com/steliosk/authpool/internal/strategy"
)

var _ = Describe("RoundRobin", func() {
	var (
		strat strategy.Strategy
		reg   *registry.Registry
	)

	BeforeEach(func() {
		strat = strategy.NewRoundRobinStrategy()
		reg = newRegistry("a.json", "b.json", "c.json")
	})

	pick := func() int {
		v, err := strat.Select(reg.Snapshot())
		Expect(err).NotTo(HaveOccurred())
		return v.ID
	}

	Describe("Select", func() {
		Context("with all slots eligible", func() {
			It("should cycle through slots in ordinal order", func() {
				Expect(pick()).To(Equal(0))
				Expect(pick()).To(Equal(1))
				Expect(pick()).To(Equal(2))
				Expect(pick()).To(Equal(0))
				Expect(pick()).To(Equal(1))
			})

			It("should visit every eligible slot exactly once per cycle", func() {
				counts := make(map[int]int)
				for i := 0; i < 300; i++ {
					counts[pick()]++
				}
				Expect(counts[0]).To(Equal(100))
				Expect(counts[1]).To(Equal(100))
				Expect(counts[2]).To(Equal(100))
			})
		})

		Context("when a slot is disabled mid-sequence", func() {
			It("should skip it without disturbing the rotation", func() {
				Expect(pick()).To(Equal(0))
				Expect(pick()).To(Equal(1))

				Expect(reg.SetEnabled(1, false)).To(Succeed())

				Expect(pick()).To(Equal(2))
				Expect(pick()).To(Equal(0))
				Expect(pick()).To(Equal(2))
				Expect(pick()).To(Equal(0))
			})

			It("should not return a slot that became ineligible since it was last picked", func() {
				Expect(pick()).To(Equal(0))

				Expect(reg.SetEnabled(0, false)).To(Succeed())
				Expect(reg.SetEnabled(1, false)).To(Succeed())

				Expect(pick()).To(Equal(2))
				Expect(pick()).To(Equal(2))
			})
		})

		Context("when ineligible slots exist among eligible ones", func() {
			It("should rotate over the eligible subset only", func() {
				Expect(reg.MarkNotReady(0, "cooling")).To(Succeed())

				Expect(pick()).To(Equal(1))
				Expect(pick()).To(Equal(2))
				Expect(pick()).To(Equal(1))
			})
		})

		Context("with no eligible slots", func() {
			It("should fail with ErrNoEligibleSlot", func() {
				for id := 0; id < 3; id++ {
					Expect(reg.SetEnabled(id, false)).To(Succeed())
				}

				_, err := strat.Select(reg.Snapshot())
				Expect(err).To(MatchError(strategy.ErrNoEligibleSlot))
			})

			It("should fail on an empty snapshot", func() {
				_, err := strat.Select(snapshotWith())
				Expect(err).To(MatchError(strategy.ErrNoEligibleSlot))
			})
		})
	})
})
