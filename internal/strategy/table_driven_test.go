package strategy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/steliosk/authpool/internal/strategy"
)

var _ = Describe("Table-Driven Strategy Tests", func() {
	DescribeTable("ParseKind accepts every advertised kind",
		func(name string, expected strategy.Kind) {
			kind, err := strategy.ParseKind(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(expected))
		},
		Entry("round-robin", "round-robin", strategy.KindRoundRobin),
		Entry("random", "random", strategy.KindRandom),
		Entry("least-connections", "least-connections", strategy.KindLeastConnections),
	)

	It("should reject unknown kinds", func() {
		_, err := strategy.ParseKind("weighted-round-robin")
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("New builds every kind",
		func(kind strategy.Kind) {
			strat, err := strategy.New(kind)
			Expect(err).NotTo(HaveOccurred())
			Expect(strat).NotTo(BeNil())
			Expect(strat.Kind()).To(Equal(kind))
		},
		Entry("round-robin", strategy.KindRoundRobin),
		Entry("random", strategy.KindRandom),
		Entry("least-connections", strategy.KindLeastConnections),
	)

	DescribeTable("every strategy selects only eligible slots",
		func(kind strategy.Kind) {
			strat, err := strategy.New(kind)
			Expect(err).NotTo(HaveOccurred())

			reg := newRegistry("a.json", "b.json", "c.json")
			Expect(reg.MarkNotReady(1, "cooling")).To(Succeed())

			for i := 0; i < 30; i++ {
				v, err := strat.Select(reg.Snapshot())
				Expect(err).NotTo(HaveOccurred())
				Expect(v.ID).NotTo(Equal(1))
				Expect(v.Eligible()).To(BeTrue())
			}
		},
		Entry("round-robin", strategy.KindRoundRobin),
		Entry("random", strategy.KindRandom),
		Entry("least-connections", strategy.KindLeastConnections),
	)
})
