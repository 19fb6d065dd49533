package failover_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/steliosk/authpool/internal/credential"
	"github.com/steliosk/authpool/internal/failover"
	"github.com/steliosk/authpool/internal/registry"
	"github.com/steliosk/authpool/internal/strategy"
)

func TestFailover(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Failover Suite")
}

var _ = Describe("Controller", func() {
	var (
		repoDir    string
		store      *credential.Store
		reg        *registry.Registry
		controller *failover.Controller
	)

	writeCredential := func(name string) {
		Expect(os.WriteFile(filepath.Join(repoDir, name), []byte(`{}`), 0o600)).To(Succeed())
	}

	bootstrap := func() {
		records, err := store.Discover()
		Expect(err).NotTo(HaveOccurred())
		reg.Bootstrap(records)
	}

	BeforeEach(func() {
		repoDir = GinkgoT().TempDir()
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		store = credential.NewStore(repoDir, GinkgoT().TempDir(), log)
		reg = registry.New(log)
		controller = failover.NewController(log, reg, store, nil)
	})

	Describe("HandleFailure", func() {
		Context("with a spare credential available", func() {
			BeforeEach(func() {
				writeCredential("a.json")
				writeCredential("b.json")
				bootstrap()

				// Spare uploaded after bootstrap, so no slot is bound to it.
				_, err := store.SaveUpload("c.json", []byte(`{"spare":true}`))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should rebind the failed slot to the spare and mark it ready", func() {
				controller.HandleFailure(0)

				v := reg.Snapshot().Slots[0]
				Expect(v.Key).To(Equal("c.json"))
				Expect(v.Ready).To(BeTrue())
				Expect(v.Eligible()).To(BeTrue())
			})

			It("should report the rotated slot as rebound until it fails again", func() {
				controller.HandleFailure(0)
				Expect(controller.StateOf(0)).To(Equal(failover.StateRebound))
				Expect(controller.Cooling()).To(BeEmpty())

				// Another failure on the rebound slot starts a fresh rotation.
				controller.HandleFailure(0)
				Expect(controller.StateOf(0)).NotTo(Equal(failover.StateReady))
			})

			It("should preserve cumulative counters across the rebind", func() {
				Expect(reg.Lease(0)).To(Succeed())
				Expect(reg.RecordOutcome(0, true)).To(Succeed())
				Expect(reg.Lease(0)).To(Succeed())
				Expect(reg.RecordOutcome(0, false)).To(Succeed())

				controller.HandleFailure(0)

				v := reg.Snapshot().Slots[0]
				Expect(v.Served).To(BeEquivalentTo(1))
				Expect(v.Failed).To(BeEquivalentTo(1))
				Expect(v.ID).To(Equal(0))
			})

			It("should never bind the same credential to two slots", func() {
				controller.HandleFailure(0)
				controller.HandleFailure(1)

				snap := reg.Snapshot()
				// Slot 0 takes the spare; slot 1's pick excludes every bound
				// key, so it lands on the now-unbound a.json.
				Expect(snap.Slots[0].Key).To(Equal("c.json"))
				Expect(snap.Slots[1].Key).To(Equal("a.json"))
				Expect(snap.Slots[0].Key).NotTo(Equal(snap.Slots[1].Key))
			})
		})

		Context("with no spare credential", func() {
			BeforeEach(func() {
				writeCredential("a.json")
				bootstrap()
			})

			It("should leave the slot cooling and excluded from selection", func() {
				controller.HandleFailure(0)

				v := reg.Snapshot().Slots[0]
				Expect(v.Ready).To(BeFalse())
				Expect(v.Eligible()).To(BeFalse())
				Expect(controller.StateOf(0)).To(Equal(failover.StateCooling))
				Expect(controller.Cooling()).To(ConsistOf(0))
			})

			It("should make the next selection fail with no eligible slot", func() {
				controller.HandleFailure(0)

				strat := strategy.NewRoundRobinStrategy()
				_, err := strat.Select(reg.Snapshot())
				Expect(err).To(MatchError(strategy.ErrNoEligibleSlot))
			})
		})
	})

	Describe("RetryCooling", func() {
		BeforeEach(func() {
			writeCredential("a.json")
			bootstrap()
			controller.HandleFailure(0)
		})

		It("should rotate a cooling slot once a spare appears", func() {
			Expect(controller.StateOf(0)).To(Equal(failover.StateCooling))

			_, err := store.SaveUpload("b.json", []byte(`{"spare":true}`))
			Expect(err).NotTo(HaveOccurred())

			controller.RetryCooling()

			v := reg.Snapshot().Slots[0]
			Expect(v.Key).To(Equal("b.json"))
			Expect(v.Eligible()).To(BeTrue())
			Expect(controller.StateOf(0)).To(Equal(failover.StateRebound))
			Expect(controller.Cooling()).To(BeEmpty())
		})

		It("should be a no-op while no spare exists", func() {
			controller.RetryCooling()

			Expect(controller.StateOf(0)).To(Equal(failover.StateCooling))
			Expect(reg.Snapshot().Slots[0].Ready).To(BeFalse())
		})
	})

	Describe("State", func() {
		It("should render state names", func() {
			Expect(failover.StateReady.String()).To(Equal("READY"))
			Expect(failover.StateCooling.String()).To(Equal("COOLING"))
			Expect(failover.StateRebound.String()).To(Equal("REBOUND"))
		})

		It("should default to ready for untouched slots", func() {
			Expect(controller.StateOf(42)).To(Equal(failover.StateReady))
		})
	})
})
