package state_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/state"
)

func TestState(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "State Suite")
}

var _ = Describe("RegisterFile", func() {
	It("reads zero for every register at reset", func() {
		f := &state.RegisterFile{}
		for r := 0; r < state.RegCount; r++ {
			Expect(f.Read(r)).To(Equal(int32(0)))
		}
	})

	It("round-trips a write", func() {
		f := &state.RegisterFile{}
		f.Write(3, 42)
		Expect(f.Read(3)).To(Equal(int32(42)))
	})

	It("panics on an out-of-range register index", func() {
		f := &state.RegisterFile{}
		Expect(func() { f.Read(16) }).To(Panic())
		Expect(func() { f.Write(-1, 0) }).To(Panic())
	})
})

var _ = Describe("Scoreboard", func() {
	It("starts every register FREE", func() {
		s := state.NewScoreboard()
		for r := 0; r < state.RegCount; r++ {
			Expect(s.IsBusy(r)).To(BeFalse())
		}
	})

	It("reserves and frees a register", func() {
		s := state.NewScoreboard()
		s.Reserve(5)
		Expect(s.IsBusy(5)).To(BeTrue())
		s.Free(5)
		Expect(s.IsBusy(5)).To(BeFalse())
	})

	It("tolerates freeing an already-free register", func() {
		s := state.NewScoreboard()
		Expect(func() { s.Free(2) }).NotTo(Panic())
	})
})

var _ = Describe("Flags", func() {
	It("sets Z for a zero result and clears P/N", func() {
		var fl state.Flags
		fl.Set(0)
		Expect(fl.Z).To(BeTrue())
		Expect(fl.P).To(BeFalse())
		Expect(fl.N).To(BeFalse())
	})

	It("sets P for a positive result", func() {
		var fl state.Flags
		fl.Set(7)
		Expect(fl.P).To(BeTrue())
		Expect(fl.Z).To(BeFalse())
		Expect(fl.N).To(BeFalse())
	})

	It("sets N for a negative result", func() {
		var fl state.Flags
		fl.Set(-3)
		Expect(fl.N).To(BeTrue())
		Expect(fl.Z).To(BeFalse())
		Expect(fl.P).To(BeFalse())
	})
})

var _ = Describe("Memory", func() {
	It("starts zeroed", func() {
		m := state.NewMemory()
		Expect(m.NonZero()).To(BeEmpty())
	})

	It("round-trips a write", func() {
		m := state.NewMemory()
		m.Write(100, 10)
		Expect(m.Read(100)).To(Equal(int32(10)))
		Expect(m.NonZero()).To(ConsistOf(state.MemoryCell{Address: 100, Value: 10}))
	})

	It("panics on an out-of-range address", func() {
		m := state.NewMemory()
		Expect(func() { m.Read(4000) }).To(Panic())
		Expect(func() { m.Write(-1, 0) }).To(Panic())
	})
})
