package pipeline

import (
	"github.com/sarchlab/apexsim/isa"
	"github.com/sarchlab/apexsim/state"
)

// HazardUnit detects RAW hazards against the scoreboard and decides
// whether Decode must stall. APEX has no register forwarding network —
// every RAW hazard here is resolved purely by stalling until the
// scoreboard clears.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// SourcesReady reports whether every source register inst reads is FREE on
// the scoreboard. If any is BUSY, Decode must stall.
func (h *HazardUnit) SourcesReady(inst isa.Instruction, sb *state.Scoreboard) bool {
	if inst.ReadsRs1() && sb.IsBusy(inst.Rs1) {
		return false
	}
	if inst.ReadsRs2() && sb.IsBusy(inst.Rs2) {
		return false
	}
	return true
}
