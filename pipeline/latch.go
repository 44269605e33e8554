package pipeline

import "github.com/sarchlab/apexsim/isa"

// StageLatch is the record carried between two adjacent pipeline stages:
// the in-flight instruction plus whatever intermediates have been computed
// for it so far. A fresh cycle propagates the producing stage's latch into
// the consumer's latch; a flush clears HasInsn, turning the latch into a
// bubble.
type StageLatch struct {
	// HasInsn distinguishes a live instruction from a bubble.
	HasInsn bool

	// PC of the instruction this latch carries.
	PC int32

	// Inst is the decoded instruction.
	Inst isa.Instruction

	// Rs1Value, Rs2Value are the operand values read at decode.
	Rs1Value int32
	Rs2Value int32

	// ResultBuffer holds the value computed at execute (ALU result, MOVC
	// immediate, or return address for JALR); loads fill it with the
	// loaded value at memory. Stores carry their value in Rs1Value.
	ResultBuffer int32

	// MemoryAddress is the address computed at execute for loads/stores.
	MemoryAddress int32
}

// Clear turns the latch into a bubble, resetting every field to its zero
// value.
func (l *StageLatch) Clear() {
	*l = StageLatch{}
}
