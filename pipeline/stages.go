package pipeline

import (
	"github.com/sarchlab/apexsim/btb"
	"github.com/sarchlab/apexsim/isa"
	"github.com/sarchlab/apexsim/state"
)

// FetchStage reads the next instruction out of the static program.
type FetchStage struct {
	program isa.Program
}

// NewFetchStage creates a fetch stage over the given program.
func NewFetchStage(program isa.Program) *FetchStage {
	return &FetchStage{program: program}
}

// Fetch returns the instruction at pc, or ok=false if pc is past the end
// of the program.
func (s *FetchStage) Fetch(pc int32) (inst isa.Instruction, ok bool) {
	return s.program.At(pc)
}

// DecodeStage reads operands, checks the scoreboard for hazards, reserves
// destination registers, and predicts conditional branches.
type DecodeStage struct {
	regs *state.RegisterFile
	sb   *state.Scoreboard
	btb  *btb.Table
	haz  *HazardUnit
}

// NewDecodeStage creates a decode stage wired to the given architectural
// state and branch target buffer.
func NewDecodeStage(regs *state.RegisterFile, sb *state.Scoreboard, table *btb.Table) *DecodeStage {
	return &DecodeStage{regs: regs, sb: sb, btb: table, haz: NewHazardUnit()}
}

// DecodeResult is what Decode produces for one cycle.
type DecodeResult struct {
	// Stall means a source register was BUSY; the latch must not
	// advance to Execute this cycle.
	Stall bool
	// Next is the latch to hand to Execute, valid only if !Stall.
	Next StageLatch
	// Redirect means a conditional branch predicted taken; PC should
	// be set to RedirectPC immediately, with no bubble inserted.
	Redirect   bool
	RedirectPC int32
}

// Decode performs the hazard check, operand read, destination
// reservation, and BTB installation/prediction for conditional branches.
func (s *DecodeStage) Decode(latch StageLatch) DecodeResult {
	inst := latch.Inst

	if !s.haz.SourcesReady(inst, s.sb) {
		return DecodeResult{Stall: true}
	}

	var rs1v, rs2v int32
	if inst.ReadsRs1() {
		rs1v = s.regs.Read(inst.Rs1)
	}
	if inst.ReadsRs2() {
		rs2v = s.regs.Read(inst.Rs2)
	}

	if inst.ReservesRdAtDecode() {
		s.sb.Reserve(inst.Rd)
		if inst.Op == isa.OpLOADP {
			s.sb.Reserve(inst.Rs1)
		}
	}
	if inst.Op == isa.OpSTOREP {
		s.sb.Reserve(inst.Rs2)
	}

	result := DecodeResult{
		Next: StageLatch{
			HasInsn:  true,
			PC:       latch.PC,
			Inst:     inst,
			Rs1Value: rs1v,
			Rs2Value: rs2v,
		},
	}

	if inst.UsesBTB() {
		target := latch.PC + inst.Imm
		s.btb.Install(latch.PC, target, inst.TakenBiased())
		if s.btb.Predict(latch.PC, inst.TakenBiased()) == btb.Taken {
			result.Redirect = true
			result.RedirectPC = target
		}
	}

	return result
}

// ExecuteStage performs ALU computation, address calculation, and branch
// resolution.
type ExecuteStage struct {
	regs  *state.RegisterFile
	sb    *state.Scoreboard
	flags *state.Flags
	btb   *btb.Table
}

// NewExecuteStage creates an execute stage wired to the given
// architectural state and branch target buffer.
func NewExecuteStage(regs *state.RegisterFile, sb *state.Scoreboard, flags *state.Flags, table *btb.Table) *ExecuteStage {
	return &ExecuteStage{regs: regs, sb: sb, flags: flags, btb: table}
}

// ExecuteResult is what Execute produces for one cycle.
type ExecuteResult struct {
	Next StageLatch
	// Flush means the Decode latch must be cleared and a one-cycle
	// fetch bubble inserted before resuming at RedirectPC.
	Flush      bool
	RedirectPC int32
}

// Execute runs the ALU and resolves branches. ALU ops write back and free
// their destination immediately (bypass); loads/stores compute an address;
// JUMP/JALR redirect unconditionally; BZ/BNZ/BP/BNP resolve against the
// BTB and trigger the three-way recovery protocol; BN/BNN resolve directly
// against the flags with no BTB involvement.
func (s *ExecuteStage) Execute(latch StageLatch) ExecuteResult {
	inst := latch.Inst
	next := StageLatch{HasInsn: true, PC: latch.PC, Inst: inst}
	result := ExecuteResult{Next: next}

	switch inst.Op {
	case isa.OpADD, isa.OpSUB, isa.OpMUL, isa.OpAND, isa.OpOR, isa.OpXOR:
		val := computeALU(inst.Op, latch.Rs1Value, latch.Rs2Value)
		s.flags.Set(val)
		s.regs.Write(inst.Rd, val)
		s.sb.Free(inst.Rd)
		result.Next.ResultBuffer = val

	case isa.OpADDL, isa.OpSUBL:
		val := computeALU(inst.Op, latch.Rs1Value, inst.Imm)
		s.flags.Set(val)
		s.regs.Write(inst.Rd, val)
		s.sb.Free(inst.Rd)
		result.Next.ResultBuffer = val

	case isa.OpMOVC:
		s.regs.Write(inst.Rd, inst.Imm)
		s.sb.Free(inst.Rd)
		result.Next.ResultBuffer = inst.Imm

	case isa.OpCMP:
		s.flags.Set(latch.Rs1Value - latch.Rs2Value)

	case isa.OpCML:
		s.flags.Set(latch.Rs1Value - inst.Imm)

	case isa.OpLOAD:
		result.Next.MemoryAddress = latch.Rs1Value + inst.Imm

	case isa.OpLOADP:
		result.Next.MemoryAddress = latch.Rs1Value + inst.Imm
		s.regs.Write(inst.Rs1, latch.Rs1Value+4)
		s.sb.Free(inst.Rs1)

	case isa.OpSTORE:
		result.Next.MemoryAddress = latch.Rs2Value + inst.Imm
		result.Next.Rs1Value = latch.Rs1Value

	case isa.OpSTOREP:
		result.Next.MemoryAddress = latch.Rs2Value + inst.Imm
		result.Next.Rs1Value = latch.Rs1Value
		s.regs.Write(inst.Rs2, latch.Rs2Value+4)
		s.sb.Free(inst.Rs2)

	case isa.OpJUMP:
		result.Flush = true
		result.RedirectPC = latch.Rs1Value + inst.Imm

	case isa.OpJALR:
		result.Next.ResultBuffer = latch.PC + 4
		result.Flush = true
		result.RedirectPC = latch.Rs1Value + inst.Imm

	case isa.OpBZ, isa.OpBNZ, isa.OpBP, isa.OpBNP:
		s.resolveConditional(latch, &result)

	case isa.OpBN:
		if s.flags.N {
			result.Flush = true
			result.RedirectPC = latch.PC + inst.Imm
		}

	case isa.OpBNN:
		if !s.flags.N {
			result.Flush = true
			result.RedirectPC = latch.PC + inst.Imm
		}
	}

	return result
}

// resolveConditional implements the BTB-predicted branch recovery
// protocol: a correct prediction commits quietly, while a misprediction
// flushes the wrong-path instruction and redirects fetch.
func (s *ExecuteStage) resolveConditional(latch StageLatch, result *ExecuteResult) {
	inst := latch.Inst
	takenBiased := inst.TakenBiased()
	target := latch.PC + inst.Imm

	var actual bool
	switch inst.Op {
	case isa.OpBZ:
		actual = s.flags.Z
	case isa.OpBNZ:
		actual = !s.flags.Z
	case isa.OpBP:
		actual = s.flags.P
	case isa.OpBNP:
		actual = !s.flags.P
	}

	predicted := s.btb.Predict(latch.PC, takenBiased)
	s.btb.RecordOutcome(predicted, actual)
	s.btb.Update(latch.PC, actual, target)

	predictedTaken := predicted == btb.Taken
	switch {
	case predictedTaken == actual:
		// Correct prediction: no recovery.
	case predictedTaken && !actual:
		// Predicted taken, actual not-taken: revert the speculative
		// redirect made at decode.
		result.Flush = true
		result.RedirectPC = latch.PC + 4
	default:
		// Predicted not-taken (or NOT-IN-TABLE), actual taken.
		result.Flush = true
		result.RedirectPC = target
	}
}

// MemoryStage performs data memory access for loads and stores.
type MemoryStage struct {
	mem  *state.Memory
	regs *state.RegisterFile
	sb   *state.Scoreboard
}

// NewMemoryStage creates a memory stage wired to the given data memory and
// architectural state.
func NewMemoryStage(mem *state.Memory, regs *state.RegisterFile, sb *state.Scoreboard) *MemoryStage {
	return &MemoryStage{mem: mem, regs: regs, sb: sb}
}

// Access performs data memory reads and writes. Loads commit to the
// register file and free their destination here (data is not available
// before MEM); stores commit to data memory; other opcodes pass through
// unchanged.
func (s *MemoryStage) Access(latch StageLatch) StageLatch {
	next := latch

	switch latch.Inst.Op {
	case isa.OpLOAD, isa.OpLOADP:
		val := s.mem.Read(latch.MemoryAddress)
		s.regs.Write(latch.Inst.Rd, val)
		s.sb.Free(latch.Inst.Rd)
		next.ResultBuffer = val

	case isa.OpSTORE, isa.OpSTOREP:
		s.mem.Write(latch.MemoryAddress, latch.Rs1Value)
	}

	return next
}

// WritebackStage commits the final register write for opcodes whose
// result isn't already observable, and retires the instruction.
type WritebackStage struct {
	regs *state.RegisterFile
	sb   *state.Scoreboard
}

// NewWritebackStage creates a writeback stage wired to the given register
// file and scoreboard.
func NewWritebackStage(regs *state.RegisterFile, sb *state.Scoreboard) *WritebackStage {
	return &WritebackStage{regs: regs, sb: sb}
}

// Writeback retires the instruction. ALU ops, loads, and MOVC already
// committed their result at EX or MEM (see DESIGN.md for the canonical
// single-free policy this implementation picked); JALR's return-address
// write happens here, the only RF write left for Writeback to do. Returns
// whether an instruction retired and whether it was HALT.
func (s *WritebackStage) Writeback(latch StageLatch) (retired, halt bool) {
	if !latch.HasInsn {
		return false, false
	}

	if latch.Inst.Op == isa.OpJALR {
		s.regs.Write(latch.Inst.Rd, latch.ResultBuffer)
		s.sb.Free(latch.Inst.Rd)
	}

	return true, latch.Inst.Op == isa.OpHALT
}
