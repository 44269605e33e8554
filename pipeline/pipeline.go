// Package pipeline provides APEX's 5-stage pipeline model for
// cycle-accurate simulation.
//
// The pipeline implements the classic 5-stage design:
//   - Fetch (IF): read the next instruction from the program
//   - Decode (ID): hazard check, register read, destination reservation,
//     branch prediction
//   - Execute (EX): ALU operations, address calculation, branch resolution
//   - Memory (MEM): load/store data memory access
//   - Writeback (WB): commit remaining register writes, retire
//
// There is no forwarding network: RAW hazards are resolved purely by a
// per-register scoreboard that stalls Decode until a producer frees its
// destination (see pipeline.HazardUnit).
package pipeline

import (
	"github.com/sarchlab/apexsim/btb"
	"github.com/sarchlab/apexsim/isa"
	"github.com/sarchlab/apexsim/state"
)

// Pipeline represents APEX's 5-stage instruction pipeline.
type Pipeline struct {
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	// Pipeline latches, one per stage boundary.
	ifid  StageLatch
	idex  StageLatch
	exmem StageLatch
	memwb StageLatch

	regs  *state.RegisterFile
	sb    *state.Scoreboard
	flags *state.Flags
	mem   *state.Memory
	btb   *btb.Table

	pc          int32
	fetchActive bool

	cycleCount       uint64
	instructionCount uint64
	stallCount       uint64
	branchCount      uint64
	flushCount       uint64

	halted bool
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithBTB supplies a pre-built branch target buffer instead of a fresh
// one, letting a BTB accumulate history across multiple runs.
func WithBTB(table *btb.Table) PipelineOption {
	return func(p *Pipeline) {
		p.btb = table
	}
}

// NewPipeline creates a new 5-stage pipeline over the given program and
// architectural state.
func NewPipeline(program isa.Program, regs *state.RegisterFile, sb *state.Scoreboard, flags *state.Flags, mem *state.Memory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		regs:        regs,
		sb:          sb,
		flags:       flags,
		mem:         mem,
		btb:         btb.New(),
		pc:          isa.CodeBase,
		fetchActive: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.fetchStage = NewFetchStage(program)
	p.decodeStage = NewDecodeStage(regs, sb, p.btb)
	p.executeStage = NewExecuteStage(regs, sb, flags, p.btb)
	p.memoryStage = NewMemoryStage(mem, regs, sb)
	p.writebackStage = NewWritebackStage(regs, sb)

	return p
}

// SetPC sets the program counter (entry point). Code begins at
// isa.CodeBase by default.
func (p *Pipeline) SetPC(pc int32) {
	p.pc = pc
}

// PC returns the current program counter.
func (p *Pipeline) PC() int32 {
	return p.pc
}

// Halted returns true once a HALT has retired from Writeback.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// BTB returns the pipeline's branch target buffer, for inspection.
func (p *Pipeline) BTB() *btb.Table {
	return p.btb
}

// Stats holds pipeline performance statistics.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Branches     uint64
	Flushes      uint64
	CPI          float64
}

// Stats returns pipeline performance statistics.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Cycles:       p.cycleCount,
		Instructions: p.instructionCount,
		Stalls:       p.stallCount,
		Branches:     p.branchCount,
		Flushes:      p.flushCount,
	}
	if s.Instructions > 0 {
		s.CPI = float64(s.Cycles) / float64(s.Instructions)
	}
	return s
}

// Tick advances the pipeline by one cycle, running the five stages in
// reverse order (WB, MEM, EX, DEC, FE), so each stage reads the latch its
// producer left last cycle and writes the latch its consumer will read
// next cycle.
//
// There is deliberately no current/next double-buffering of the four
// latches: within one Tick each stage consumes the latch its predecessor
// populated *before* that predecessor's successor overwrites it, which is
// exactly the ordering guarantee the reverse call order provides (mirrors
// apex_cpu.c's single-struct-per-latch design). A branch flush relies on
// this: Execute clears the decode-facing latch in place so Decode, running
// immediately after in the same Tick, sees no instruction this cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.cycleCount++

	if p.doWriteback() {
		p.halted = true
		return
	}

	p.doMemory()
	flush, flushTarget := p.doExecute()

	if flush {
		p.branchCount++
		p.flushCount++
		p.ifid.Clear()
		p.pc = flushTarget
		p.fetchActive = true
	}

	stalled, decodeRedirect, decodeTarget := p.doDecode()
	if stalled {
		p.stallCount++
	}
	if decodeRedirect {
		p.pc = decodeTarget
	}

	p.doFetch(flush, stalled)
}

func (p *Pipeline) doWriteback() (halt bool) {
	retired, halt := p.writebackStage.Writeback(p.memwb)
	if retired {
		p.instructionCount++
	}
	return halt
}

func (p *Pipeline) doMemory() {
	if !p.exmem.HasInsn {
		p.memwb.Clear()
		return
	}
	p.memwb = p.memoryStage.Access(p.exmem)
}

func (p *Pipeline) doExecute() (flush bool, redirectPC int32) {
	if !p.idex.HasInsn {
		p.exmem.Clear()
		return false, 0
	}
	result := p.executeStage.Execute(p.idex)
	p.exmem = result.Next
	return result.Flush, result.RedirectPC
}

func (p *Pipeline) doDecode() (stalled, redirect bool, redirectPC int32) {
	if !p.ifid.HasInsn {
		p.idex.Clear()
		return false, false, 0
	}

	result := p.decodeStage.Decode(p.ifid)
	if result.Stall {
		p.idex.Clear()
		return true, false, 0
	}

	p.idex = result.Next
	return false, result.Redirect, result.RedirectPC
}

func (p *Pipeline) doFetch(flushed, stalled bool) {
	switch {
	case flushed:
		// One-cycle bubble: the redirect already landed in p.pc; the
		// corrected fetch happens next Tick.
		p.ifid.Clear()
	case stalled:
		// Re-present the same instruction; PC does not advance, and
		// the latch is not forwarded to Decode beyond what is already
		// sitting there.
	case !p.fetchActive:
		p.ifid.Clear()
	default:
		inst, ok := p.fetchStage.Fetch(p.pc)
		if !ok {
			p.ifid.Clear()
			return
		}
		p.ifid = StageLatch{HasInsn: true, PC: p.pc, Inst: inst}
		if inst.Op == isa.OpHALT {
			p.fetchActive = false
		}
		p.pc += isa.InstructionStride
	}
}

// Run executes the pipeline until HALT retires. Returns the number of
// cycles simulated.
func (p *Pipeline) Run() uint64 {
	for !p.halted {
		p.Tick()
	}
	return p.cycleCount
}

// RunCycles executes the pipeline for up to n cycles, stopping early if it
// halts. Returns true if still running (not halted) after the call.
func (p *Pipeline) RunCycles(n uint64) bool {
	for i := uint64(0); i < n && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}
