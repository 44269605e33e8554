// Package core provides the cycle-accurate CPU core model. It wraps the
// pipeline implementation to provide a high-level interface over the
// architectural state and run controls.
package core

import (
	"fmt"
	"strings"

	"github.com/sarchlab/apexsim/isa"
	"github.com/sarchlab/apexsim/pipeline"
	"github.com/sarchlab/apexsim/state"
)

// Stats holds performance statistics for the core.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Branches     uint64
	Flushes      uint64
	CPI          float64
}

// Core represents a complete APEX machine: architectural state plus the
// 5-stage pipeline driving it.
type Core struct {
	Pipeline *pipeline.Pipeline

	regs  *state.RegisterFile
	sb    *state.Scoreboard
	flags *state.Flags
	mem   *state.Memory
}

// NewCore creates a new Core loaded with program, with its own fresh
// register file, scoreboard, flags, and data memory.
func NewCore(program isa.Program, opts ...pipeline.PipelineOption) *Core {
	regs := &state.RegisterFile{}
	sb := state.NewScoreboard()
	flags := &state.Flags{}
	mem := state.NewMemory()

	return &Core{
		Pipeline: pipeline.NewPipeline(program, regs, sb, flags, mem, opts...),
		regs:     regs,
		sb:       sb,
		flags:    flags,
		mem:      mem,
	}
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc int32) {
	c.Pipeline.SetPC(pc)
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Halted returns true once the core has retired a HALT.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.Pipeline.Stats()
	return Stats{
		Cycles:       s.Cycles,
		Instructions: s.Instructions,
		Stalls:       s.Stalls,
		Branches:     s.Branches,
		Flushes:      s.Flushes,
		CPI:          s.CPI,
	}
}

// Run executes the core until it halts. Returns the number of cycles
// simulated.
func (c *Core) Run() uint64 {
	return c.Pipeline.Run()
}

// RunCycles executes the core for up to n cycles. Returns true if still
// running (not halted).
func (c *Core) RunCycles(n uint64) bool {
	return c.Pipeline.RunCycles(n)
}

// Memory exposes the core's data memory, for test setup and inspection.
func (c *Core) Memory() *state.Memory {
	return c.mem
}

// Registers exposes the core's register file, for test setup and
// inspection.
func (c *Core) Registers() *state.RegisterFile {
	return c.regs
}

// Dump renders the full architectural state — registers, flags, and
// non-zero memory — in the text form the CLI prints on completion or at
// each single-step.
func (c *Core) Dump() string {
	var b strings.Builder

	snap := c.regs.Snapshot()
	fmt.Fprintf(&b, "PC: %d\n", c.Pipeline.PC())
	for i, v := range snap {
		fmt.Fprintf(&b, "R%-2d: %-10d", i, v)
		if i%4 == 3 {
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "Flags: P=%t N=%t Z=%t\n", c.flags.P, c.flags.N, c.flags.Z)

	cells := c.mem.NonZero()
	if len(cells) == 0 {
		b.WriteString("Memory: (all zero)\n")
	} else {
		b.WriteString("Memory:\n")
		for _, cell := range cells {
			fmt.Fprintf(&b, "  [%d]: %d\n", cell.Address, cell.Value)
		}
	}

	return b.String()
}
