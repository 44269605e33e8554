// Whole-program acceptance scenarios for the APEX pipeline, one per
// concrete behavior the design is meant to exhibit end to end. Style
// follows the reference 6502 core's table-driven acceptance tests: plain
// testing.T, and a full state dump via spew.Sdump on failure.
package apexsim_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/sarchlab/apexsim/core"
	"github.com/sarchlab/apexsim/isa"
)

func runToHalt(t *testing.T, name string, program isa.Program) *core.Core {
	t.Helper()

	c := core.NewCore(program)
	c.RunCycles(10000)

	if !c.Halted() {
		t.Fatalf("%s: did not halt within 10000 cycles\nstate:\n%s", name, spew.Sdump(c.Registers().Snapshot()))
	}
	return c
}

func TestStraightLineArithmetic(t *testing.T) {
	// MOVC R1,#5; MOVC R2,#3; ADD R3,R1,R2; HALT
	program := isa.Program{
		isa.NewInstruction(isa.OpMOVC, 1, 0, 0, 5),
		isa.NewInstruction(isa.OpMOVC, 2, 0, 0, 3),
		isa.NewInstruction(isa.OpADD, 3, 1, 2, 0),
		isa.NewInstruction(isa.OpHALT, 0, 0, 0, 0),
	}
	c := runToHalt(t, "straight-line arithmetic", program)

	if got := c.Registers().Read(3); got != 8 {
		t.Fatalf("R3 = %d, want 8\nstate:\n%s", got, spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Stats().Instructions; got != 4 {
		t.Fatalf("retired %d instructions, want 4\nstate:\n%s", got, spew.Sdump(c.Stats()))
	}
}

func TestFirstSightBranchMispredict(t *testing.T) {
	// MOVC R1,#5; SUB R2,R1,R1; BZ <target>; MOVC R3,#7; HALT; MOVC R4,#9; HALT
	// BZ is not-taken-biased (seeded "00"), so its first-ever resolution is
	// predicted NOT-TAKEN while the actual outcome (Z=1 after SUB R1,R1)
	// is taken: a cold-start mis-predict that flushes the wrong-path
	// MOVC R3,#7 and redirects past it.
	program := isa.Program{
		isa.NewInstruction(isa.OpMOVC, 1, 0, 0, 5), // 4000
		isa.NewInstruction(isa.OpSUB, 2, 1, 1, 0),  // 4004, R2=0, Z=1
		isa.NewInstruction(isa.OpBZ, 0, 0, 0, 12),  // 4008, target = 4008+12 = 4020
		isa.NewInstruction(isa.OpMOVC, 3, 0, 0, 7), // 4012, must be flushed
		isa.NewInstruction(isa.OpHALT, 0, 0, 0, 0), // 4016, never fetched
		isa.NewInstruction(isa.OpMOVC, 4, 0, 0, 9), // 4020, retires
		isa.NewInstruction(isa.OpHALT, 0, 0, 0, 0), // 4024, retires
	}
	c := runToHalt(t, "first-sight branch mispredict", program)

	if got := c.Registers().Read(3); got != 0 {
		t.Fatalf("R3 = %d, want 0 (MOVC R3,#7 must be flushed)\nstate:\n%s", got, spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Registers().Read(4); got != 9 {
		t.Fatalf("R4 = %d, want 9\nstate:\n%s", got, spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Stats().Flushes; got != 1 {
		t.Fatalf("flushes = %d, want 1\nstate:\n%s", got, spew.Sdump(c.Stats()))
	}
}

func TestLoopBranchPredictionAccuracy(t *testing.T) {
	// MOVC R1,#3; MOVC R2,#1; SUB R1,R1,R2; BNZ <loop>; HALT
	// A post-test backward loop: BNZ is taken-biased (seeds "11").
	//   1st evaluation (R1: 3->2, taken):   cold start, predicted NOT-TAKEN, actual TAKEN -> mispredict.
	//   2nd evaluation (R1: 2->1, taken):   history now "11", predicted TAKEN, actual TAKEN -> correct.
	//   3rd evaluation (R1: 1->0, not taken): predicted TAKEN (still "11"), actual NOT-TAKEN -> mispredict.
	program := isa.Program{
		isa.NewInstruction(isa.OpMOVC, 1, 0, 0, 3), // 4000
		isa.NewInstruction(isa.OpMOVC, 2, 0, 0, 1), // 4004
		isa.NewInstruction(isa.OpSUB, 1, 1, 2, 0),  // 4008, loop body
		isa.NewInstruction(isa.OpBNZ, 0, 0, 0, -4), // 4012, target = 4012-4 = 4008
		isa.NewInstruction(isa.OpHALT, 0, 0, 0, 0), // 4016
	}
	c := runToHalt(t, "loop branch prediction accuracy", program)

	if got := c.Registers().Read(1); got != 0 {
		t.Fatalf("R1 = %d, want 0\nstate:\n%s", got, spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Stats().Flushes; got != 2 {
		t.Fatalf("flushes = %d, want 2 (cold start + loop exit)\nstate:\n%s", got, spew.Sdump(c.Stats()))
	}

	btbStats := c.Pipeline.BTB().Stats()
	if btbStats.Predictions != 3 || btbStats.Correct != 1 {
		t.Fatalf("BTB stats = %+v, want 3 predictions with 1 correct\nstate:\n%s", btbStats, spew.Sdump(c.Stats()))
	}
}

func TestStoreThenLoadRoundTrip(t *testing.T) {
	// MOVC R1,#10; STORE R1,R0,#100; LOAD R2,R0,#100; HALT
	program := isa.Program{
		isa.NewInstruction(isa.OpMOVC, 1, 0, 0, 10),
		isa.NewInstruction(isa.OpSTORE, 0, 1, 0, 100),
		isa.NewInstruction(isa.OpLOAD, 2, 0, 0, 100),
		isa.NewInstruction(isa.OpHALT, 0, 0, 0, 0),
	}
	c := runToHalt(t, "store then load round trip", program)

	if got := c.Registers().Read(2); got != 10 {
		t.Fatalf("R2 = %d, want 10\nstate:\n%s", got, spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Memory().Read(100); got != 10 {
		t.Fatalf("mem[100] = %d, want 10\nstate:\n%s", got, spew.Sdump(c.Memory().NonZero()))
	}
}

func TestStorePPostIncrementAcrossTwoStores(t *testing.T) {
	// MOVC R1,#100; MOVC R2,#1; STOREP R2,R1,#0; STOREP R2,R1,#0; HALT
	// The scenario's illustrative base address of 4000 collides with
	// DataMemorySize under the cell-indexed addressing this implementation
	// chose (see DESIGN.md); 100 exercises the identical post-increment
	// and RAW-on-the-pointer-register mechanics without that collision.
	program := isa.Program{
		isa.NewInstruction(isa.OpMOVC, 1, 0, 0, 100),
		isa.NewInstruction(isa.OpMOVC, 2, 0, 0, 1),
		isa.NewInstruction(isa.OpSTOREP, 0, 2, 1, 0),
		isa.NewInstruction(isa.OpSTOREP, 0, 2, 1, 0),
		isa.NewInstruction(isa.OpHALT, 0, 0, 0, 0),
	}
	c := runToHalt(t, "STOREP post-increment across two stores", program)

	if got := c.Registers().Read(1); got != 108 {
		t.Fatalf("R1 = %d, want 108 (original 100 + 8)\nstate:\n%s", got, spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Memory().Read(100); got != 1 {
		t.Fatalf("mem[100] = %d, want 1\nstate:\n%s", got, spew.Sdump(c.Memory().NonZero()))
	}
	if got := c.Memory().Read(104); got != 1 {
		t.Fatalf("mem[104] = %d, want 1\nstate:\n%s", got, spew.Sdump(c.Memory().NonZero()))
	}
}

func TestRAWHazardStall(t *testing.T) {
	// LOAD R1,R0,#0; ADD R2,R1,R1; HALT
	// ADD must stall in Decode until LOAD frees R1 at Memory.
	program := isa.Program{
		isa.NewInstruction(isa.OpLOAD, 1, 0, 0, 0),
		isa.NewInstruction(isa.OpADD, 2, 1, 1, 0),
		isa.NewInstruction(isa.OpHALT, 0, 0, 0, 0),
	}
	c := core.NewCore(program)
	c.Memory().Write(0, 21)
	c.RunCycles(10000)

	if !c.Halted() {
		t.Fatalf("did not halt\nstate:\n%s", spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Registers().Read(2); got != 42 {
		t.Fatalf("R2 = %d, want 42 (2 * mem[0])\nstate:\n%s", got, spew.Sdump(c.Registers().Snapshot()))
	}
	if got := c.Stats().Stalls; got == 0 {
		t.Fatalf("expected at least one stall cycle, got 0\nstate:\n%s", spew.Sdump(c.Stats()))
	}
}
