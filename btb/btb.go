// Package btb implements APEX's Branch Target Buffer: a 4-entry,
// FIFO-replaced table of per-branch history used to predict conditional
// branches at decode and resolve mis-predictions at execute.
//
// The entry layout, FIFO eviction, count-gated confidence, and the
// asymmetric 2-bit history rule below are ported directly from
// initBTB/predictBTB/updateBTB in the original reference
// (BTBImplementation/apex_cpu.c); see DESIGN.md for the API shape this
// follows.
package btb

// Capacity is the fixed number of entries the table holds before FIFO
// eviction begins.
const Capacity = 4

// Entry is one Branch Target Buffer record.
type Entry struct {
	// Address is the PC of the branch instruction this entry tracks.
	Address int32
	// History holds the two most recent taken/not-taken outcomes.
	// History[0] is the most recent, History[1] the one before it.
	History [2]bool
	// Target is the last resolved target address for this branch.
	Target int32
	// Count is the number of times this entry has been updated at
	// execute. Used as a confidence gate: an entry with Count < 1 has
	// never been resolved, and is always predicted NOT-TAKEN regardless
	// of its seeded history.
	Count uint32
}

// Prediction is the result of querying the table for a branch PC.
type Prediction uint8

const (
	// NotInTable means no entry exists for the queried PC.
	NotInTable Prediction = iota
	// NotTaken means an entry exists but predicts the branch will not
	// be taken.
	NotTaken
	// Taken means an entry exists and predicts the branch will be
	// taken.
	Taken
)

// Stats accumulates table-wide counters across the run.
type Stats struct {
	Predictions    uint64
	Correct        uint64
	Mispredictions uint64
	Installs       uint64
	Evictions      uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// Table is the Branch Target Buffer: a fixed 4-entry array, FIFO-replaced,
// with at most one entry per branch PC.
type Table struct {
	entries   [Capacity]Entry
	size      int
	oldestIdx int
	stats     Stats
}

// New returns an empty Branch Target Buffer.
func New() *Table {
	return &Table{}
}

// Stats returns the table's accumulated statistics.
func (t *Table) Stats() Stats {
	return t.stats
}

// indexOf returns the slot index holding addr, or -1 if absent.
func (t *Table) indexOf(addr int32) int {
	for i := 0; i < t.size; i++ {
		if t.entries[i].Address == addr {
			return i
		}
	}
	return -1
}

// Install installs a fresh entry for a branch PC if one does not already
// exist (a no-op otherwise), seeding its 2-bit history by the opcode's
// a-priori polarity: taken-biased branches (BNZ/BP) seed "11"; not-taken
// biased branches (BZ/BNP) seed "00". Once the table is full, the new
// entry overwrites the FIFO-oldest slot and the eviction pointer advances
// modulo Capacity.
func (t *Table) Install(addr, target int32, takenBiased bool) {
	if t.indexOf(addr) != -1 {
		return
	}

	entry := Entry{
		Address: addr,
		Target:  target,
		Count:   0,
	}
	if takenBiased {
		entry.History = [2]bool{true, true}
	} else {
		entry.History = [2]bool{false, false}
	}

	t.stats.Installs++

	if t.size < Capacity {
		t.entries[t.size] = entry
		t.size++
		return
	}

	t.entries[t.oldestIdx] = entry
	t.oldestIdx = (t.oldestIdx + 1) % Capacity
	t.stats.Evictions++
}

// Predict queries the table for addr under the branch's opcode polarity.
//
// An entry with Count < 1 has never been resolved at execute and is
// considered untrusted: it always predicts NOT-TAKEN regardless of its
// seeded history, giving every new branch a one-instance warm-up penalty.
//
// Once trusted, the asymmetric rule is: taken-biased opcodes (BNZ/BP)
// predict TAKEN if either history bit is 1; not-taken-biased opcodes
// (BZ/BNP) predict TAKEN only if both history bits are 1. This hysteresis
// is intentional, not a bug.
func (t *Table) Predict(addr int32, takenBiased bool) Prediction {
	idx := t.indexOf(addr)
	if idx == -1 {
		return NotInTable
	}

	entry := &t.entries[idx]
	if entry.Count < 1 {
		return NotTaken
	}

	var taken bool
	if takenBiased {
		taken = entry.History[0] || entry.History[1]
	} else {
		taken = entry.History[0] && entry.History[1]
	}

	if taken {
		return Taken
	}
	return NotTaken
}

// Update records the resolved outcome of a branch at execute: shifts the
// 2-bit history register right (the new outcome becomes History[0], the
// old History[0] becomes History[1]), overwrites the target, and
// increments Count.
//
// If no entry exists for addr, this should not happen in practice because
// Decode always installs the entry first — but unlike the reference, which
// blindly increments count on an out-of-bounds index, a missing entry here
// is treated as a defensive install-then-update rather than ignored or
// panicking.
func (t *Table) Update(addr int32, taken bool, target int32) {
	idx := t.indexOf(addr)
	if idx == -1 {
		t.Install(addr, target, taken)
		idx = t.indexOf(addr)
	}

	entry := &t.entries[idx]
	entry.History[1] = entry.History[0]
	entry.History[0] = taken
	entry.Target = target
	entry.Count++
}

// RecordOutcome updates the run-wide accuracy statistics given what was
// predicted before resolution and what actually happened.
func (t *Table) RecordOutcome(predicted Prediction, actualTaken bool) {
	t.stats.Predictions++
	predictedTaken := predicted == Taken
	if predictedTaken == actualTaken {
		t.stats.Correct++
	} else {
		t.stats.Mispredictions++
	}
}

// Size returns the number of filled entries (0..Capacity).
func (t *Table) Size() int {
	return t.size
}

// Entries returns a copy of the currently filled entries in slot order,
// for inspection and tests. Slot order is insertion order until the first
// eviction; after that, a new entry takes the slot of the one it evicted.
func (t *Table) Entries() []Entry {
	out := make([]Entry, t.size)
	copy(out, t.entries[:t.size])
	return out
}
