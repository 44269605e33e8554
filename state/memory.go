package state

import "fmt"

// DataMemorySize is the number of signed 32-bit cells in data memory.
const DataMemorySize = 4000

// Memory is APEX's linear data memory: 4000 signed 32-bit cells.
//
// Addressing is cell-indexed, not byte-indexed: the original reference
// computes memory_address = rs+imm and indexes data_memory directly with
// it (see DESIGN.md for the reasoning). Address is asserted into
// [0, DataMemorySize) — out of range is a programming error, not a value
// to clamp.
type Memory struct {
	cells [DataMemorySize]int32
}

// NewMemory returns a zeroed 4000-cell data memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Read returns the cell at addr.
func (m *Memory) Read(addr int32) int32 {
	m.mustBeValid(addr)
	return m.cells[addr]
}

// Write sets the cell at addr to value.
func (m *Memory) Write(addr int32, value int32) {
	m.mustBeValid(addr)
	m.cells[addr] = value
}

// NonZero returns every non-zero cell's address and value, in ascending
// address order, for state dumps.
func (m *Memory) NonZero() []MemoryCell {
	var cells []MemoryCell
	for addr, v := range m.cells {
		if v != 0 {
			cells = append(cells, MemoryCell{Address: int32(addr), Value: v})
		}
	}
	return cells
}

// MemoryCell pairs an address with its value, for reporting.
type MemoryCell struct {
	Address int32
	Value   int32
}

func (m *Memory) mustBeValid(addr int32) {
	if addr < 0 || int(addr) >= DataMemorySize {
		panic(fmt.Sprintf("state: memory address %d out of range [0,%d)", addr, DataMemorySize))
	}
}
