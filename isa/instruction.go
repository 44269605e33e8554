// Package isa defines the APEX instruction set: the opcode enumeration and
// the decoded, static instruction representation every pipeline stage
// pattern-matches against.
package isa

import "fmt"

// Op is the tagged variant of an APEX opcode.
type Op uint8

// The complete APEX opcode set.
const (
	OpInvalid Op = iota
	OpADD
	OpSUB
	OpMUL
	OpAND
	OpOR
	OpXOR
	OpADDL
	OpSUBL
	OpMOVC
	OpCMP
	OpCML
	OpLOAD
	OpLOADP
	OpSTORE
	OpSTOREP
	OpJUMP
	OpJALR
	OpBZ
	OpBNZ
	OpBP
	OpBNP
	OpBN
	OpBNN
	OpNOP
	OpHALT
)

var opNames = map[Op]string{
	OpADD: "ADD", OpSUB: "SUB", OpMUL: "MUL", OpAND: "AND", OpOR: "OR", OpXOR: "XOR",
	OpADDL: "ADDL", OpSUBL: "SUBL", OpMOVC: "MOVC",
	OpCMP: "CMP", OpCML: "CML",
	OpLOAD: "LOAD", OpLOADP: "LOADP", OpSTORE: "STORE", OpSTOREP: "STOREP",
	OpJUMP: "JUMP", OpJALR: "JALR",
	OpBZ: "BZ", OpBNZ: "BNZ", OpBP: "BP", OpBNP: "BNP", OpBN: "BN", OpBNN: "BNN",
	OpNOP: "NOP", OpHALT: "HALT",
}

// String returns the mnemonic for the opcode, or "INVALID" if unrecognized.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "INVALID"
}

// Instruction is a single decoded static instruction. Not all fields are
// meaningful for every opcode; unused fields are left zero.
type Instruction struct {
	Op       Op
	Mnemonic string
	Rd       int
	Rs1      int
	Rs2      int
	Imm      int32
}

// NewInstruction builds an Instruction, filling Mnemonic from Op.
func NewInstruction(op Op, rd, rs1, rs2 int, imm int32) Instruction {
	return Instruction{
		Op:       op,
		Mnemonic: op.String(),
		Rd:       rd,
		Rs1:      rs1,
		Rs2:      rs2,
		Imm:      imm,
	}
}

// IsThreeRegALU reports whether the opcode is a 3-register ALU op
// (ADD/SUB/MUL/AND/OR/XOR) that reads Rs1 and Rs2 and writes Rd.
func (i Instruction) IsThreeRegALU() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR:
		return true
	default:
		return false
	}
}

// IsImmALU reports whether the opcode is a 2-register-plus-immediate ALU op
// (ADDL/SUBL) that reads Rs1 and writes Rd.
func (i Instruction) IsImmALU() bool {
	return i.Op == OpADDL || i.Op == OpSUBL
}

// SetsFlags reports whether this opcode updates the Z/P/N flags.
func (i Instruction) SetsFlags() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpADDL, OpSUBL, OpCMP, OpCML:
		return true
	default:
		return false
	}
}

// IsConditionalBranch reports whether the opcode is one of the six
// condition-flag branches (BZ/BNZ/BP/BNP/BN/BNN).
func (i Instruction) IsConditionalBranch() bool {
	switch i.Op {
	case OpBZ, OpBNZ, OpBP, OpBNP, OpBN, OpBNN:
		return true
	default:
		return false
	}
}

// UsesBTB reports whether this conditional branch is predicted via the BTB.
// Only BZ/BNZ/BP/BNP are predicted; BN/BNN resolve only at Execute.
func (i Instruction) UsesBTB() bool {
	switch i.Op {
	case OpBZ, OpBNZ, OpBP, OpBNP:
		return true
	default:
		return false
	}
}

// TakenBiased reports the opcode's a-priori predicted polarity, used to seed
// a fresh BTB entry's history. BNZ and BP are taken-biased; BZ and BNP are
// not-taken-biased. Only meaningful when UsesBTB is true.
func (i Instruction) TakenBiased() bool {
	return i.Op == OpBNZ || i.Op == OpBP
}

// ReadsRs1 reports whether the opcode reads Rs1 as a source operand at
// decode.
func (i Instruction) ReadsRs1() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR,
		OpADDL, OpSUBL, OpCMP, OpCML,
		OpLOAD, OpLOADP, OpJUMP, OpJALR:
		return true
	case OpSTORE, OpSTOREP:
		// In APEX encoding the value being stored is named Rs1.
		return true
	default:
		return false
	}
}

// ReadsRs2 reports whether the opcode reads Rs2 as a source operand.
func (i Instruction) ReadsRs2() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpCMP, OpSTORE, OpSTOREP:
		return true
	default:
		return false
	}
}

// WritesRd reports whether the opcode writes a value to Rd at all (at any
// stage — EX bypass or WB).
func (i Instruction) WritesRd() bool {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR, OpADDL, OpSUBL, OpMOVC,
		OpLOAD, OpLOADP, OpJALR:
		return true
	default:
		return false
	}
}

// ReservesRdAtDecode reports whether the destination register must be
// marked BUSY at decode because its producer cannot forward the result in
// the same cycle it computes it (LOAD, LOADP, JALR).
func (i Instruction) ReservesRdAtDecode() bool {
	switch i.Op {
	case OpLOAD, OpLOADP, OpJALR:
		return true
	default:
		return false
	}
}

// Disassemble renders the instruction in APEX assembly text form, for
// tracing and debug dumps.
func (i Instruction) Disassemble() string {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpAND, OpOR, OpXOR:
		return fmt.Sprintf("%s R%d,R%d,R%d", i.Mnemonic, i.Rd, i.Rs1, i.Rs2)
	case OpADDL, OpSUBL:
		return fmt.Sprintf("%s R%d,R%d,#%d", i.Mnemonic, i.Rd, i.Rs1, i.Imm)
	case OpMOVC:
		return fmt.Sprintf("%s R%d,#%d", i.Mnemonic, i.Rd, i.Imm)
	case OpCMP:
		return fmt.Sprintf("%s R%d,R%d", i.Mnemonic, i.Rs1, i.Rs2)
	case OpCML:
		return fmt.Sprintf("%s R%d,#%d", i.Mnemonic, i.Rs1, i.Imm)
	case OpLOAD, OpLOADP:
		return fmt.Sprintf("%s R%d,R%d,#%d", i.Mnemonic, i.Rd, i.Rs1, i.Imm)
	case OpSTORE, OpSTOREP:
		return fmt.Sprintf("%s R%d,R%d,#%d", i.Mnemonic, i.Rs1, i.Rs2, i.Imm)
	case OpJUMP:
		return fmt.Sprintf("%s R%d,#%d", i.Mnemonic, i.Rs1, i.Imm)
	case OpJALR:
		return fmt.Sprintf("%s R%d,R%d,#%d", i.Mnemonic, i.Rd, i.Rs1, i.Imm)
	case OpBZ, OpBNZ, OpBP, OpBNP, OpBN, OpBNN:
		return fmt.Sprintf("%s #%d", i.Mnemonic, i.Imm)
	default:
		return i.Mnemonic
	}
}
