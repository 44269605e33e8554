// Package loader parses APEX assembly text into a isa.Program. This is a
// supplemented feature: the original reference parses input files into the
// same {opcode_str, rd, rs1, rs2, imm} shape internally (apex_cpu.c,
// create_code_memory/APEX_cpu_init), but its actual tokenizer is not part
// of the kept reference source, so the comma-separated textual grammar
// below is this implementation's own, built to produce that same decoded
// shape. The Load(path) (Program, error) API shape mirrors a binary-format
// loader's; only the file format differs (assembly text, not a binary
// executable format).
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/apexsim/isa"
)

// Load reads an APEX assembly text file and returns the decoded program.
//
// Each non-blank, non-comment line holds one instruction: a mnemonic
// followed by comma-separated operands, e.g.:
//
//	MOVC,R1,#4
//	ADD,R3,R1,R2
//	STORE,R1,R2,#4
//	BZ,#-8
//	HALT
//
// Registers are written R<n>; immediates are written #<n> (a leading '-'
// is allowed). Lines starting with ';' are comments.
func Load(path string) (isa.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to open %q: %w", path, err)
	}
	defer f.Close()

	var program isa.Program
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		inst, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("loader: %q line %d: %w", path, lineNum, err)
		}
		program = append(program, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: failed to read %q: %w", path, err)
	}

	return program, nil
}

var mnemonicToOp = map[string]isa.Op{
	"ADD": isa.OpADD, "SUB": isa.OpSUB, "MUL": isa.OpMUL,
	"AND": isa.OpAND, "OR": isa.OpOR, "XOR": isa.OpXOR,
	"ADDL": isa.OpADDL, "SUBL": isa.OpSUBL, "MOVC": isa.OpMOVC,
	"CMP": isa.OpCMP, "CML": isa.OpCML,
	"LOAD": isa.OpLOAD, "LOADP": isa.OpLOADP,
	"STORE": isa.OpSTORE, "STOREP": isa.OpSTOREP,
	"JUMP": isa.OpJUMP, "JALR": isa.OpJALR,
	"BZ": isa.OpBZ, "BNZ": isa.OpBNZ, "BP": isa.OpBP, "BNP": isa.OpBNP,
	"BN": isa.OpBN, "BNN": isa.OpBNN,
	"NOP": isa.OpNOP, "HALT": isa.OpHALT,
}

func parseLine(line string) (isa.Instruction, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	mnemonic := strings.ToUpper(fields[0])
	op, ok := mnemonicToOp[mnemonic]
	if !ok {
		return isa.Instruction{}, fmt.Errorf("unknown mnemonic %q", fields[0])
	}
	operands := fields[1:]

	switch op {
	case isa.OpADD, isa.OpSUB, isa.OpMUL, isa.OpAND, isa.OpOR, isa.OpXOR:
		rd, rs1, rs2, err := threeRegs(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, rd, rs1, rs2, 0), nil

	case isa.OpADDL, isa.OpSUBL, isa.OpLOAD, isa.OpLOADP, isa.OpJALR:
		rd, rs1, imm, err := twoRegsImm(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, rd, rs1, 0, imm), nil

	case isa.OpSTORE, isa.OpSTOREP:
		rs1, rs2, imm, err := twoRegsImm(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, 0, rs1, rs2, imm), nil

	case isa.OpMOVC:
		rd, imm, err := oneRegImm(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, rd, 0, 0, imm), nil

	case isa.OpCML:
		rs1, imm, err := oneRegImm(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, 0, rs1, 0, imm), nil

	case isa.OpCMP:
		rs1, rs2, err := twoRegs(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, 0, rs1, rs2, 0), nil

	case isa.OpJUMP:
		rs1, imm, err := oneRegImm(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, 0, rs1, 0, imm), nil

	case isa.OpBZ, isa.OpBNZ, isa.OpBP, isa.OpBNP, isa.OpBN, isa.OpBNN:
		imm, err := oneImm(op, operands)
		if err != nil {
			return isa.Instruction{}, err
		}
		return isa.NewInstruction(op, 0, 0, 0, imm), nil

	case isa.OpNOP, isa.OpHALT:
		return isa.NewInstruction(op, 0, 0, 0, 0), nil

	default:
		return isa.Instruction{}, fmt.Errorf("unhandled mnemonic %q", fields[0])
	}
}

func parseReg(s string) (int, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "R")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid register operand %q", s)
	}
	return n, nil
}

func parseImm(s string) (int32, error) {
	s = strings.TrimPrefix(s, "#")
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate operand %q", s)
	}
	return int32(n), nil
}

func threeRegs(op isa.Op, operands []string) (rd, rs1, rs2 int, err error) {
	if len(operands) != 3 {
		return 0, 0, 0, fmt.Errorf("%s expects 3 register operands, got %d", op, len(operands))
	}
	if rd, err = parseReg(operands[0]); err != nil {
		return
	}
	if rs1, err = parseReg(operands[1]); err != nil {
		return
	}
	rs2, err = parseReg(operands[2])
	return
}

func twoRegs(op isa.Op, operands []string) (rs1, rs2 int, err error) {
	if len(operands) != 2 {
		return 0, 0, fmt.Errorf("%s expects 2 register operands, got %d", op, len(operands))
	}
	if rs1, err = parseReg(operands[0]); err != nil {
		return
	}
	rs2, err = parseReg(operands[1])
	return
}

func twoRegsImm(op isa.Op, operands []string) (r1, r2 int, imm int32, err error) {
	if len(operands) != 3 {
		return 0, 0, 0, fmt.Errorf("%s expects 2 registers and an immediate, got %d operands", op, len(operands))
	}
	if r1, err = parseReg(operands[0]); err != nil {
		return
	}
	if r2, err = parseReg(operands[1]); err != nil {
		return
	}
	imm, err = parseImm(operands[2])
	return
}

func oneRegImm(op isa.Op, operands []string) (r int, imm int32, err error) {
	if len(operands) != 2 {
		return 0, 0, fmt.Errorf("%s expects 1 register and an immediate, got %d operands", op, len(operands))
	}
	if r, err = parseReg(operands[0]); err != nil {
		return
	}
	imm, err = parseImm(operands[1])
	return
}

func oneImm(op isa.Op, operands []string) (imm int32, err error) {
	if len(operands) != 1 {
		return 0, fmt.Errorf("%s expects 1 immediate operand, got %d", op, len(operands))
	}
	return parseImm(operands[0])
}
