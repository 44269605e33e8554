package pipeline

import "github.com/sarchlab/apexsim/isa"

// computeALU evaluates the signed 32-bit result of a 3-register or
// 2-register-plus-immediate ALU op. Two's-complement wraparound is
// acceptable and matches the reference; Go's int32 arithmetic already
// wraps this way.
func computeALU(op isa.Op, a, b int32) int32 {
	switch op {
	case isa.OpADD, isa.OpADDL:
		return a + b
	case isa.OpSUB, isa.OpSUBL:
		return a - b
	case isa.OpMUL:
		return a * b
	case isa.OpAND:
		return a & b
	case isa.OpOR:
		return a | b
	case isa.OpXOR:
		return a ^ b
	default:
		return 0
	}
}
