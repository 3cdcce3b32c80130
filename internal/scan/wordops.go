package scan

import (
	"log/slog"
	"strings"

	"rungscan/internal/address"
	"rungscan/internal/program"
)

// runWordOp dispatches the arithmetic/bitwise/comparison instructions.
// Args is a list of D-word addresses separated by colons or commas —
// these instructions never accept a literal integer, only another D-word.
//
// Binary ops (ADD/SUB/MUL/DIV/MOD/AND/OR/XOR) take "DEST:SRC1:SRC2".
// Unary and shift/rotate ops (NOT/MOVE/SHL/SHR/ROL/ROR) take
// "DEST:SRC": SHL/SHR/ROL/ROR all read their shift or rotate amount
// from DEST's value *before* overwriting it. Comparisons
// (EQ/NE/GT/GE/LT/LE) take "OP1:OP2" and have no DEST — the boolean
// result is written to the node's own Output rather than a D-word.
// Instruction nodes pass no power over their links during propagation,
// so nodes linked after a comparison do not see its result.
func runWordOp(res *address.Resolver, n *program.Node) {
	operands := splitArgs(n.Args)

	switch n.Instruction {
	case "ADD", "SUB", "MUL", "DIV", "MOD", "AND", "OR", "XOR":
		if len(operands) != 3 {
			slog.Error("instruction needs 3 operands", "instruction", n.Instruction, "node", n.ID)
			return
		}
	case "NOT", "MOVE", "SHL", "SHR", "ROL", "ROR":
		if len(operands) != 2 {
			slog.Error("instruction needs 2 operands", "instruction", n.Instruction, "node", n.ID)
			return
		}
	case "EQ", "NE", "GT", "GE", "LT", "LE":
		if len(operands) != 2 {
			slog.Error("instruction needs 2 operands", "instruction", n.Instruction, "node", n.ID)
			return
		}
		a, b := word(res, operands[0]), word(res, operands[1])
		switch n.Instruction {
		case "EQ":
			n.Output = a == b
		case "NE":
			n.Output = a != b
		case "GT":
			n.Output = a > b
		case "GE":
			n.Output = a >= b
		case "LT":
			n.Output = a < b
		case "LE":
			n.Output = a <= b
		}
		return
	default:
		slog.Warn("unknown instruction opcode", "instruction", n.Instruction, "node", n.ID)
		return
	}

	dest := address.Parse(operands[0])

	switch n.Instruction {
	case "ADD":
		a, b := word(res, operands[1]), word(res, operands[2])
		res.WriteWord(dest, a+b)
	case "SUB":
		a, b := word(res, operands[1]), word(res, operands[2])
		res.WriteWord(dest, a-b)
	case "MUL":
		a, b := word(res, operands[1]), word(res, operands[2])
		res.WriteWord(dest, a*b)
	case "DIV":
		a, b := word(res, operands[1]), word(res, operands[2])
		if b == 0 {
			slog.Warn("DIV by zero", "node", n.ID)
			return
		}
		res.WriteWord(dest, a/b)
	case "MOD":
		a, b := word(res, operands[1]), word(res, operands[2])
		if b == 0 {
			slog.Warn("MOD by zero", "node", n.ID)
			return
		}
		res.WriteWord(dest, a%b)
	case "AND":
		a, b := word(res, operands[1]), word(res, operands[2])
		res.WriteWord(dest, a&b)
	case "OR":
		a, b := word(res, operands[1]), word(res, operands[2])
		res.WriteWord(dest, a|b)
	case "XOR":
		a, b := word(res, operands[1]), word(res, operands[2])
		res.WriteWord(dest, a^b)
	case "NOT":
		a := word(res, operands[1])
		res.WriteWord(dest, ^a)
	case "MOVE":
		a := word(res, operands[1])
		res.WriteWord(dest, a)
	case "SHL":
		shiftAmt := res.ReadWord(dest)
		src := word(res, operands[1])
		res.WriteWord(dest, src<<shiftAmt)
	case "SHR":
		shiftAmt := res.ReadWord(dest)
		src := word(res, operands[1])
		res.WriteWord(dest, src>>shiftAmt)
	case "ROL":
		amt := res.ReadWord(dest) % 32
		src := word(res, operands[1])
		res.WriteWord(dest, src<<amt|src>>(32-amt))
	case "ROR":
		amt := res.ReadWord(dest) % 32
		src := word(res, operands[1])
		res.WriteWord(dest, src>>amt|src<<(32-amt))
	}
}

func word(res *address.Resolver, raw string) uint32 {
	return res.ReadWord(address.Parse(raw))
}

func splitArgs(args string) []string {
	parts := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ':' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
