// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package target

import "subc/internal/diag"

const (
	int32Min = -2147483648
	int32Max = 2147483647
)

// Legalize is C11: it patches each function's AllocateStack placeholder
// with the frame size AssignPseudoRegisters settled, then rewrites every
// instruction whose operand combination the x86-64 ISA can't encode,
// shuttling through the scratch registers R10 (source-side) and R11
// (destination-side). Grounded on fixup_instruction_step.cpp's per-
// instruction-kind rules, with one deliberate divergence: IMul into a
// memory destination is shuttled only when the destination actually is
// memory, not unconditionally (spec.md's literal table; see DESIGN.md).
func Legalize(prog *Program, backend *BackendTable) {
	for _, tl := range prog.TopLevels {
		fn, ok := tl.(*FunctionDefinition)
		if !ok {
			continue
		}
		entry, ok := backend.Function(fn.Name)
		if !ok {
			diag.ICE("function %q missing from backend symbol table", fn.Name)
		}

		var body []Instruction
		for _, inst := range fn.Body {
			if _, isPlaceholder := inst.(AllocateStack); isPlaceholder {
				body = append(body, Binary{
					Op:    BSub,
					Width: Quad,
					Src:   Immediate{Value: int64(entry.StackFrameSize)},
					Dst:   Register{Name: SP, Width: Quad},
				})
				continue
			}
			body = append(body, legalizeInstruction(inst)...)
		}
		fn.Body = body
	}
}

func isMemory(op Operand) bool {
	switch op.(type) {
	case StackAddress, DataOperand:
		return true
	}
	return false
}

func isImmediate(op Operand) bool {
	_, ok := op.(Immediate)
	return ok
}

func legalizeInstruction(inst Instruction) []Instruction {
	switch i := inst.(type) {
	case Mov:
		if isMemory(i.Src) && isMemory(i.Dst) {
			return []Instruction{
				Mov{Width: i.Width, Src: i.Src, Dst: Register{Name: R10, Width: i.Width}},
				Mov{Width: i.Width, Src: Register{Name: R10, Width: i.Width}, Dst: i.Dst},
			}
		}
		return []Instruction{i}

	case Movsx:
		return legalizeMovsx(i)

	case MovZeroExtend:
		// The only way to zero-extend into a memory destination is through
		// a register: a 32-bit register write always clears the upper 32
		// bits of its 64-bit counterpart, but a 32-bit memory write leaves
		// whatever garbage already sits above it untouched.
		return []Instruction{
			Mov{Width: Long, Src: i.Src, Dst: Register{Name: R11, Width: Long}},
			Mov{Width: Quad, Src: Register{Name: R11, Width: Quad}, Dst: i.Dst},
		}

	case Cmp:
		return legalizeCmp(i)

	case Binary:
		return legalizeBinary(i)

	case Idiv:
		if isImmediate(i.Operand) {
			return []Instruction{
				Mov{Width: i.Width, Src: i.Operand, Dst: Register{Name: R10, Width: i.Width}},
				Idiv{Width: i.Width, Operand: Register{Name: R10, Width: i.Width}},
			}
		}
		return []Instruction{i}

	case Div:
		if isImmediate(i.Operand) {
			return []Instruction{
				Mov{Width: i.Width, Src: i.Operand, Dst: Register{Name: R10, Width: i.Width}},
				Div{Width: i.Width, Operand: Register{Name: R10, Width: i.Width}},
			}
		}
		return []Instruction{i}

	case Push:
		// pushq can't encode a 64-bit immediate outside the int32 range
		// directly (its immediate operand is sign-extended from 32 bits);
		// load it through R10 first, same as every other out-of-range-quad-
		// immediate case in legalizeBinary.
		if imm, ok := i.Operand.(Immediate); ok && (imm.Value < int32Min || imm.Value > int32Max) {
			return []Instruction{
				Mov{Width: Quad, Src: imm, Dst: Register{Name: R10, Width: Quad}},
				Push{Operand: Register{Name: R10, Width: Quad}},
			}
		}
		return []Instruction{i}
	}
	return []Instruction{inst}
}

// legalizeMovsx handles both of Movsx's illegal forms independently: an
// immediate source (sign-extension needs a real operand to read from) and a
// memory destination (movslq can't write directly to memory and a temporary
// destination narrower than quad would truncate the sign-extended value).
func legalizeMovsx(i Movsx) []Instruction {
	var pre []Instruction
	src := i.Src
	if isImmediate(src) {
		pre = append(pre, Mov{Width: Long, Src: src, Dst: Register{Name: R10, Width: Long}})
		src = Register{Name: R10, Width: Long}
	}
	if isMemory(i.Dst) {
		return append(pre,
			Movsx{Src: src, Dst: Register{Name: R11, Width: Quad}},
			Mov{Width: Quad, Src: Register{Name: R11, Width: Quad}, Dst: i.Dst},
		)
	}
	return append(pre, Movsx{Src: src, Dst: i.Dst})
}

// legalizeCmp handles the destination-is-immediate case (cmp can never
// write its result there, so the would-be destination has to be loaded
// into a register first) independently of the both-operands-are-memory
// case (cmp, like every other two-memory-operand instruction here, allows
// at most one memory operand).
func legalizeCmp(i Cmp) []Instruction {
	if isImmediate(i.Dst) {
		return []Instruction{
			Mov{Width: i.Width, Src: i.Dst, Dst: Register{Name: R11, Width: i.Width}},
			Cmp{Width: i.Width, Src: i.Src, Dst: Register{Name: R11, Width: i.Width}},
		}
	}
	if isMemory(i.Src) && isMemory(i.Dst) {
		return []Instruction{
			Mov{Width: i.Width, Src: i.Src, Dst: Register{Name: R10, Width: i.Width}},
			Cmp{Width: i.Width, Src: Register{Name: R10, Width: i.Width}, Dst: i.Dst},
		}
	}
	return []Instruction{i}
}

func legalizeBinary(i Binary) []Instruction {
	var pre []Instruction
	src := i.Src
	if i.Width == Quad {
		if imm, ok := src.(Immediate); ok && (imm.Value < int32Min || imm.Value > int32Max) {
			pre = append(pre, Mov{Width: Quad, Src: imm, Dst: Register{Name: R10, Width: Quad}})
			src = Register{Name: R10, Width: Quad}
		}
	}

	if i.Op == BMul {
		if isMemory(i.Dst) {
			return append(pre,
				Mov{Width: i.Width, Src: i.Dst, Dst: Register{Name: R11, Width: i.Width}},
				Binary{Op: BMul, Width: i.Width, Src: src, Dst: Register{Name: R11, Width: i.Width}},
				Mov{Width: i.Width, Src: Register{Name: R11, Width: i.Width}, Dst: i.Dst},
			)
		}
		return append(pre, Binary{Op: BMul, Width: i.Width, Src: src, Dst: i.Dst})
	}

	// ADD / SUB: at most one memory operand.
	if isMemory(src) && isMemory(i.Dst) {
		return append(pre,
			Mov{Width: i.Width, Src: src, Dst: Register{Name: R10, Width: i.Width}},
			Binary{Op: i.Op, Width: i.Width, Src: Register{Name: R10, Width: i.Width}, Dst: i.Dst},
		)
	}
	return append(pre, Binary{Op: i.Op, Width: i.Width, Src: src, Dst: i.Dst})
}
