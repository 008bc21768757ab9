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

// AssignPseudoRegisters is C10: it walks every function's instructions,
// replacing each PseudoRegister operand with either a DataOperand (backed
// by static storage) or a StackAddress (backed by a slot in the current
// frame), and settles that function's StackFrameSize in backend. Grounded
// on pseudo_register_replace_step.cpp's check_and_replace/get_offset.
//
// Unlike the original, which leaves stack_frame_size unrounded and lets
// fixup_instruction_step.cpp round it to 16 while prepending the prologue's
// stack-allocation instruction, this pass does the rounding itself: the
// AllocateStack placeholder already exists in the instruction stream (C9
// put it there), so Legalize only needs to read the settled, already-
// rounded size back out of backend to patch it.
func AssignPseudoRegisters(prog *Program, backend *BackendTable) {
	for _, tl := range prog.TopLevels {
		fn, ok := tl.(*FunctionDefinition)
		if !ok {
			continue
		}
		p := &pseudoPass{backend: backend, offsets: map[string]int{}}
		for idx, inst := range fn.Body {
			fn.Body[idx] = p.fixInstruction(inst)
		}
		backend.SetStackFrameSize(fn.Name, roundUp(p.curOffset, 16))
	}
}

type pseudoPass struct {
	backend   *BackendTable
	offsets   map[string]int
	curOffset int
}

func roundUp(v, multiple int) int {
	return (v + multiple - 1) / multiple * multiple
}

func (p *pseudoPass) fixOperand(op Operand) Operand {
	pr, ok := op.(PseudoRegister)
	if !ok {
		return op
	}
	entry, ok := p.backend.Object(pr.Name)
	if !ok {
		diag.ICE("pseudo-register %q missing from backend symbol table", pr.Name)
	}
	if entry.IsStatic {
		return DataOperand{Name: pr.Name}
	}
	if offset, exists := p.offsets[pr.Name]; exists {
		return StackAddress{Offset: -offset}
	}
	switch entry.Width {
	case Byte:
		p.curOffset += 1
	case Long:
		p.curOffset += 4
	case Quad:
		p.curOffset = roundUp(p.curOffset+8, 8)
	default:
		diag.ICE("unexpected width %s for pseudo-register %q", entry.Width, pr.Name)
	}
	p.offsets[pr.Name] = p.curOffset
	return StackAddress{Offset: -p.curOffset}
}

func (p *pseudoPass) fixInstruction(inst Instruction) Instruction {
	switch i := inst.(type) {
	case Mov:
		i.Src, i.Dst = p.fixOperand(i.Src), p.fixOperand(i.Dst)
		return i
	case Movsx:
		i.Src, i.Dst = p.fixOperand(i.Src), p.fixOperand(i.Dst)
		return i
	case MovZeroExtend:
		i.Src, i.Dst = p.fixOperand(i.Src), p.fixOperand(i.Dst)
		return i
	case Unary:
		i.Operand = p.fixOperand(i.Operand)
		return i
	case Binary:
		i.Src, i.Dst = p.fixOperand(i.Src), p.fixOperand(i.Dst)
		return i
	case Cmp:
		i.Src, i.Dst = p.fixOperand(i.Src), p.fixOperand(i.Dst)
		return i
	case Idiv:
		i.Operand = p.fixOperand(i.Operand)
		return i
	case Div:
		i.Operand = p.fixOperand(i.Operand)
		return i
	case SetCC:
		i.Dst = p.fixOperand(i.Dst)
		return i
	case Push:
		i.Operand = p.fixOperand(i.Operand)
		return i
	case Cdq, Jmp, JmpCC, Label, Call, Ret, AllocateStack:
		return i
	}
	diag.ICE("unknown target instruction %T in pseudo-register assignment", inst)
	return inst
}
