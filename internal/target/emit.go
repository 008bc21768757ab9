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

import (
	"fmt"
	"io"

	"subc/internal/diag"
)

// Emit is C12: a pure AT&T-syntax serializer with no backend-table
// parameter, grounded on code_emitter.cpp's visitor. It never special-cases
// the prologue the way the original's visit(FunctionDefinition&) hardcodes
// "pushq %rbp" / "movq %rsp, %rbp": by the time a *Program reaches Emit,
// C9 has already put those instructions (and the legalized stack
// allocation) in the function's own Body, so Emit only ever walks a flat
// instruction list.
func Emit(w io.Writer, prog *Program) {
	for _, tl := range prog.TopLevels {
		emitTopLevel(w, tl)
	}
	fmt.Fprintln(w, `.section .note.GNU-stack,"",@progbits`)
}

func emitTopLevel(w io.Writer, tl TopLevel) {
	switch t := tl.(type) {
	case *FunctionDefinition:
		emitFunction(w, t)
	case *StaticVariable:
		emitStaticVariable(w, t)
	default:
		diag.ICE("unknown target top level %T", tl)
	}
}

func emitFunction(w io.Writer, fn *FunctionDefinition) {
	if fn.Global {
		fmt.Fprintf(w, "\t.globl %s\n", fn.Name)
	}
	fmt.Fprintln(w, "\t.text")
	fmt.Fprintf(w, "%s:\n", fn.Name)
	for _, inst := range fn.Body {
		emitInstruction(w, inst)
	}
}

func emitStaticVariable(w io.Writer, sv *StaticVariable) {
	if sv.Global {
		fmt.Fprintf(w, "\t.globl %s\n", sv.Name)
	}
	if sv.Zero {
		fmt.Fprintln(w, "\t.bss")
	} else {
		fmt.Fprintln(w, "\t.data")
	}
	fmt.Fprintf(w, "\t.balign %d\n", sv.Alignment)
	fmt.Fprintf(w, "%s:\n", sv.Name)

	size := 4
	if sv.Width == Quad {
		size = 8
	}
	if sv.Zero {
		fmt.Fprintf(w, "\t.zero %d\n", size)
		return
	}
	if sv.Width == Quad {
		fmt.Fprintf(w, "\t.quad %d\n", sv.Init)
	} else {
		fmt.Fprintf(w, "\t.long %d\n", sv.Init)
	}
}

func emitInstruction(w io.Writer, inst Instruction) {
	switch i := inst.(type) {
	case Mov:
		fmt.Fprintf(w, "\tmov%s\t%s, %s\n", suffix(i.Width), operandText(i.Src, i.Width), operandText(i.Dst, i.Width))
	case Movsx:
		fmt.Fprintf(w, "\tmovslq\t%s, %s\n", operandText(i.Src, Long), operandText(i.Dst, Quad))
	case MovZeroExtend:
		diag.ICE("MovZeroExtend must be legalized away before emission")
	case Unary:
		fmt.Fprintf(w, "\t%s%s\t%s\n", i.Op, suffix(i.Width), operandText(i.Operand, i.Width))
	case Binary:
		fmt.Fprintf(w, "\t%s%s\t%s, %s\n", i.Op, suffix(i.Width), operandText(i.Src, i.Width), operandText(i.Dst, i.Width))
	case Cmp:
		fmt.Fprintf(w, "\tcmp%s\t%s, %s\n", suffix(i.Width), operandText(i.Src, i.Width), operandText(i.Dst, i.Width))
	case Idiv:
		fmt.Fprintf(w, "\tidiv%s\t%s\n", suffix(i.Width), operandText(i.Operand, i.Width))
	case Div:
		fmt.Fprintf(w, "\tdiv%s\t%s\n", suffix(i.Width), operandText(i.Operand, i.Width))
	case Cdq:
		if i.Width == Quad {
			fmt.Fprintln(w, "\tcqo")
		} else {
			fmt.Fprintln(w, "\tcdq")
		}
	case Jmp:
		fmt.Fprintf(w, "\tjmp\t.L%s\n", i.Target)
	case JmpCC:
		fmt.Fprintf(w, "\tj%s\t.L%s\n", i.Cond, i.Target)
	case SetCC:
		fmt.Fprintf(w, "\tset%s\t%s\n", i.Cond, operandText(i.Dst, Byte))
	case Label:
		fmt.Fprintf(w, ".L%s:\n", i.Name)
	case Push:
		fmt.Fprintf(w, "\tpushq\t%s\n", operandText(i.Operand, Quad))
	case Call:
		name := i.Name
		if i.PLT {
			name += "@PLT"
		}
		fmt.Fprintf(w, "\tcall\t%s\n", name)
	case Ret:
		fmt.Fprintln(w, "\tmovq\t%rbp, %rsp")
		fmt.Fprintln(w, "\tpopq\t%rbp")
		fmt.Fprintln(w, "\tret")
	case AllocateStack:
		diag.ICE("AllocateStack placeholder reached Emit unpatched")
	default:
		diag.ICE("unknown target instruction %T", inst)
	}
}

// suffix returns the AT&T mnemonic width suffix. Only Long and Quad ever
// reach here: this language's types bottom out at int/unsigned int (4
// bytes) and long/unsigned long (8 bytes), so no instruction is ever
// generated at byte or word width.
func suffix(w Width) string {
	switch w {
	case Long:
		return "l"
	case Quad:
		return "q"
	}
	diag.ICE("unsupported instruction width %s", w)
	return ""
}

// operandText renders op at the given width; width only matters for
// Register (which spells a different name per size) and is otherwise
// ignored, matching code_emitter.cpp's visit(StackAddress&)/visit(DataOperand&)
// printing the same text regardless of the instruction's operand size.
func operandText(op Operand, width Width) string {
	switch o := op.(type) {
	case Immediate:
		return fmt.Sprintf("$%d", o.Value)
	case Register:
		return "%" + registerName(o.Name, width)
	case StackAddress:
		return fmt.Sprintf("%d(%%rbp)", o.Offset)
	case DataOperand:
		return o.Name + "(%rip)"
	case PseudoRegister:
		diag.ICE("pseudo-register %q reached Emit unresolved", o.Name)
	}
	diag.ICE("unknown target operand %T", op)
	return ""
}

func registerName(name RegName, width Width) string {
	if name == SP {
		return "rsp"
	}
	if name == BP {
		return "rbp"
	}
	switch name {
	case AX:
		return byWidth(width, "al", "eax", "rax")
	case CX:
		return byWidth(width, "cl", "ecx", "rcx")
	case DX:
		return byWidth(width, "dl", "edx", "rdx")
	case DI:
		return byWidth(width, "dil", "edi", "rdi")
	case SI:
		return byWidth(width, "sil", "esi", "rsi")
	case R8:
		return byWidth(width, "r8b", "r8d", "r8")
	case R9:
		return byWidth(width, "r9b", "r9d", "r9")
	case R10:
		return byWidth(width, "r10b", "r10d", "r10")
	case R11:
		return byWidth(width, "r11b", "r11d", "r11")
	}
	diag.ICE("unknown register %s", name)
	return ""
}

func byWidth(width Width, byteName, longName, quadName string) string {
	switch width {
	case Byte:
		return byteName
	case Long:
		return longName
	case Quad:
		return quadName
	}
	diag.ICE("unsupported register width %s", width)
	return ""
}
