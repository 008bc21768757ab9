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
	"subc/internal/diag"
	"subc/internal/tacky"
	"subc/internal/types"
)

// argRegisters is the System V integer/pointer argument register order,
// spec §4.6's "the first six integer arguments go in DI, SI, DX, CX, R8,
// R9".
var argRegisters = [6]RegName{DI, SI, DX, CX, R8, R9}

// Generate lowers a tacky program into the target-level tree (C9),
// producing alongside it the backend symbol table (C8's secondary table)
// that Generate itself (for each Call's @PLT flag), AssignPseudoRegisters,
// and Legalize consult; Emit takes no table. Grounded on
// assembly_generator.cpp's transform_program, which builds its backend
// symbol table before transforming a single instruction.
func Generate(prog *tacky.Program, symtab *types.Table) (*Program, *BackendTable) {
	g := &generator{symtab: symtab, backend: NewBackendTable()}
	g.buildBackendTable()

	out := &Program{}
	for _, tl := range prog.TopLevels {
		out.TopLevels = append(out.TopLevels, g.transformTopLevel(tl))
	}
	return out, g.backend
}

type generator struct {
	symtab  *types.Table
	backend *BackendTable
}

// buildBackendTable mirrors generate_backend_symbol_table: every name the
// frontend's symbol table knows about, including compiler-generated
// temporaries (tacky.Generate inserts each fresh temporary as a
// LocalAttribute entry), gets a matching backend entry before any
// instruction is transformed.
func (g *generator) buildBackendTable() {
	for _, name := range g.symtab.Names() {
		entry, _ := g.symtab.Lookup(name)
		switch attr := entry.Attribute.(type) {
		case types.FunctionAttribute:
			g.backend.InsertFunction(name, FunctionEntry{Defined: attr.Defined})
		case types.StaticAttribute:
			g.backend.InsertObject(name, ObjectEntry{Width: widthOf(entry.Type), IsStatic: true})
		case types.LocalAttribute:
			g.backend.InsertObject(name, ObjectEntry{Width: widthOf(entry.Type), IsStatic: false})
		default:
			diag.ICE("symbol %q has unknown attribute type %T", name, entry.Attribute)
		}
	}
}

// widthOf maps a frontend type onto its target-level storage width.
// types.Double reaches here only because the frontend type-checks it
// generically (sema/typecheck.go never rejects a double declaration);
// floating-point codegen is an explicit Non-goal, so this is the single
// place that turns a user's double into a compile failure instead of
// silently misencoding it.
func widthOf(t types.Type) Width {
	switch t {
	case types.Int32, types.UInt32:
		return Long
	case types.Int64, types.UInt64:
		return Quad
	case types.Double:
		diag.ICE("floating-point codegen is not supported")
	}
	diag.ICE("cannot size target type %s", t)
	return 0
}

func (g *generator) typeOfName(name string) types.Type {
	entry, ok := g.symtab.Lookup(name)
	if !ok {
		diag.ICE("identifier %q missing from symbol table", name)
	}
	return entry.Type
}

func (g *generator) typeOfValue(v tacky.Value) types.Type {
	switch val := v.(type) {
	case tacky.Constant:
		return val.Const.Type
	case tacky.TemporaryVariable:
		return g.typeOfName(val.Name)
	}
	diag.ICE("unknown tacky value %T", v)
	return nil
}

func (g *generator) widthOfValue(v tacky.Value) Width {
	return widthOf(g.typeOfValue(v))
}

func (g *generator) isSignedValue(v tacky.Value) bool {
	return types.IsSigned(g.typeOfValue(v))
}

// transformOperand maps a tacky.Value onto its target-level operand,
// mirroring transform_operand: a Constant becomes an Immediate, a
// TemporaryVariable becomes a PseudoRegister awaiting AssignPseudoRegisters.
func (g *generator) transformOperand(v tacky.Value) Operand {
	switch val := v.(type) {
	case tacky.Constant:
		return Immediate{Value: val.Const.IntVal}
	case tacky.TemporaryVariable:
		return PseudoRegister{Name: val.Name}
	}
	diag.ICE("unknown tacky value %T", v)
	return nil
}

func (g *generator) transformTopLevel(tl tacky.TopLevel) TopLevel {
	switch t := tl.(type) {
	case *tacky.FunctionDefinition:
		return g.transformFunction(t)
	case *tacky.StaticVariable:
		return g.transformStaticVariable(t)
	}
	diag.ICE("unknown tacky top level %T", tl)
	return nil
}

// transformStaticVariable mirrors code_emitter.cpp's visit(StaticVariable&)
// decision to pick .bss vs .data purely from whether the stored value is
// zero, independent of Tentative -- an explicit "= 0" initializer still
// lands in .bss once linked.
func (g *generator) transformStaticVariable(sv *tacky.StaticVariable) *StaticVariable {
	return &StaticVariable{
		Name:      sv.Name,
		Global:    sv.Global,
		Alignment: sv.Type.Align(),
		Width:     widthOf(sv.Type),
		Init:      sv.Initial.IntVal,
		Zero:      sv.Initial.IsZero(),
	}
}

// transformFunction mirrors transform_function's parameter-placement logic,
// then additionally emits the prologue as literal instructions (Push,
// Mov, AllocateStack) per SPEC_FULL.md's SUPPLEMENT, rather than leaving it
// for the emitter to hardcode the way code_emitter.cpp's
// visit(FunctionDefinition&) does.
func (g *generator) transformFunction(fn *tacky.FunctionDefinition) *FunctionDefinition {
	out := &FunctionDefinition{Name: fn.Name, Global: fn.Global}

	out.Body = append(out.Body,
		Push{Operand: Register{Name: BP, Width: Quad}},
		Mov{Width: Quad, Src: Register{Name: SP, Width: Quad}, Dst: Register{Name: BP, Width: Quad}},
		AllocateStack{Size: 0},
	)

	for i, param := range fn.Parameters {
		width := widthOf(g.typeOfName(param))
		dst := PseudoRegister{Name: param}
		if i < len(argRegisters) {
			out.Body = append(out.Body, Mov{Width: width, Src: Register{Name: argRegisters[i], Width: width}, Dst: dst})
		} else {
			// Stack parameters sit above the return address the caller
			// pushed: the first starts at 16(%rbp), each next one 8 bytes
			// further out. This is a real address, not a pseudo-register, so
			// AssignPseudoRegisters must never touch it.
			offset := 16 + 8*(i-len(argRegisters))
			out.Body = append(out.Body, Mov{Width: width, Src: StackAddress{Offset: offset}, Dst: dst})
		}
	}

	for _, inst := range fn.Body {
		out.Body = append(out.Body, g.transformInstruction(inst)...)
	}
	return out
}

// transformInstruction mirrors transform_instruction's dispatch, returning
// the (possibly multi-instruction) target-level expansion of one tacky
// instruction.
func (g *generator) transformInstruction(inst tacky.Instruction) []Instruction {
	switch i := inst.(type) {
	case tacky.Return:
		width := g.widthOfValue(i.Val)
		return []Instruction{
			Mov{Width: width, Src: g.transformOperand(i.Val), Dst: Register{Name: AX, Width: width}},
			Ret{},
		}

	case tacky.Unary:
		return g.transformUnary(i)

	case tacky.Binary:
		return g.transformBinary(i)

	case tacky.Copy:
		width := g.widthOfValue(i.Src)
		return []Instruction{Mov{Width: width, Src: g.transformOperand(i.Src), Dst: g.transformOperand(i.Dst)}}

	case tacky.Jump:
		return []Instruction{Jmp{Target: i.Target}}

	case tacky.JumpIfZero:
		width := g.widthOfValue(i.Cond)
		return []Instruction{
			Cmp{Width: width, Src: Immediate{0}, Dst: g.transformOperand(i.Cond)},
			JmpCC{Cond: CCE, Target: i.Target},
		}

	case tacky.JumpIfNotZero:
		width := g.widthOfValue(i.Cond)
		return []Instruction{
			Cmp{Width: width, Src: Immediate{0}, Dst: g.transformOperand(i.Cond)},
			JmpCC{Cond: CCNE, Target: i.Target},
		}

	case tacky.Label:
		return []Instruction{Label{Name: i.Name}}

	case tacky.FunctionCall:
		return g.transformCall(i)

	case tacky.SignExtend:
		return []Instruction{Movsx{Src: g.transformOperand(i.Src), Dst: g.transformOperand(i.Dst)}}

	case tacky.Truncate:
		// Always targets Long: the only narrowing this language performs is
		// to int/unsigned int, both 4 bytes (transform_truncate_instruction).
		return []Instruction{Mov{Width: Long, Src: g.transformOperand(i.Src), Dst: g.transformOperand(i.Dst)}}

	case tacky.ZeroExtend:
		return []Instruction{MovZeroExtend{Src: g.transformOperand(i.Src), Dst: g.transformOperand(i.Dst)}}
	}
	diag.ICE("unknown tacky instruction %T", inst)
	return nil
}

func (g *generator) transformUnary(i tacky.Unary) []Instruction {
	width := g.widthOfValue(i.Src)
	srcOp := g.transformOperand(i.Src)
	dstOp := g.transformOperand(i.Dst)

	if i.Op == tacky.Not {
		// !x tests x against zero rather than applying a bitwise operator,
		// so the destination's own (possibly different) width governs the
		// zeroing Mov while the comparison uses the source's width.
		return []Instruction{
			Cmp{Width: width, Src: Immediate{0}, Dst: srcOp},
			Mov{Width: g.widthOfValue(i.Dst), Src: Immediate{0}, Dst: dstOp},
			SetCC{Cond: CCE, Dst: dstOp},
		}
	}

	var op UnaryOp
	switch i.Op {
	case tacky.Complement:
		op = UNot
	case tacky.Negate:
		op = UNeg
	default:
		diag.ICE("unexpected unary operator %v in codegen", i.Op)
	}
	return []Instruction{
		Mov{Width: width, Src: srcOp, Dst: dstOp},
		Unary{Op: op, Width: width, Operand: dstOp},
	}
}

func (g *generator) transformBinary(i tacky.Binary) []Instruction {
	if i.Op.IsRelational() {
		width := g.widthOfValue(i.Src1)
		cc := relationalCondCode(i.Op, g.isSignedValue(i.Src1))
		return []Instruction{
			Cmp{Width: width, Src: g.transformOperand(i.Src2), Dst: g.transformOperand(i.Src1)},
			Mov{Width: g.widthOfValue(i.Dst), Src: Immediate{0}, Dst: g.transformOperand(i.Dst)},
			SetCC{Cond: cc, Dst: g.transformOperand(i.Dst)},
		}
	}

	if i.Op == tacky.Divide || i.Op == tacky.Remainder {
		width := g.widthOfValue(i.Src1)
		signed := g.isSignedValue(i.Src1)
		resultReg := AX
		if i.Op == tacky.Remainder {
			resultReg = DX
		}
		seq := []Instruction{
			Mov{Width: width, Src: g.transformOperand(i.Src1), Dst: Register{Name: AX, Width: width}},
		}
		if signed {
			seq = append(seq,
				Cdq{Width: width},
				Idiv{Width: width, Operand: g.transformOperand(i.Src2)},
			)
		} else {
			seq = append(seq,
				Mov{Width: width, Src: Immediate{0}, Dst: Register{Name: DX, Width: width}},
				Div{Width: width, Operand: g.transformOperand(i.Src2)},
			)
		}
		seq = append(seq, Mov{Width: width, Src: Register{Name: resultReg, Width: width}, Dst: g.transformOperand(i.Dst)})
		return seq
	}

	width := g.widthOfValue(i.Src1)
	var op BinaryOp
	switch i.Op {
	case tacky.Add:
		op = BAdd
	case tacky.Subtract:
		op = BSub
	case tacky.Multiply:
		op = BMul
	default:
		diag.ICE("unexpected binary operator %v in codegen", i.Op)
	}
	return []Instruction{
		Mov{Width: width, Src: g.transformOperand(i.Src1), Dst: g.transformOperand(i.Dst)},
		Binary{Op: op, Width: width, Src: g.transformOperand(i.Src2), Dst: g.transformOperand(i.Dst)},
	}
}

func relationalCondCode(op tacky.BinaryOp, signed bool) CondCode {
	switch op {
	case tacky.Equal:
		return CCE
	case tacky.NotEqual:
		return CCNE
	case tacky.LessThan:
		if signed {
			return CCL
		}
		return CCB
	case tacky.LessOrEqual:
		if signed {
			return CCLE
		}
		return CCBE
	case tacky.GreaterThan:
		if signed {
			return CCG
		}
		return CCA
	case tacky.GreaterOrEqual:
		if signed {
			return CCGE
		}
		return CCAE
	}
	diag.ICE("unexpected relational operator %v in codegen", op)
	return 0
}

// transformCall mirrors transform_function_call_instruction's full System V
// calling-convention expansion: register arguments, right-to-left stack
// arguments with a conditional 8-byte alignment pad, the call itself
// (resolving its @PLT suffix here rather than at print time), stack
// cleanup, and the return-value move.
func (g *generator) transformCall(i tacky.FunctionCall) []Instruction {
	var regArgs, stackArgs []tacky.Value
	if len(i.Args) > len(argRegisters) {
		regArgs = i.Args[:len(argRegisters)]
		stackArgs = i.Args[len(argRegisters):]
	} else {
		regArgs = i.Args
	}

	stackPadding := 0
	if len(stackArgs)%2 != 0 {
		stackPadding = 8
	}

	var seq []Instruction
	if stackPadding != 0 {
		seq = append(seq, Binary{Op: BSub, Width: Quad, Src: Immediate{int64(stackPadding)}, Dst: Register{Name: SP, Width: Quad}})
	}

	for idx, arg := range regArgs {
		width := g.widthOfValue(arg)
		seq = append(seq, Mov{Width: width, Src: g.transformOperand(arg), Dst: Register{Name: argRegisters[idx], Width: width}})
	}

	for idx := len(stackArgs) - 1; idx >= 0; idx-- {
		arg := stackArgs[idx]
		width := g.widthOfValue(arg)
		op := g.transformOperand(arg)
		if width == Quad {
			seq = append(seq, Push{Operand: op})
			continue
		}
		// A 4-byte value can't be pushed on its own: shuttle it through AX
		// and push the full 8-byte register instead (Push always pushes a
		// quad word).
		seq = append(seq,
			Mov{Width: Long, Src: op, Dst: Register{Name: AX, Width: Long}},
			Push{Operand: Register{Name: AX, Width: Quad}},
		)
	}

	defined := false
	if entry, ok := g.backend.Function(i.Name); ok {
		defined = entry.Defined
	}
	seq = append(seq, Call{Name: i.Name, PLT: !defined})

	stackBytesToRemove := 8*len(stackArgs) + stackPadding
	if stackBytesToRemove != 0 {
		seq = append(seq, Binary{Op: BAdd, Width: Quad, Src: Immediate{int64(stackBytesToRemove)}, Dst: Register{Name: SP, Width: Quad}})
	}

	if i.Dst != nil {
		width := g.widthOfValue(i.Dst)
		seq = append(seq, Mov{Width: width, Src: Register{Name: AX, Width: width}, Dst: g.transformOperand(i.Dst)})
	}
	return seq
}
