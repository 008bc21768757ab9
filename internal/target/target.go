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

// Package target models the x86-64 target-level IR (C8) and the three
// passes that turn a freshly lowered tacky program into assemblable code:
// Generate (C9), AssignPseudoRegisters (C10), and Legalize (C11), plus the
// pure serializer Emit (C12). Like internal/tacky, every variant is a
// closed tagged interface matched with a type switch rather than a class
// hierarchy with a visitor.
package target

import "fmt"

// Width is an operand/instruction's size class (byte, word, long, quad),
// mirroring AssemblyType. The constants are an enumeration, not byte counts.
type Width int

const (
	Byte Width = iota
	Word
	Long
	Quad
)

func (w Width) String() string {
	switch w {
	case Byte:
		return "byte"
	case Word:
		return "word"
	case Long:
		return "long"
	case Quad:
		return "quad"
	}
	return "?"
}

// RegName is one of the usable x86-64 registers spec §3 names. BP is
// modeled explicitly, unlike original_source's enum (which hardcodes the
// prologue as emitter-side string literals): this package represents the
// prologue as ordinary Push/Mov/AllocateStack instructions, so BP has to be
// an operand like any other register.
type RegName int

const (
	AX RegName = iota
	CX
	DX
	DI
	SI
	R8
	R9
	R10
	R11
	SP
	BP
)

func (r RegName) String() string {
	switch r {
	case AX:
		return "AX"
	case CX:
		return "CX"
	case DX:
		return "DX"
	case DI:
		return "DI"
	case SI:
		return "SI"
	case R8:
		return "R8"
	case R9:
		return "R9"
	case R10:
		return "R10"
	case R11:
		return "R11"
	case SP:
		return "SP"
	case BP:
		return "BP"
	}
	return "?"
}

// CondCode is the condition tested by SetCC/JmpCC. The four unsigned forms
// (CCA/CCAE/CCB/CCBE) are a SUPPLEMENT: original_source's ConditionCode enum
// only has the six signed/equality codes, since its source language has no
// unsigned integer type. This project's frontend does admit UInt32/UInt64,
// so a relational comparison on an unsigned operand needs the unsigned
// condition codes or it would silently misread the sign bit.
type CondCode int

const (
	CCE CondCode = iota
	CCNE
	CCG
	CCGE
	CCL
	CCLE
	CCA
	CCAE
	CCB
	CCBE
)

func (c CondCode) String() string {
	switch c {
	case CCE:
		return "e"
	case CCNE:
		return "ne"
	case CCG:
		return "g"
	case CCGE:
		return "ge"
	case CCL:
		return "l"
	case CCLE:
		return "le"
	case CCA:
		return "a"
	case CCAE:
		return "ae"
	case CCB:
		return "b"
	case CCBE:
		return "be"
	}
	return "?"
}

// UnaryOp is the target-level unary operator set.
type UnaryOp int

const (
	UNeg UnaryOp = iota
	UNot
)

func (o UnaryOp) String() string {
	if o == UNeg {
		return "neg"
	}
	return "not"
}

// BinaryOp is the target-level binary operator set; relational comparisons,
// Divide, and Remainder never reach this form because they lower to
// Cmp/SetCC or Idiv/Div/Cdq sequences instead.
type BinaryOp int

const (
	BAdd BinaryOp = iota
	BSub
	BMul
)

func (o BinaryOp) String() string {
	switch o {
	case BAdd:
		return "add"
	case BSub:
		return "sub"
	case BMul:
		return "imul"
	}
	return "?"
}

// Operand is the closed operand variant: Immediate, Register, PseudoRegister,
// StackAddress, DataOperand.
type Operand interface {
	isOperand()
	String() string
}

type Immediate struct{ Value int64 }

func (Immediate) isOperand()        {}
func (o Immediate) String() string  { return fmt.Sprintf("$%d", o.Value) }

type Register struct {
	Name  RegName
	Width Width
}

func (Register) isOperand()       {}
func (o Register) String() string { return fmt.Sprintf("%%%s(%s)", o.Name, o.Width) }

// PseudoRegister names a temporary not yet assigned to a stack slot or data
// symbol. AssignPseudoRegisters (C10) removes every one of these from the
// tree; none may survive into Legalize (C11).
type PseudoRegister struct{ Name string }

func (PseudoRegister) isOperand()       {}
func (o PseudoRegister) String() string { return "%" + o.Name }

// StackAddress is an offset from BP: negative for a slot in the current
// function's frame (Offset: -12 prints as "-12(%rbp)"), positive for a
// parameter the caller passed on the stack (16, 24, ...).
type StackAddress struct{ Offset int }

func (StackAddress) isOperand()       {}
func (o StackAddress) String() string { return fmt.Sprintf("%d(%%rbp)", o.Offset) }

// DataOperand is a %rip-relative reference to a named file-scope symbol.
type DataOperand struct{ Name string }

func (DataOperand) isOperand()       {}
func (o DataOperand) String() string { return o.Name + "(%rip)" }

// Instruction is the closed target-level instruction variant.
type Instruction interface {
	isInstruction()
}

type Mov struct {
	Width    Width
	Src, Dst Operand
}

func (Mov) isInstruction() {}

// Movsx sign-extends Src into the wider Dst (long -> quad).
type Movsx struct{ Src, Dst Operand }

func (Movsx) isInstruction() {}

// MovZeroExtend zero-extends Src into the wider Dst. SUPPLEMENT alongside
// tacky.ZeroExtend: original_source never needed this because it has no
// unsigned types to widen without sign.
type MovZeroExtend struct{ Src, Dst Operand }

func (MovZeroExtend) isInstruction() {}

type Unary struct {
	Op      UnaryOp
	Width   Width
	Operand Operand
}

func (Unary) isInstruction() {}

type Binary struct {
	Op       BinaryOp
	Width    Width
	Src, Dst Operand
}

func (Binary) isInstruction() {}

type Cmp struct {
	Width    Width
	Src, Dst Operand
}

func (Cmp) isInstruction() {}

// Idiv is signed division/remainder; Div is its SUPPLEMENT unsigned
// counterpart, needed for the same reason the unsigned condition codes are.
type Idiv struct {
	Width   Width
	Operand Operand
}

func (Idiv) isInstruction() {}

type Div struct {
	Width   Width
	Operand Operand
}

func (Div) isInstruction() {}

// Cdq sign-extends AX into DX:AX (cdq for Long, cqo for Quad) ahead of Idiv.
// Unsigned division zeroes DX with a plain Mov instead, so Cdq is never
// emitted on the Div path.
type Cdq struct{ Width Width }

func (Cdq) isInstruction() {}

type Jmp struct{ Target string }

func (Jmp) isInstruction() {}

type JmpCC struct {
	Cond   CondCode
	Target string
}

func (JmpCC) isInstruction() {}

type SetCC struct {
	Cond CondCode
	Dst  Operand
}

func (SetCC) isInstruction() {}

type Label struct{ Name string }

func (Label) isInstruction() {}

// Push always pushes a quad word; a 4-byte memory operand must be widened
// through a register before reaching here (spec §4.5/§4.7).
type Push struct{ Operand Operand }

func (Push) isInstruction() {}

// Call's PLT field is resolved once, at construction time in Generate, by
// consulting the backend symbol table's Defined flag -- unlike
// original_source, which re-derives the same fact at print time in its code
// emitter. Emit stays a pure serializer with no backend-table parameter.
type Call struct {
	Name string
	PLT  bool
}

func (Call) isInstruction() {}

type Ret struct{}

func (Ret) isInstruction() {}

// AllocateStack is a placeholder the function prologue carries from
// Generate (C9) through AssignPseudoRegisters (C10); Legalize (C11)
// rewrites it in place to Binary{BSub, Quad, Immediate{frameSize}, SP} once
// the backend symbol table's StackFrameSize is known. Modeling the
// prologue's stack reservation as an ordinary target-IR instruction, rather
// than as emitter-side special casing, is the literal reading of spec
// §4.5's "an AllocateStack whose size is patched after C10" and matches
// original_source's assembly_ast.h, which keeps the prologue inside the
// function's own instruction list.
type AllocateStack struct{ Size int }

func (AllocateStack) isInstruction() {}

// TopLevel is the closed variant of file-scope target constructs.
type TopLevel interface {
	isTopLevel()
}

type FunctionDefinition struct {
	Name   string
	Global bool
	Body   []Instruction
}

func (*FunctionDefinition) isTopLevel() {}

type StaticVariable struct {
	Name      string
	Global    bool
	Alignment int
	Width     Width // Long or Quad; selects .long/.zero 4 vs .quad/.zero 8
	Init      int64
	Zero      bool
}

func (*StaticVariable) isTopLevel() {}

// Program is the root of the target-level tree for one compilation.
type Program struct {
	TopLevels []TopLevel
}
