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

// Package ast models the syntax tree: expressions, statements,
// declarations, and the program root. Every node kind is a closed tagged
// variant matched with a type switch, never a class hierarchy with a
// visitor. No node references an ancestor; a Break/Continue refers back to
// its loop only through a label string, looked up by name.
package ast

import (
	"fmt"
	"strings"

	"subc/internal/diag"
	"subc/internal/types"
)

// Node is implemented by every syntax tree node.
type Node interface {
	String() string
}

// Expr is implemented by every expression node. Type is nil until the type
// checker (C5.b) annotates it; after that pass every Expr's Type is non-nil.
type Expr interface {
	Node
	exprNode()
	Type() types.Type
	SetType(types.Type)
	Location() diag.Location
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is implemented by every declaration node.
type Decl interface {
	Node
	declNode()
}

// ExprInfo supplies Type/SetType/Location to every Expr via embedding, the
// way the teacher's ast.Expr base does for its own expression types. Its
// fields are exported so callers outside this package can build expression
// literals with keyed fields (Go forbids unkeyed literals that would
// implicitly set an unexported field from another package).
type ExprInfo struct {
	Typ types.Type
	Loc diag.Location
}

func (e *ExprInfo) exprNode()                  {}
func (e *ExprInfo) Type() types.Type           { return e.Typ }
func (e *ExprInfo) SetType(t types.Type)       { e.Typ = t }
func (e *ExprInfo) Location() diag.Location    { return e.Loc }

// -----------------------------------------------------------------------------
// Operators

type UnaryOp int

const (
	Complement UnaryOp = iota
	Negate
	Not
)

func (o UnaryOp) String() string {
	switch o {
	case Complement:
		return "~"
	case Negate:
		return "-"
	case Not:
		return "!"
	default:
		diag.ICE("unknown unary operator %d", o)
	}
	return ""
}

type BinaryOp int

const (
	Add BinaryOp = iota
	Subtract
	Multiply
	Divide
	Remainder
	Equal
	NotEqual
	LessThan
	LessOrEqual
	GreaterThan
	GreaterOrEqual
	LogicalAnd
	LogicalOr
)

func (o BinaryOp) String() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Remainder:
		return "%"
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterOrEqual:
		return ">="
	case LogicalAnd:
		return "&&"
	case LogicalOr:
		return "||"
	default:
		diag.ICE("unknown binary operator %d", o)
	}
	return ""
}

// IsRelational reports whether o is a comparison operator, which always
// yields Int32 regardless of its operands' type.
func (o BinaryOp) IsRelational() bool {
	switch o {
	case Equal, NotEqual, LessThan, LessOrEqual, GreaterThan, GreaterOrEqual:
		return true
	}
	return false
}

// IsShortCircuit reports whether o is && or ||, which get special lowering.
func (o BinaryOp) IsShortCircuit() bool {
	return o == LogicalAnd || o == LogicalOr
}

// StorageClass is the optional storage-class specifier on a declaration.
type StorageClass int

const (
	None StorageClass = iota
	Static
	Extern
)

// -----------------------------------------------------------------------------
// Expressions

type ConstantExpr struct {
	ExprInfo
	Value types.Constant
}

func (e *ConstantExpr) String() string { return e.Value.String() }

type VarExpr struct {
	ExprInfo
	Name string // renamed in place by identifier resolution
}

func (e *VarExpr) String() string { return e.Name }

type CastExpr struct {
	ExprInfo
	Target types.Type
	Inner  Expr
}

func (e *CastExpr) String() string { return fmt.Sprintf("(%s)%s", e.Target, e.Inner) }

type UnaryExpr struct {
	ExprInfo
	Op      UnaryOp
	Operand Expr
}

func (e *UnaryExpr) String() string { return fmt.Sprintf("(%s%s)", e.Op, e.Operand) }

type BinaryExpr struct {
	ExprInfo
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) String() string { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

type AssignmentExpr struct {
	ExprInfo
	Left  Expr // must be an lvalue: VarExpr (today's subset)
	Right Expr
}

func (e *AssignmentExpr) String() string { return fmt.Sprintf("(%s = %s)", e.Left, e.Right) }

type ConditionalExpr struct {
	ExprInfo
	Cond Expr
	Then Expr
	Else Expr
}

func (e *ConditionalExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Cond, e.Then, e.Else)
}

type FunctionCallExpr struct {
	ExprInfo
	Name string
	Args []Expr
}

func (e *FunctionCallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
}

// -----------------------------------------------------------------------------
// Statements

type ReturnStmt struct {
	Loc  diag.Location
	Expr Expr // nil for `return;` in a void function
}

func (s *ReturnStmt) stmtNode() {}
func (s *ReturnStmt) String() string {
	if s.Expr == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Expr)
}

type ExpressionStmt struct {
	Loc  diag.Location
	Expr Expr
}

func (s *ExpressionStmt) stmtNode() {}
func (s *ExpressionStmt) String() string {
	return s.Expr.String() + ";"
}

type NullStmt struct {
	Loc diag.Location
}

func (s *NullStmt) stmtNode()        {}
func (s *NullStmt) String() string   { return ";" }

type IfStmt struct {
	Loc  diag.Location
	Cond Expr
	Then Stmt
	Else Stmt // nil when there is no else branch
}

func (s *IfStmt) stmtNode() {}
func (s *IfStmt) String() string {
	if s.Else == nil {
		return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
	}
	return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
}

type CompoundStmt struct {
	Loc   diag.Location
	Block *Block
}

func (s *CompoundStmt) stmtNode()      {}
func (s *CompoundStmt) String() string { return s.Block.String() }

// WhileStmt, DoWhileStmt, and ForStmt each carry Label, filled in by loop
// labeling (C5.c) and consulted when a Break/Continue inside the body is
// lowered.
type WhileStmt struct {
	Loc   diag.Location
	Cond  Expr
	Body  Stmt
	Label string
}

func (s *WhileStmt) stmtNode() {}
func (s *WhileStmt) String() string {
	return fmt.Sprintf("while (%s) %s", s.Cond, s.Body)
}

type DoWhileStmt struct {
	Loc   diag.Location
	Body  Stmt
	Cond  Expr
	Label string
}

func (s *DoWhileStmt) stmtNode() {}
func (s *DoWhileStmt) String() string {
	return fmt.Sprintf("do %s while (%s);", s.Body, s.Cond)
}

// ForInit is either a variable declaration or an optional expression,
// exactly the two forms C's for-header init-clause allows.
type ForInit struct {
	Decl *VariableDecl // non-nil for `for (int i = 0; ...)`
	Expr Expr          // non-nil for `for (i = 0; ...)`; both nil for `for (;;)`
}

type ForStmt struct {
	Loc   diag.Location
	Init  ForInit
	Cond  Expr // nil means "always true"
	Post  Expr // nil means no post-expression
	Body  Stmt
	Label string
}

func (s *ForStmt) stmtNode() {}
func (s *ForStmt) String() string {
	return fmt.Sprintf("for (...; %s; %s) %s", s.Cond, s.Post, s.Body)
}

type BreakStmt struct {
	Loc   diag.Location
	Label string // filled by loop labeling; copied from the enclosing loop
}

func (s *BreakStmt) stmtNode()        {}
func (s *BreakStmt) String() string   { return "break;" }

type ContinueStmt struct {
	Loc   diag.Location
	Label string
}

func (s *ContinueStmt) stmtNode()      {}
func (s *ContinueStmt) String() string { return "continue;" }

// -----------------------------------------------------------------------------
// Block & declarations

// BlockItem is either a Decl or a Stmt; exactly one field is non-nil.
type BlockItem struct {
	Decl Decl
	Stmt Stmt
}

func (b BlockItem) String() string {
	if b.Decl != nil {
		return b.Decl.String()
	}
	return b.Stmt.String()
}

// Block is an ordered sequence of block items, the body of a compound
// statement or a function.
type Block struct {
	Items []BlockItem
}

func (b *Block) String() string {
	parts := make([]string, len(b.Items))
	for i, it := range b.Items {
		parts[i] = it.String()
	}
	return "{\n  " + strings.Join(parts, "\n  ") + "\n}"
}

type VariableDecl struct {
	Loc          diag.Location
	Name         string // renamed in place by identifier resolution
	Type         types.Type
	StorageClass StorageClass
	Initializer  Expr // nil when there is none
}

func (d *VariableDecl) declNode() {}
func (d *VariableDecl) String() string {
	if d.Initializer == nil {
		return fmt.Sprintf("%s %s;", d.Type, d.Name)
	}
	return fmt.Sprintf("%s %s = %s;", d.Type, d.Name, d.Initializer)
}

type FunctionDecl struct {
	Loc          diag.Location
	Name         string
	ReturnType   types.Type
	Params       []string
	ParamTypes   []types.Type
	StorageClass StorageClass
	Body         *Block // nil for a declaration with no definition
}

func (d *FunctionDecl) declNode() {}
func (d *FunctionDecl) String() string {
	if d.Body == nil {
		return fmt.Sprintf("%s %s(...);", d.ReturnType, d.Name)
	}
	return fmt.Sprintf("%s %s(...) %s", d.ReturnType, d.Name, d.Body)
}

// Program is the root of every syntax tree: an ordered list of file-scope
// declarations.
type Program struct {
	Declarations []Decl
}

func (p *Program) String() string {
	parts := make([]string, len(p.Declarations))
	for i, d := range p.Declarations {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n\n")
}
