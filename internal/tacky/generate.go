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
package tacky

import (
	"sort"

	"subc/internal/ast"
	"subc/internal/diag"
	"subc/internal/namegen"
	"subc/internal/types"
)

// generator carries the IR generator's state for one compilation: the
// accumulating instruction list for the function currently being lowered,
// the shared symbol table (consulted for types and extended with fresh
// temporaries), and the name generator.
type generator struct {
	symtab *types.Table
	gen    *namegen.Generator
	body   []Instruction
}

// Generate lowers a semantically-analyzed program to tacky. prog must
// already have been through sema.ResolveIdentifiers, sema.TypeCheck, and
// sema.LabelLoops.
func Generate(prog *ast.Program, symtab *types.Table, gen *namegen.Generator) *Program {
	g := &generator{symtab: symtab, gen: gen}
	out := &Program{}
	for _, d := range prog.Declarations {
		fn, ok := d.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		out.TopLevels = append(out.TopLevels, g.lowerFunction(fn))
	}
	out.TopLevels = append(out.TopLevels, g.staticVariables()...)
	return out
}

func (g *generator) staticVariables() []TopLevel {
	names := g.symtab.Names()
	sort.Strings(names)
	var out []TopLevel
	for _, name := range names {
		entry, _ := g.symtab.Lookup(name)
		attr, ok := entry.Attribute.(types.StaticAttribute)
		if !ok || attr.Init.Kind == types.NoInit {
			continue
		}
		value := attr.Init.Value
		if attr.Init.Kind == types.Tentative {
			value = types.Constant{Type: entry.Type}
		}
		out = append(out, &StaticVariable{
			Name:      name,
			Global:    attr.Global,
			Type:      entry.Type,
			Initial:   value,
			Tentative: attr.Init.Kind == types.Tentative,
		})
	}
	return out
}

func (g *generator) emit(inst Instruction) {
	g.body = append(g.body, inst)
}

func (g *generator) freshTemp(t types.Type) Value {
	name := g.gen.Temporary("tmp")
	if err := g.symtab.Insert(name, types.Entry{Type: t, Attribute: types.LocalAttribute{}}); err != nil {
		diag.ICE("%s", err)
	}
	return TemporaryVariable{Name: name}
}

func (g *generator) valueType(v Value) types.Type {
	switch v := v.(type) {
	case Constant:
		return v.Const.Type
	case TemporaryVariable:
		entry, ok := g.symtab.Lookup(v.Name)
		if !ok {
			diag.ICE("temporary %s has no symbol table entry", v.Name)
		}
		return entry.Type
	default:
		diag.ICE("unknown tacky value kind %T", v)
	}
	return nil
}

func (g *generator) lowerFunction(fn *ast.FunctionDecl) *FunctionDefinition {
	g.body = nil
	for _, item := range fn.Body.Items {
		if item.Decl != nil {
			g.lowerLocalDecl(item.Decl)
			continue
		}
		g.lowerStatement(item.Stmt)
	}
	if len(g.body) == 0 || !endsInReturn(g.body[len(g.body)-1]) {
		g.emit(Return{Val: Constant{Const: types.Constant{Type: types.Int32, IntVal: 0}}})
	}
	return &FunctionDefinition{
		Name:       fn.Name,
		Global:     fn.StorageClass != ast.Static,
		Parameters: append([]string{}, fn.Params...),
		Body:       g.body,
	}
}

func endsInReturn(i Instruction) bool {
	_, ok := i.(Return)
	return ok
}

func (g *generator) lowerLocalDecl(d ast.Decl) {
	vd, ok := d.(*ast.VariableDecl)
	if !ok {
		return // function declarations carry no storage to lower
	}
	if vd.StorageClass != ast.None {
		return // static/extern locals are materialized from the symbol table, not here
	}
	if vd.Initializer == nil {
		return
	}
	v := g.lowerExpr(vd.Initializer)
	g.emit(Copy{Src: v, Dst: TemporaryVariable{Name: vd.Name}})
}

func breakLabel(l string) string    { return "break_" + l }
func continueLabel(l string) string { return "continue_" + l }

func (g *generator) lowerStatement(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.ReturnStmt:
		if s.Expr == nil {
			g.emit(Return{Val: nil})
			return
		}
		g.emit(Return{Val: g.lowerExpr(s.Expr)})
	case *ast.ExpressionStmt:
		g.lowerExpr(s.Expr)
	case *ast.NullStmt:
		// nothing
	case *ast.IfStmt:
		g.lowerIf(s)
	case *ast.CompoundStmt:
		for _, item := range s.Block.Items {
			if item.Decl != nil {
				g.lowerLocalDecl(item.Decl)
				continue
			}
			g.lowerStatement(item.Stmt)
		}
	case *ast.WhileStmt:
		g.lowerWhile(s)
	case *ast.DoWhileStmt:
		g.lowerDoWhile(s)
	case *ast.ForStmt:
		g.lowerFor(s)
	case *ast.BreakStmt:
		g.emit(Jump{Target: breakLabel(s.Label)})
	case *ast.ContinueStmt:
		g.emit(Jump{Target: continueLabel(s.Label)})
	default:
		diag.ICE("unknown statement kind %T", s)
	}
}

func (g *generator) lowerIf(s *ast.IfStmt) {
	cond := g.lowerExpr(s.Cond)
	elseLabel := g.gen.Label("if_else")
	endLabel := g.gen.Label("if_end")
	if s.Else == nil {
		g.emit(JumpIfZero{Cond: cond, Target: endLabel})
		g.lowerStatement(s.Then)
		g.emit(Label{Name: endLabel})
		return
	}
	g.emit(JumpIfZero{Cond: cond, Target: elseLabel})
	g.lowerStatement(s.Then)
	g.emit(Jump{Target: endLabel})
	g.emit(Label{Name: elseLabel})
	g.lowerStatement(s.Else)
	g.emit(Label{Name: endLabel})
}

func (g *generator) lowerWhile(s *ast.WhileStmt) {
	contL := continueLabel(s.Label)
	breakL := breakLabel(s.Label)
	g.emit(Label{Name: contL})
	cond := g.lowerExpr(s.Cond)
	g.emit(JumpIfZero{Cond: cond, Target: breakL})
	g.lowerStatement(s.Body)
	g.emit(Jump{Target: contL})
	g.emit(Label{Name: breakL})
}

func (g *generator) lowerDoWhile(s *ast.DoWhileStmt) {
	startL := g.gen.Label("do_while_start")
	contL := continueLabel(s.Label)
	breakL := breakLabel(s.Label)
	g.emit(Label{Name: startL})
	g.lowerStatement(s.Body)
	g.emit(Label{Name: contL})
	cond := g.lowerExpr(s.Cond)
	g.emit(JumpIfNotZero{Cond: cond, Target: startL})
	g.emit(Label{Name: breakL})
}

func (g *generator) lowerFor(s *ast.ForStmt) {
	if s.Init.Decl != nil {
		g.lowerLocalDecl(s.Init.Decl)
	} else if s.Init.Expr != nil {
		g.lowerExpr(s.Init.Expr)
	}
	startL := g.gen.Label("for_start")
	contL := continueLabel(s.Label)
	breakL := breakLabel(s.Label)
	g.emit(Label{Name: startL})
	if s.Cond != nil {
		cond := g.lowerExpr(s.Cond)
		g.emit(JumpIfZero{Cond: cond, Target: breakL})
	}
	g.lowerStatement(s.Body)
	g.emit(Label{Name: contL})
	if s.Post != nil {
		g.lowerExpr(s.Post)
	}
	g.emit(Jump{Target: startL})
	g.emit(Label{Name: breakL})
}

func (g *generator) lowerExpr(e ast.Expr) Value {
	switch e := e.(type) {
	case *ast.ConstantExpr:
		return Constant{Const: e.Value}
	case *ast.VarExpr:
		return TemporaryVariable{Name: e.Name}
	case *ast.CastExpr:
		return g.lowerCast(e)
	case *ast.UnaryExpr:
		return g.lowerUnary(e)
	case *ast.BinaryExpr:
		return g.lowerBinary(e)
	case *ast.AssignmentExpr:
		return g.lowerAssignment(e)
	case *ast.ConditionalExpr:
		return g.lowerConditional(e)
	case *ast.FunctionCallExpr:
		return g.lowerCall(e)
	default:
		diag.ICE("unknown expression kind %T", e)
	}
	return nil
}

func (g *generator) lowerCast(e *ast.CastExpr) Value {
	src := g.lowerExpr(e.Inner)
	from := g.valueType(src)
	to := e.Target
	return g.convert(src, from, to)
}

// convert emits the widening/narrowing instruction spec §4.5's
// SignExtend/Truncate table calls for, plus the ZeroExtend form the
// SUPPLEMENT unsigned-type surface needs for an unsigned source widening to
// a wider type.
func (g *generator) convert(src Value, from, to types.Type) Value {
	if from.Equal(to) {
		return src
	}
	dst := g.freshTemp(to)
	switch {
	case to.Size() == from.Size():
		g.emit(Copy{Src: src, Dst: dst})
	case to.Size() < from.Size():
		g.emit(Truncate{Src: src, Dst: dst})
	case types.IsSigned(from):
		g.emit(SignExtend{Src: src, Dst: dst})
	default:
		g.emit(ZeroExtend{Src: src, Dst: dst})
	}
	return dst
}

func toTackyUnaryOp(op ast.UnaryOp) UnaryOp {
	switch op {
	case ast.Complement:
		return Complement
	case ast.Negate:
		return Negate
	case ast.Not:
		return Not
	}
	diag.ICE("unknown unary operator %d", op)
	return 0
}

func toTackyBinaryOp(op ast.BinaryOp) BinaryOp {
	switch op {
	case ast.Add:
		return Add
	case ast.Subtract:
		return Subtract
	case ast.Multiply:
		return Multiply
	case ast.Divide:
		return Divide
	case ast.Remainder:
		return Remainder
	case ast.Equal:
		return Equal
	case ast.NotEqual:
		return NotEqual
	case ast.LessThan:
		return LessThan
	case ast.LessOrEqual:
		return LessOrEqual
	case ast.GreaterThan:
		return GreaterThan
	case ast.GreaterOrEqual:
		return GreaterOrEqual
	}
	diag.ICE("unknown binary operator %d", op)
	return 0
}

func (g *generator) lowerUnary(e *ast.UnaryExpr) Value {
	src := g.lowerExpr(e.Operand)
	dst := g.freshTemp(e.Type())
	g.emit(Unary{Op: toTackyUnaryOp(e.Op), Src: src, Dst: dst})
	return dst
}

func (g *generator) lowerBinary(e *ast.BinaryExpr) Value {
	if e.Op == ast.LogicalAnd {
		return g.lowerLogicalAnd(e)
	}
	if e.Op == ast.LogicalOr {
		return g.lowerLogicalOr(e)
	}
	s1 := g.lowerExpr(e.Left)
	s2 := g.lowerExpr(e.Right)
	dst := g.freshTemp(e.Type())
	g.emit(Binary{Op: toTackyBinaryOp(e.Op), Src1: s1, Src2: s2, Dst: dst})
	return dst
}

func (g *generator) lowerLogicalAnd(e *ast.BinaryExpr) Value {
	falseL := g.gen.Label("and_false")
	endL := g.gen.Label("and_end")
	dst := g.freshTemp(e.Type())
	va := g.lowerExpr(e.Left)
	g.emit(JumpIfZero{Cond: va, Target: falseL})
	vb := g.lowerExpr(e.Right)
	g.emit(JumpIfZero{Cond: vb, Target: falseL})
	g.emit(Copy{Src: Constant{Const: types.Constant{Type: types.Int32, IntVal: 1}}, Dst: dst})
	g.emit(Jump{Target: endL})
	g.emit(Label{Name: falseL})
	g.emit(Copy{Src: Constant{Const: types.Constant{Type: types.Int32, IntVal: 0}}, Dst: dst})
	g.emit(Label{Name: endL})
	return dst
}

func (g *generator) lowerLogicalOr(e *ast.BinaryExpr) Value {
	trueL := g.gen.Label("or_true")
	endL := g.gen.Label("or_end")
	dst := g.freshTemp(e.Type())
	va := g.lowerExpr(e.Left)
	g.emit(JumpIfNotZero{Cond: va, Target: trueL})
	vb := g.lowerExpr(e.Right)
	g.emit(JumpIfNotZero{Cond: vb, Target: trueL})
	g.emit(Copy{Src: Constant{Const: types.Constant{Type: types.Int32, IntVal: 0}}, Dst: dst})
	g.emit(Jump{Target: endL})
	g.emit(Label{Name: trueL})
	g.emit(Copy{Src: Constant{Const: types.Constant{Type: types.Int32, IntVal: 1}}, Dst: dst})
	g.emit(Label{Name: endL})
	return dst
}

func (g *generator) lowerAssignment(e *ast.AssignmentExpr) Value {
	v := g.lowerExpr(e.Right)
	varExpr, ok := e.Left.(*ast.VarExpr)
	if !ok {
		diag.ICE("assignment target is not a VarExpr after identifier resolution")
	}
	dst := TemporaryVariable{Name: varExpr.Name}
	g.emit(Copy{Src: v, Dst: dst})
	return dst
}

func (g *generator) lowerConditional(e *ast.ConditionalExpr) Value {
	elseL := g.gen.Label("cond_else")
	endL := g.gen.Label("cond_end")
	dst := g.freshTemp(e.Type())
	cond := g.lowerExpr(e.Cond)
	g.emit(JumpIfZero{Cond: cond, Target: elseL})
	thenV := g.lowerExpr(e.Then)
	g.emit(Copy{Src: thenV, Dst: dst})
	g.emit(Jump{Target: endL})
	g.emit(Label{Name: elseL})
	elseV := g.lowerExpr(e.Else)
	g.emit(Copy{Src: elseV, Dst: dst})
	g.emit(Label{Name: endL})
	return dst
}

func (g *generator) lowerCall(e *ast.FunctionCallExpr) Value {
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = g.lowerExpr(a)
	}
	if e.Type() == nil {
		g.emit(FunctionCall{Name: e.Name, Args: args, Dst: nil})
		return Constant{Const: types.Constant{Type: types.Int32, IntVal: 0}}
	}
	dst := g.freshTemp(e.Type())
	g.emit(FunctionCall{Name: e.Name, Args: args, Dst: dst})
	return dst
}
