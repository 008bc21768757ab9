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
package sema

import (
	"subc/internal/ast"
	"subc/internal/diag"
	"subc/internal/types"
)

// checker carries the type-checking pass' state: the symbol table being
// populated and the warning manager constant folding reports through.
type checker struct {
	symtab *types.Table
	warn   *diag.WarningManager
}

// TypeCheck annotates every Expr in prog with its Type, populates symtab
// with one entry per declaration, and converts every static initializer to
// its declared type. It assumes identifier resolution (ResolveIdentifiers)
// has already run so every VarExpr/FunctionCallExpr name is
// already the tree's final spelling.
func TypeCheck(prog *ast.Program, symtab *types.Table, warn *diag.WarningManager) error {
	c := &checker{symtab: symtab, warn: warn}
	for _, d := range prog.Declarations {
		switch d := d.(type) {
		case *ast.FunctionDecl:
			if err := c.checkFunctionDecl(d, true); err != nil {
				return err
			}
		case *ast.VariableDecl:
			if err := c.checkFileVariable(d); err != nil {
				return err
			}
		default:
			diag.ICE("unknown top-level declaration kind %T", d)
		}
	}
	return nil
}

func functionType(d *ast.FunctionDecl) *types.Function {
	return &types.Function{Return: d.ReturnType, Params: append([]types.Type{}, d.ParamTypes...)}
}

func (c *checker) checkFunctionDecl(d *ast.FunctionDecl, fileScope bool) error {
	fnType := functionType(d)
	defined := d.Body != nil
	global := d.StorageClass != ast.Static

	if existing, ok := c.symtab.Lookup(d.Name); ok {
		if !existing.Type.Equal(fnType) {
			return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "incompatible redeclaration of function " + d.Name}
		}
		attr, ok := existing.Attribute.(types.FunctionAttribute)
		if !ok {
			diag.ICE("function symbol %s carries a non-function attribute", d.Name)
		}
		if attr.Defined && defined {
			return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "redefinition of function " + d.Name}
		}
		if d.StorageClass == ast.Static && attr.Global {
			return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "static declaration of " + d.Name + " follows non-static declaration"}
		}
		global = attr.Global && global
		c.symtab.Refine(d.Name, types.Entry{
			Type:      fnType,
			Attribute: types.FunctionAttribute{Defined: attr.Defined || defined, Global: global},
		})
	} else {
		if err := c.symtab.Insert(d.Name, types.Entry{
			Type:      fnType,
			Attribute: types.FunctionAttribute{Defined: defined, Global: global},
		}); err != nil {
			diag.ICE("%s", err)
		}
	}

	if !defined {
		return nil
	}
	if !fileScope {
		diag.ICE("function %s defined outside file scope reached type checking", d.Name)
	}
	for i, p := range d.Params {
		if err := c.symtab.Insert(p, types.Entry{Type: d.ParamTypes[i], Attribute: types.LocalAttribute{}}); err != nil {
			diag.ICE("%s", err)
		}
	}
	return c.checkBlock(d.Body, d.ReturnType)
}

func (c *checker) checkFileVariable(d *ast.VariableDecl) error {
	var init types.StaticInitializer
	switch {
	case d.Initializer != nil:
		v, err := c.constantExpr(d.Initializer, d.Type)
		if err != nil {
			return err
		}
		init = types.StaticInitializer{Kind: types.Initial, Value: v}
	case d.StorageClass == ast.Extern:
		init = types.StaticInitializer{Kind: types.NoInit}
	default:
		init = types.StaticInitializer{Kind: types.Tentative}
	}
	global := d.StorageClass != ast.Static

	if existing, ok := c.symtab.Lookup(d.Name); ok {
		if !existing.Type.Equal(d.Type) {
			return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "conflicting types for " + d.Name}
		}
		attr, ok := existing.Attribute.(types.StaticAttribute)
		if !ok {
			diag.ICE("file-scope variable %s carries a non-static attribute", d.Name)
		}
		if d.StorageClass == ast.Extern {
			global = attr.Global
		} else if global != attr.Global {
			return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "conflicting linkage for " + d.Name}
		}
		if attr.Init.Kind == types.Initial {
			if init.Kind == types.Initial {
				return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "redefinition of " + d.Name}
			}
			init = attr.Init
		} else if init.Kind != types.Initial && attr.Init.Kind == types.Tentative {
			init = attr.Init
		}
		c.symtab.Refine(d.Name, types.Entry{Type: d.Type, Attribute: types.StaticAttribute{Init: init, Global: global}})
		return nil
	}
	if err := c.symtab.Insert(d.Name, types.Entry{Type: d.Type, Attribute: types.StaticAttribute{Init: init, Global: global}}); err != nil {
		diag.ICE("%s", err)
	}
	return nil
}

func (c *checker) checkLocalVariable(d *ast.VariableDecl) error {
	switch d.StorageClass {
	case ast.Extern:
		if d.Initializer != nil {
			return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "extern local " + d.Name + " cannot have an initializer"}
		}
		if existing, ok := c.symtab.Lookup(d.Name); ok {
			if !existing.Type.Equal(d.Type) {
				return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: d.Loc, Msg: "conflicting types for " + d.Name}
			}
			return nil
		}
		return c.symtab.Insert(d.Name, types.Entry{
			Type:      d.Type,
			Attribute: types.StaticAttribute{Init: types.StaticInitializer{Kind: types.NoInit}, Global: true},
		})
	case ast.Static:
		var init types.StaticInitializer
		if d.Initializer != nil {
			v, err := c.constantExpr(d.Initializer, d.Type)
			if err != nil {
				return err
			}
			init = types.StaticInitializer{Kind: types.Initial, Value: v}
		} else {
			init = types.StaticInitializer{Kind: types.Initial, Value: types.Constant{Type: d.Type}}
		}
		return c.symtab.Insert(d.Name, types.Entry{
			Type:      d.Type,
			Attribute: types.StaticAttribute{Init: init, Global: false},
		})
	default:
		if err := c.symtab.Insert(d.Name, types.Entry{Type: d.Type, Attribute: types.LocalAttribute{}}); err != nil {
			diag.ICE("%s", err)
		}
		if d.Initializer == nil {
			return nil
		}
		if err := c.checkExpr(d.Initializer); err != nil {
			return err
		}
		d.Initializer = convertTo(d.Initializer, d.Type)
		return nil
	}
}

// constantExpr type-checks e and folds it to a compile-time constant of
// type target, the form every static initializer must take.
func (c *checker) constantExpr(e ast.Expr, target types.Type) (types.Constant, error) {
	if err := c.checkExpr(e); err != nil {
		return types.Constant{}, err
	}
	lit, ok := e.(*ast.ConstantExpr)
	if !ok {
		return types.Constant{}, &diag.TypeError{Loc: e.Location(), Msg: "file-scope initializer is not a compile-time constant"}
	}
	loc := e.Location()
	return types.ConvertConstant(lit.Value, target, func(from, to, value string) {
		c.warn.NumericConversion(loc, from, to, value)
	}), nil
}

func (c *checker) checkBlock(b *ast.Block, returnType types.Type) error {
	for _, item := range b.Items {
		if item.Decl != nil {
			if err := c.checkLocalDecl(item.Decl); err != nil {
				return err
			}
			continue
		}
		if err := c.checkStatement(item.Stmt, returnType); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkLocalDecl(d ast.Decl) error {
	switch d := d.(type) {
	case *ast.FunctionDecl:
		return c.checkFunctionDecl(d, false)
	case *ast.VariableDecl:
		return c.checkLocalVariable(d)
	default:
		diag.ICE("unknown local declaration kind %T", d)
	}
	return nil
}

func (c *checker) checkStatement(s ast.Stmt, returnType types.Type) error {
	switch s := s.(type) {
	case *ast.ReturnStmt:
		if s.Expr == nil {
			return nil
		}
		if err := c.checkExpr(s.Expr); err != nil {
			return err
		}
		s.Expr = convertTo(s.Expr, returnType)
		return nil
	case *ast.ExpressionStmt:
		return c.checkExpr(s.Expr)
	case *ast.NullStmt:
		return nil
	case *ast.IfStmt:
		if err := c.checkExpr(s.Cond); err != nil {
			return err
		}
		if err := c.checkStatement(s.Then, returnType); err != nil {
			return err
		}
		if s.Else != nil {
			return c.checkStatement(s.Else, returnType)
		}
		return nil
	case *ast.CompoundStmt:
		return c.checkBlock(s.Block, returnType)
	case *ast.WhileStmt:
		if err := c.checkExpr(s.Cond); err != nil {
			return err
		}
		return c.checkStatement(s.Body, returnType)
	case *ast.DoWhileStmt:
		if err := c.checkStatement(s.Body, returnType); err != nil {
			return err
		}
		return c.checkExpr(s.Cond)
	case *ast.ForStmt:
		if s.Init.Decl != nil {
			if s.Init.Decl.StorageClass != ast.None {
				return &diag.SemanticError{Kind: diag.IncompatibleRedeclaration, Loc: s.Init.Decl.Loc, Msg: "for-loop initializer cannot have a storage class"}
			}
			if err := c.checkLocalVariable(s.Init.Decl); err != nil {
				return err
			}
		} else if s.Init.Expr != nil {
			if err := c.checkExpr(s.Init.Expr); err != nil {
				return err
			}
		}
		if s.Cond != nil {
			if err := c.checkExpr(s.Cond); err != nil {
				return err
			}
		}
		if s.Post != nil {
			if err := c.checkExpr(s.Post); err != nil {
				return err
			}
		}
		return c.checkStatement(s.Body, returnType)
	case *ast.BreakStmt, *ast.ContinueStmt:
		return nil
	default:
		diag.ICE("unknown statement kind %T", s)
	}
	return nil
}

// convertTo wraps e in a CastExpr to target unless it is already that type,
// mirroring the implicit conversions spec §4.2 assigns to return statements,
// assignments, and call arguments.
func convertTo(e ast.Expr, target types.Type) ast.Expr {
	if e.Type().Equal(target) {
		return e
	}
	cast := &ast.CastExpr{ExprInfo: ast.ExprInfo{Loc: e.Location()}, Target: target, Inner: e}
	cast.SetType(target)
	return cast
}

func (c *checker) checkExpr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.ConstantExpr:
		e.SetType(e.Value.Type)
		return nil
	case *ast.VarExpr:
		entry, ok := c.symtab.Lookup(e.Name)
		if !ok {
			diag.ICE("identifier %s missing from symbol table during type checking", e.Name)
		}
		if _, ok := entry.Type.(*types.Function); ok {
			return &diag.SemanticError{Kind: diag.UseFunctionAsVariable, Loc: e.Location(), Msg: "function " + e.Name + " used as a variable"}
		}
		e.SetType(entry.Type)
		return nil
	case *ast.CastExpr:
		if err := c.checkExpr(e.Inner); err != nil {
			return err
		}
		e.SetType(e.Target)
		return nil
	case *ast.UnaryExpr:
		if err := c.checkExpr(e.Operand); err != nil {
			return err
		}
		if e.Op == ast.Not {
			e.SetType(types.Int32)
		} else {
			e.SetType(e.Operand.Type())
		}
		return nil
	case *ast.BinaryExpr:
		return c.checkBinary(e)
	case *ast.AssignmentExpr:
		if err := c.checkExpr(e.Left); err != nil {
			return err
		}
		if err := c.checkExpr(e.Right); err != nil {
			return err
		}
		e.Right = convertTo(e.Right, e.Left.Type())
		e.SetType(e.Left.Type())
		return nil
	case *ast.ConditionalExpr:
		if err := c.checkExpr(e.Cond); err != nil {
			return err
		}
		if err := c.checkExpr(e.Then); err != nil {
			return err
		}
		if err := c.checkExpr(e.Else); err != nil {
			return err
		}
		common := types.CommonArithmeticType(e.Then.Type(), e.Else.Type())
		e.Then = convertTo(e.Then, common)
		e.Else = convertTo(e.Else, common)
		e.SetType(common)
		return nil
	case *ast.FunctionCallExpr:
		return c.checkCall(e)
	default:
		diag.ICE("unknown expression kind %T", e)
	}
	return nil
}

func (c *checker) checkBinary(e *ast.BinaryExpr) error {
	if err := c.checkExpr(e.Left); err != nil {
		return err
	}
	if err := c.checkExpr(e.Right); err != nil {
		return err
	}
	if e.Op.IsShortCircuit() {
		e.SetType(types.Int32)
		return nil
	}
	common := types.CommonArithmeticType(e.Left.Type(), e.Right.Type())
	e.Left = convertTo(e.Left, common)
	e.Right = convertTo(e.Right, common)
	if e.Op.IsRelational() {
		e.SetType(types.Int32)
	} else {
		e.SetType(common)
	}
	return nil
}

func (c *checker) checkCall(e *ast.FunctionCallExpr) error {
	entry, ok := c.symtab.Lookup(e.Name)
	if !ok {
		diag.ICE("call to %s missing from symbol table during type checking", e.Name)
	}
	fnType, ok := entry.Type.(*types.Function)
	if !ok {
		return &diag.SemanticError{Kind: diag.UseVariableAsFunction, Loc: e.Location(), Msg: e.Name + " is not a function"}
	}
	if len(e.Args) != len(fnType.Params) {
		return &diag.SemanticError{Kind: diag.ArgumentCountMismatch, Loc: e.Location(), Msg: "wrong number of arguments to " + e.Name}
	}
	for i, arg := range e.Args {
		if err := c.checkExpr(arg); err != nil {
			return err
		}
		e.Args[i] = convertTo(arg, fnType.Params[i])
	}
	e.SetType(fnType.Return)
	return nil
}
