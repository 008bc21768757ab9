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
	"subc/internal/namegen"
)

// ResolveIdentifiers walks prog with a scope map, renaming every local
// variable and parameter to a unique name and rejecting use of any name that
// was never declared. File-scope names (variables and functions) are never
// renamed, since their spelling is their linkage identity.
func ResolveIdentifiers(prog *ast.Program, gen *namegen.Generator) error {
	r := newResolver()
	for _, d := range prog.Declarations {
		switch d := d.(type) {
		case *ast.FunctionDecl:
			if err := r.resolveFileFunction(d, gen); err != nil {
				return err
			}
		case *ast.VariableDecl:
			if err := r.resolveFileVariable(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *resolver) resolveFileFunction(fd *ast.FunctionDecl, gen *namegen.Generator) error {
	if existing, ok := r.current[fd.Name]; ok && existing.fromCurrentScope && !existing.hasLinkage {
		return &diag.SemanticError{Kind: diag.DuplicateDeclaration, Loc: fd.Loc, Msg: "redeclaration of " + fd.Name}
	}
	r.current[fd.Name] = scopeEntry{renamed: fd.Name, fromCurrentScope: true, hasLinkage: true}

	if fd.Body == nil {
		return nil
	}
	defer r.pushScope()()
	for i, param := range fd.Params {
		if existing, ok := r.current[param]; ok && existing.fromCurrentScope {
			return &diag.SemanticError{Kind: diag.DuplicateDeclaration, Loc: fd.Loc, Msg: "duplicate parameter " + param}
		}
		renamed := gen.Temporary(param)
		r.current[param] = scopeEntry{renamed: renamed, fromCurrentScope: true}
		fd.Params[i] = renamed
	}
	return r.resolveBlock(fd.Body, gen)
}

func (r *resolver) resolveFileVariable(vd *ast.VariableDecl) error {
	if existing, ok := r.current[vd.Name]; ok && existing.fromCurrentScope && !existing.hasLinkage {
		return &diag.SemanticError{Kind: diag.DuplicateDeclaration, Loc: vd.Loc, Msg: "redeclaration of " + vd.Name}
	}
	r.current[vd.Name] = scopeEntry{renamed: vd.Name, fromCurrentScope: true, hasLinkage: true}
	if vd.Initializer != nil {
		return r.resolveExpr(vd.Initializer)
	}
	return nil
}

func (r *resolver) resolveBlock(b *ast.Block, gen *namegen.Generator) error {
	for _, item := range b.Items {
		if item.Decl != nil {
			if err := r.resolveLocalDecl(item.Decl, gen); err != nil {
				return err
			}
			continue
		}
		if err := r.resolveStatement(item.Stmt, gen); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolveLocalDecl(d ast.Decl, gen *namegen.Generator) error {
	switch d := d.(type) {
	case *ast.FunctionDecl:
		if d.Body != nil {
			return &diag.SemanticError{Kind: diag.DefineAtLocalScope, Loc: d.Loc, Msg: "function " + d.Name + " defined at block scope"}
		}
		if existing, ok := r.current[d.Name]; ok && existing.fromCurrentScope && !existing.hasLinkage {
			return &diag.SemanticError{Kind: diag.DuplicateDeclaration, Loc: d.Loc, Msg: "redeclaration of " + d.Name}
		}
		r.current[d.Name] = scopeEntry{renamed: d.Name, fromCurrentScope: true, hasLinkage: true}
		return nil
	case *ast.VariableDecl:
		return r.resolveLocalVariable(d, gen)
	default:
		diag.ICE("unknown local declaration kind %T", d)
	}
	return nil
}

func (r *resolver) resolveLocalVariable(vd *ast.VariableDecl, gen *namegen.Generator) error {
	hasLinkage := vd.StorageClass == ast.Extern
	if existing, ok := r.current[vd.Name]; ok && existing.fromCurrentScope {
		if !(hasLinkage && existing.hasLinkage) {
			return &diag.SemanticError{Kind: diag.DuplicateDeclaration, Loc: vd.Loc, Msg: "redeclaration of " + vd.Name}
		}
		vd.Name = existing.renamed
	} else {
		renamed := vd.Name
		if !hasLinkage {
			renamed = gen.Temporary(vd.Name)
		}
		r.current[vd.Name] = scopeEntry{renamed: renamed, fromCurrentScope: true, hasLinkage: hasLinkage}
		vd.Name = renamed
	}
	if vd.Initializer != nil {
		return r.resolveExpr(vd.Initializer)
	}
	return nil
}

func (r *resolver) resolveStatement(s ast.Stmt, gen *namegen.Generator) error {
	switch s := s.(type) {
	case *ast.ReturnStmt:
		if s.Expr != nil {
			return r.resolveExpr(s.Expr)
		}
		return nil
	case *ast.ExpressionStmt:
		return r.resolveExpr(s.Expr)
	case *ast.NullStmt:
		return nil
	case *ast.IfStmt:
		if err := r.resolveExpr(s.Cond); err != nil {
			return err
		}
		if err := r.resolveStatement(s.Then, gen); err != nil {
			return err
		}
		if s.Else != nil {
			return r.resolveStatement(s.Else, gen)
		}
		return nil
	case *ast.CompoundStmt:
		defer r.pushScope()()
		return r.resolveBlock(s.Block, gen)
	case *ast.WhileStmt:
		if err := r.resolveExpr(s.Cond); err != nil {
			return err
		}
		return r.resolveStatement(s.Body, gen)
	case *ast.DoWhileStmt:
		if err := r.resolveStatement(s.Body, gen); err != nil {
			return err
		}
		return r.resolveExpr(s.Cond)
	case *ast.ForStmt:
		// The whole for-header is one scope frame, not one per clause: a
		// declaration in init is visible to cond, post and body. A compound
		// body opens its own nested frame inside this one.
		defer r.pushScope()()
		if s.Init.Decl != nil {
			if err := r.resolveLocalVariable(s.Init.Decl, gen); err != nil {
				return err
			}
		} else if s.Init.Expr != nil {
			if err := r.resolveExpr(s.Init.Expr); err != nil {
				return err
			}
		}
		if s.Cond != nil {
			if err := r.resolveExpr(s.Cond); err != nil {
				return err
			}
		}
		if s.Post != nil {
			if err := r.resolveExpr(s.Post); err != nil {
				return err
			}
		}
		return r.resolveStatement(s.Body, gen)
	case *ast.BreakStmt, *ast.ContinueStmt:
		return nil
	default:
		diag.ICE("unknown statement kind %T", s)
	}
	return nil
}

func (r *resolver) resolveExpr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.ConstantExpr:
		return nil
	case *ast.VarExpr:
		entry, ok := r.current[e.Name]
		if !ok {
			return &diag.SemanticError{Kind: diag.UndeclaredIdentifier, Loc: e.Location(), Msg: "undeclared identifier " + e.Name}
		}
		e.Name = entry.renamed
		return nil
	case *ast.CastExpr:
		return r.resolveExpr(e.Inner)
	case *ast.UnaryExpr:
		return r.resolveExpr(e.Operand)
	case *ast.BinaryExpr:
		if err := r.resolveExpr(e.Left); err != nil {
			return err
		}
		return r.resolveExpr(e.Right)
	case *ast.AssignmentExpr:
		if _, ok := e.Left.(*ast.VarExpr); !ok {
			return &diag.SemanticError{Kind: diag.InvalidLValue, Loc: e.Location(), Msg: "left side of assignment is not an lvalue"}
		}
		if err := r.resolveExpr(e.Left); err != nil {
			return err
		}
		return r.resolveExpr(e.Right)
	case *ast.ConditionalExpr:
		if err := r.resolveExpr(e.Cond); err != nil {
			return err
		}
		if err := r.resolveExpr(e.Then); err != nil {
			return err
		}
		return r.resolveExpr(e.Else)
	case *ast.FunctionCallExpr:
		if _, ok := r.current[e.Name]; !ok {
			return &diag.SemanticError{Kind: diag.UndeclaredIdentifier, Loc: e.Location(), Msg: "call to undeclared function " + e.Name}
		}
		for _, arg := range e.Args {
			if err := r.resolveExpr(arg); err != nil {
				return err
			}
		}
		return nil
	default:
		diag.ICE("unknown expression kind %T", e)
	}
	return nil
}
