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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subc/internal/ast"
	"subc/internal/diag"
	"subc/internal/namegen"
	"subc/internal/types"
)

func varExpr(name string) *ast.VarExpr {
	return &ast.VarExpr{ExprInfo: ast.ExprInfo{}, Name: name}
}

func TestResolveIdentifiersRenamesLocalsButNotGlobals(t *testing.T) {
	decl := &ast.VariableDecl{Name: "x", Type: types.Int32}
	fn := &ast.FunctionDecl{
		Name:       "main",
		ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{
			{Decl: decl},
			{Stmt: &ast.ExpressionStmt{Expr: varExpr("x")}},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	require.NoError(t, ResolveIdentifiers(prog, namegen.New()))

	assert.Equal(t, "x.0", decl.Name, "locals are renamed to a fresh unique name")
	used := fn.Body.Items[1].Stmt.(*ast.ExpressionStmt).Expr.(*ast.VarExpr)
	assert.Equal(t, "x.0", used.Name, "every use is renamed consistently with its declaration")
}

func TestResolveIdentifiersRejectsUndeclaredUse(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "main",
		ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{
			{Stmt: &ast.ExpressionStmt{Expr: varExpr("ghost")}},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	err := ResolveIdentifiers(prog, namegen.New())
	require.Error(t, err)
	semErr, ok := err.(*diag.SemanticError)
	require.True(t, ok)
	assert.Equal(t, diag.UndeclaredIdentifier, semErr.Kind)
}

func TestResolveIdentifiersRejectsDuplicateLocal(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "main",
		ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{
			{Decl: &ast.VariableDecl{Name: "x", Type: types.Int32}},
			{Decl: &ast.VariableDecl{Name: "x", Type: types.Int32}},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	err := ResolveIdentifiers(prog, namegen.New())
	require.Error(t, err)
	semErr, ok := err.(*diag.SemanticError)
	require.True(t, ok)
	assert.Equal(t, diag.DuplicateDeclaration, semErr.Kind)
}

func TestResolveIdentifiersAllowsShadowingInNestedBlock(t *testing.T) {
	outer := &ast.VariableDecl{Name: "x", Type: types.Int32}
	inner := &ast.VariableDecl{Name: "x", Type: types.Int32}
	fn := &ast.FunctionDecl{
		Name:       "main",
		ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{
			{Decl: outer},
			{Stmt: &ast.CompoundStmt{Block: &ast.Block{Items: []ast.BlockItem{
				{Decl: inner},
				{Stmt: &ast.ExpressionStmt{Expr: varExpr("x")}},
			}}}},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	require.NoError(t, ResolveIdentifiers(prog, namegen.New()))
	assert.NotEqual(t, outer.Name, inner.Name, "shadowing mints a distinct name, not a conflict")
}

func TestResolveIdentifiersRejectsAssignmentToNonLvalue(t *testing.T) {
	assignExpr := &ast.AssignmentExpr{
		Left:  &ast.ConstantExpr{Value: types.Constant{Type: types.Int32, IntVal: 1}},
		Right: &ast.ConstantExpr{Value: types.Constant{Type: types.Int32, IntVal: 2}},
	}
	fn := &ast.FunctionDecl{
		Name:       "main",
		ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{
			{Stmt: &ast.ExpressionStmt{Expr: assignExpr}},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	err := ResolveIdentifiers(prog, namegen.New())
	require.Error(t, err)
	semErr, ok := err.(*diag.SemanticError)
	require.True(t, ok)
	assert.Equal(t, diag.InvalidLValue, semErr.Kind)
}

func TestResolveIdentifiersRejectsFunctionDefinedAtLocalScope(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "main",
		ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{
			{Decl: &ast.FunctionDecl{Name: "nested", ReturnType: types.Int32, Body: &ast.Block{}}},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	err := ResolveIdentifiers(prog, namegen.New())
	require.Error(t, err)
	semErr, ok := err.(*diag.SemanticError)
	require.True(t, ok)
	assert.Equal(t, diag.DefineAtLocalScope, semErr.Kind)
}

func TestResolveIdentifiersRenamesParameters(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "f",
		ReturnType: types.Int32,
		Params:     []string{"n"},
		Body: &ast.Block{Items: []ast.BlockItem{
			{Stmt: &ast.ReturnStmt{Expr: varExpr("n")}},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	require.NoError(t, ResolveIdentifiers(prog, namegen.New()))
	assert.Equal(t, "n.0", fn.Params[0])
	assert.Equal(t, "n.0", fn.Body.Items[0].Stmt.(*ast.ReturnStmt).Expr.(*ast.VarExpr).Name)
}
