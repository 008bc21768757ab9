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

func TestLabelLoopsAssignsBreakAndContinueTheEnclosingLabel(t *testing.T) {
	breakStmt := &ast.BreakStmt{}
	continueStmt := &ast.ContinueStmt{}
	whileStmt := &ast.WhileStmt{
		Cond: &ast.ConstantExpr{Value: types.Constant{Type: types.Int32, IntVal: 1}},
		Body: &ast.CompoundStmt{Block: &ast.Block{Items: []ast.BlockItem{
			{Stmt: breakStmt},
			{Stmt: continueStmt},
		}}},
	}
	fn := &ast.FunctionDecl{
		Name: "main", ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{{Stmt: whileStmt}}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	require.NoError(t, LabelLoops(prog, namegen.New()))

	assert.Equal(t, "while.0", whileStmt.Label)
	assert.Equal(t, "while.0", breakStmt.Label)
	assert.Equal(t, "while.0", continueStmt.Label)
}

func TestLabelLoopsNestedLoopsUseInnermostLabel(t *testing.T) {
	innerBreak := &ast.BreakStmt{}
	inner := &ast.ForStmt{
		Body: &ast.CompoundStmt{Block: &ast.Block{Items: []ast.BlockItem{{Stmt: innerBreak}}}},
	}
	outer := &ast.WhileStmt{
		Cond: &ast.ConstantExpr{Value: types.Constant{Type: types.Int32, IntVal: 1}},
		Body: &ast.CompoundStmt{Block: &ast.Block{Items: []ast.BlockItem{{Stmt: inner}}}},
	}
	fn := &ast.FunctionDecl{
		Name: "main", ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{{Stmt: outer}}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	require.NoError(t, LabelLoops(prog, namegen.New()))

	assert.Equal(t, "for.1", inner.Label)
	assert.Equal(t, "for.1", innerBreak.Label, "break binds to the nearest enclosing loop, not the outer one")
	assert.NotEqual(t, outer.Label, inner.Label)
}

func TestLabelLoopsRejectsBreakOutsideLoop(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "main", ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{{Stmt: &ast.BreakStmt{}}}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	err := LabelLoops(prog, namegen.New())
	require.Error(t, err)
	semErr, ok := err.(*diag.SemanticError)
	require.True(t, ok)
	assert.Equal(t, diag.BreakOutsideLoop, semErr.Kind)
}

func TestLabelLoopsRejectsContinueOutsideLoop(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name: "main", ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{{Stmt: &ast.ContinueStmt{}}}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	err := LabelLoops(prog, namegen.New())
	require.Error(t, err)
	semErr, ok := err.(*diag.SemanticError)
	require.True(t, ok)
	assert.Equal(t, diag.ContinueOutsideLoop, semErr.Kind)
}

func TestLabelLoopsPopsStackAfterLoopExits(t *testing.T) {
	trailingBreak := &ast.BreakStmt{}
	loop := &ast.DoWhileStmt{
		Body: &ast.NullStmt{},
		Cond: &ast.ConstantExpr{Value: types.Constant{Type: types.Int32, IntVal: 0}},
	}
	fn := &ast.FunctionDecl{
		Name: "main", ReturnType: types.Int32,
		Body: &ast.Block{Items: []ast.BlockItem{
			{Stmt: loop},
			{Stmt: trailingBreak},
		}},
	}
	prog := &ast.Program{Declarations: []ast.Decl{fn}}
	err := LabelLoops(prog, namegen.New())
	require.Error(t, err, "break after the loop body has closed is outside any loop")
	semErr, ok := err.(*diag.SemanticError)
	require.True(t, ok)
	assert.Equal(t, diag.BreakOutsideLoop, semErr.Kind)
}
