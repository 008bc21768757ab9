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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subc/internal/ast"
	"subc/internal/namegen"
	"subc/internal/types"
)

func constExpr(v int64) *ast.ConstantExpr {
	return &ast.ConstantExpr{ExprInfo: ast.ExprInfo{Typ: types.Int32}, Value: types.Constant{Type: types.Int32, IntVal: v}}
}

// mainReturning builds `int main(void) { return <expr>; }`.
func mainReturning(expr ast.Expr) *ast.Program {
	return &ast.Program{Declarations: []ast.Decl{
		&ast.FunctionDecl{
			Name:       "main",
			ReturnType: types.Int32,
			Body: &ast.Block{Items: []ast.BlockItem{
				{Stmt: &ast.ReturnStmt{Expr: expr}},
			}},
		},
	}}
}

func TestGenerateAppendsImplicitReturnZero(t *testing.T) {
	prog := &ast.Program{Declarations: []ast.Decl{
		&ast.FunctionDecl{Name: "main", ReturnType: types.Int32, Body: &ast.Block{}},
	}}
	out := Generate(prog, types.NewTable(), namegen.New())
	fn := out.TopLevels[0].(*FunctionDefinition)
	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(Return)
	require.True(t, ok)
	assert.Equal(t, Constant{Const: types.Constant{Type: types.Int32, IntVal: 0}}, ret.Val)
}

func TestGenerateBinaryExpression(t *testing.T) {
	expr := &ast.BinaryExpr{
		ExprInfo: ast.ExprInfo{Typ: types.Int32},
		Op:       ast.Add,
		Left:     constExpr(1),
		Right:    constExpr(2),
	}
	out := Generate(mainReturning(expr), types.NewTable(), namegen.New())
	fn := out.TopLevels[0].(*FunctionDefinition)

	var sawBinary bool
	for _, inst := range fn.Body {
		if b, ok := inst.(Binary); ok {
			sawBinary = true
			assert.Equal(t, Add, b.Op)
		}
	}
	assert.True(t, sawBinary)
	last := fn.Body[len(fn.Body)-1]
	_, ok := last.(Return)
	assert.True(t, ok)
}

func TestGenerateIfElseLowersToJumpIfZero(t *testing.T) {
	ifStmt := &ast.IfStmt{
		Cond: constExpr(1),
		Then: &ast.ReturnStmt{Expr: constExpr(1)},
		Else: &ast.ReturnStmt{Expr: constExpr(2)},
	}
	prog := &ast.Program{Declarations: []ast.Decl{
		&ast.FunctionDecl{Name: "main", ReturnType: types.Int32, Body: &ast.Block{Items: []ast.BlockItem{{Stmt: ifStmt}}}},
	}}
	out := Generate(prog, types.NewTable(), namegen.New())
	fn := out.TopLevels[0].(*FunctionDefinition)

	var sawJumpIfZero, sawJump bool
	labels := map[string]bool{}
	for _, inst := range fn.Body {
		switch v := inst.(type) {
		case JumpIfZero:
			sawJumpIfZero = true
		case Jump:
			sawJump = true
		case Label:
			labels[v.Name] = true
		}
	}
	assert.True(t, sawJumpIfZero)
	assert.True(t, sawJump)
	assert.True(t, labels["if_else.0"])
	assert.True(t, labels["if_end.1"])
}

func TestGenerateWhileLoopUsesLoopLabel(t *testing.T) {
	whileStmt := &ast.WhileStmt{
		Cond:  constExpr(1),
		Body:  &ast.NullStmt{},
		Label: "loop",
	}
	prog := &ast.Program{Declarations: []ast.Decl{
		&ast.FunctionDecl{Name: "main", ReturnType: types.Int32, Body: &ast.Block{Items: []ast.BlockItem{{Stmt: whileStmt}}}},
	}}
	out := Generate(prog, types.NewTable(), namegen.New())
	fn := out.TopLevels[0].(*FunctionDefinition)

	labels := map[string]bool{}
	for _, inst := range fn.Body {
		if l, ok := inst.(Label); ok {
			labels[l.Name] = true
		}
	}
	assert.True(t, labels["continue_loop"])
	assert.True(t, labels["break_loop"])
}

func TestGenerateBreakAndContinueJumpToLoopLabels(t *testing.T) {
	whileStmt := &ast.WhileStmt{
		Cond: constExpr(1),
		Body: &ast.CompoundStmt{Block: &ast.Block{Items: []ast.BlockItem{
			{Stmt: &ast.BreakStmt{Label: "loop"}},
			{Stmt: &ast.ContinueStmt{Label: "loop"}},
		}}},
		Label: "loop",
	}
	prog := &ast.Program{Declarations: []ast.Decl{
		&ast.FunctionDecl{Name: "main", ReturnType: types.Int32, Body: &ast.Block{Items: []ast.BlockItem{{Stmt: whileStmt}}}},
	}}
	out := Generate(prog, types.NewTable(), namegen.New())
	fn := out.TopLevels[0].(*FunctionDefinition)

	assert.Contains(t, fn.Body, Jump{Target: "break_loop"})
	assert.Contains(t, fn.Body, Jump{Target: "continue_loop"})
}

func TestGenerateLogicalAndShortCircuits(t *testing.T) {
	expr := &ast.BinaryExpr{
		ExprInfo: ast.ExprInfo{Typ: types.Int32},
		Op:       ast.LogicalAnd,
		Left:     constExpr(1),
		Right:    constExpr(0),
	}
	out := Generate(mainReturning(expr), types.NewTable(), namegen.New())
	fn := out.TopLevels[0].(*FunctionDefinition)

	var zeroJumps int
	for _, inst := range fn.Body {
		if _, ok := inst.(JumpIfZero); ok {
			zeroJumps++
		}
	}
	assert.Equal(t, 2, zeroJumps, "logical-and evaluates both operands through JumpIfZero")
}

func TestGenerateSignExtendForWideningCast(t *testing.T) {
	cast := &ast.CastExpr{
		ExprInfo: ast.ExprInfo{Typ: types.Int64},
		Target:   types.Int64,
		Inner:    constExpr(1),
	}
	out := Generate(mainReturning(cast), types.NewTable(), namegen.New())
	fn := out.TopLevels[0].(*FunctionDefinition)

	var sawSignExtend bool
	for _, inst := range fn.Body {
		if _, ok := inst.(SignExtend); ok {
			sawSignExtend = true
		}
	}
	assert.True(t, sawSignExtend)
}

func TestGenerateStaticVariablesAreSortedAndTentativeGoesZero(t *testing.T) {
	symtab := types.NewTable()
	require.NoError(t, symtab.Insert("b", types.Entry{
		Type:      types.Int32,
		Attribute: types.StaticAttribute{Init: types.StaticInitializer{Kind: types.Tentative}, Global: true},
	}))
	require.NoError(t, symtab.Insert("a", types.Entry{
		Type: types.Int32,
		Attribute: types.StaticAttribute{
			Init:   types.StaticInitializer{Kind: types.Initial, Value: types.Constant{Type: types.Int32, IntVal: 7}},
			Global: true,
		},
	}))

	prog := &ast.Program{Declarations: []ast.Decl{
		&ast.FunctionDecl{Name: "main", ReturnType: types.Int32, Body: &ast.Block{}},
	}}
	out := Generate(prog, symtab, namegen.New())

	var statics []*StaticVariable
	for _, tl := range out.TopLevels {
		if sv, ok := tl.(*StaticVariable); ok {
			statics = append(statics, sv)
		}
	}
	require.Len(t, statics, 2)
	assert.Equal(t, "a", statics[0].Name)
	assert.Equal(t, int64(7), statics[0].Initial.IntVal)
	assert.False(t, statics[0].Tentative)

	assert.Equal(t, "b", statics[1].Name)
	assert.True(t, statics[1].Tentative)
}
