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

// Package parser builds a syntax tree (internal/ast) from the token stream
// produced by internal/lexer, by recursive descent with operator-precedence
// climbing for expressions.
package parser

import (
	"strconv"

	"subc/internal/ast"
	"subc/internal/diag"
	"subc/internal/lexer"
	"subc/internal/types"
)

type Parser struct {
	tokens  []lexer.Token
	pos     int
	context []string
}

// Parse builds a *ast.Program from a complete token stream.
func Parse(tokens []lexer.Token) (prog *ast.Program, err error) {
	p := &Parser{tokens: tokens}
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*diag.ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	return p.parseProgram(), nil
}

func (p *Parser) cur() lexer.Token  { return p.tokens[p.pos] }
func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) fail(msg string) {
	// p.context is pushed outermost first; ParseError.Context is innermost
	// first, so copy it in reverse.
	ctx := make([]string, 0, len(p.context))
	for i := len(p.context) - 1; i >= 0; i-- {
		ctx = append(ctx, p.context[i])
	}
	panic(&diag.ParseError{Loc: p.cur().Loc, Msg: msg, Context: ctx})
}

func (p *Parser) push(ctx string) func() {
	p.context = append(p.context, ctx)
	return func() { p.context = p.context[:len(p.context)-1] }
}

func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if p.cur().Kind != k {
		p.fail("expected " + k.String() + " but found " + p.cur().Kind.String())
	}
	return p.advance()
}

func isTypeSpecifier(k lexer.Kind) bool {
	switch k {
	case lexer.KwInt, lexer.KwLong, lexer.KwVoid, lexer.KwSigned, lexer.KwUnsigned, lexer.KwDouble:
		return true
	}
	return false
}

func isStorageSpecifier(k lexer.Kind) bool {
	return k == lexer.KwStatic || k == lexer.KwExtern
}

// specifiers collects every type/storage-class keyword starting at the
// current position and classifies them into a Type and a StorageClass.
func (p *Parser) specifiers() (types.Type, ast.StorageClass) {
	storage := ast.None
	storageSeen := false
	var kinds []lexer.Kind
	for isTypeSpecifier(p.cur().Kind) || isStorageSpecifier(p.cur().Kind) {
		if isStorageSpecifier(p.cur().Kind) {
			if storageSeen {
				p.fail("multiple storage-class specifiers")
			}
			storageSeen = true
			if p.cur().Kind == lexer.KwStatic {
				storage = ast.Static
			} else {
				storage = ast.Extern
			}
			p.advance()
			continue
		}
		kinds = append(kinds, p.cur().Kind)
		p.advance()
	}
	return classifyType(p, kinds), storage
}

func classifyType(p *Parser, kinds []lexer.Kind) types.Type {
	has := func(k lexer.Kind) bool {
		for _, kk := range kinds {
			if kk == k {
				return true
			}
		}
		return false
	}
	switch {
	case len(kinds) == 0:
		p.fail("expected a type specifier")
	case has(lexer.KwVoid):
		return nil // void: only valid as a function's return type, handled by caller
	case has(lexer.KwDouble):
		return types.Double
	case has(lexer.KwUnsigned) && has(lexer.KwLong):
		return types.UInt64
	case has(lexer.KwUnsigned):
		return types.UInt32
	case has(lexer.KwLong):
		return types.Int64
	default:
		return types.Int32
	}
}

// -----------------------------------------------------------------------------
// Top level

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.cur().Kind != lexer.EOF {
		prog.Declarations = append(prog.Declarations, p.parseTopLevelDecl())
	}
	return prog
}

func (p *Parser) parseTopLevelDecl() ast.Decl {
	defer p.push("in top-level declaration")()
	loc := p.cur().Loc
	retType, storage := p.specifiers()
	name := p.expect(lexer.Ident).Literal

	if p.cur().Kind == lexer.LParen {
		return p.parseFunctionRest(loc, name, retType, storage)
	}
	return p.parseVariableRest(loc, name, retType, storage)
}

func (p *Parser) parseFunctionRest(loc diag.Location, name string, retType types.Type, storage ast.StorageClass) *ast.FunctionDecl {
	defer p.push("in function " + name)()
	p.expect(lexer.LParen)
	var params []string
	var paramTypes []types.Type
	if p.cur().Kind == lexer.KwVoid && p.peekAt(1).Kind == lexer.RParen {
		p.advance()
	} else if p.cur().Kind != lexer.RParen {
		for {
			pt, _ := p.specifiers()
			pn := p.expect(lexer.Ident).Literal
			params = append(params, pn)
			paramTypes = append(paramTypes, pt)
			if p.cur().Kind == lexer.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(lexer.RParen)

	fn := &ast.FunctionDecl{
		Loc:          loc,
		Name:         name,
		ReturnType:   retType,
		Params:       params,
		ParamTypes:   paramTypes,
		StorageClass: storage,
	}
	if p.cur().Kind == lexer.Semicolon {
		p.advance()
		return fn
	}
	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseVariableRest(loc diag.Location, name string, typ types.Type, storage ast.StorageClass) *ast.VariableDecl {
	decl := &ast.VariableDecl{Loc: loc, Name: name, Type: typ, StorageClass: storage}
	if p.cur().Kind == lexer.Assign {
		p.advance()
		decl.Initializer = p.parseExpr()
	}
	p.expect(lexer.Semicolon)
	return decl
}

// -----------------------------------------------------------------------------
// Blocks & statements

func (p *Parser) parseBlock() *ast.Block {
	p.expect(lexer.LBrace)
	b := &ast.Block{}
	for p.cur().Kind != lexer.RBrace {
		b.Items = append(b.Items, p.parseBlockItem())
	}
	p.expect(lexer.RBrace)
	return b
}

func (p *Parser) startsDeclaration() bool {
	return isTypeSpecifier(p.cur().Kind) || isStorageSpecifier(p.cur().Kind)
}

func (p *Parser) parseBlockItem() ast.BlockItem {
	if p.startsDeclaration() {
		loc := p.cur().Loc
		typ, storage := p.specifiers()
		name := p.expect(lexer.Ident).Literal
		if p.cur().Kind == lexer.LParen {
			return ast.BlockItem{Decl: p.parseFunctionRest(loc, name, typ, storage)}
		}
		return ast.BlockItem{Decl: p.parseVariableRest(loc, name, typ, storage)}
	}
	return ast.BlockItem{Stmt: p.parseStatement()}
}

func (p *Parser) parseStatement() ast.Stmt {
	loc := p.cur().Loc
	switch p.cur().Kind {
	case lexer.KwReturn:
		p.advance()
		var e ast.Expr
		if p.cur().Kind != lexer.Semicolon {
			e = p.parseExpr()
		}
		p.expect(lexer.Semicolon)
		return &ast.ReturnStmt{Loc: loc, Expr: e}
	case lexer.Semicolon:
		p.advance()
		return &ast.NullStmt{Loc: loc}
	case lexer.LBrace:
		return &ast.CompoundStmt{Loc: loc, Block: p.parseBlock()}
	case lexer.KwIf:
		return p.parseIf(loc)
	case lexer.KwWhile:
		return p.parseWhile(loc)
	case lexer.KwDo:
		return p.parseDoWhile(loc)
	case lexer.KwFor:
		return p.parseFor(loc)
	case lexer.KwBreak:
		p.advance()
		p.expect(lexer.Semicolon)
		return &ast.BreakStmt{Loc: loc}
	case lexer.KwContinue:
		p.advance()
		p.expect(lexer.Semicolon)
		return &ast.ContinueStmt{Loc: loc}
	default:
		e := p.parseExpr()
		p.expect(lexer.Semicolon)
		return &ast.ExpressionStmt{Loc: loc, Expr: e}
	}
}

func (p *Parser) parseIf(loc diag.Location) ast.Stmt {
	p.advance()
	p.expect(lexer.LParen)
	cond := p.parseExpr()
	p.expect(lexer.RParen)
	then := p.parseStatement()
	var els ast.Stmt
	if p.cur().Kind == lexer.KwElse {
		p.advance()
		els = p.parseStatement()
	}
	return &ast.IfStmt{Loc: loc, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile(loc diag.Location) ast.Stmt {
	p.advance()
	p.expect(lexer.LParen)
	cond := p.parseExpr()
	p.expect(lexer.RParen)
	body := p.parseStatement()
	return &ast.WhileStmt{Loc: loc, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile(loc diag.Location) ast.Stmt {
	p.advance()
	body := p.parseStatement()
	p.expect(lexer.KwWhile)
	p.expect(lexer.LParen)
	cond := p.parseExpr()
	p.expect(lexer.RParen)
	p.expect(lexer.Semicolon)
	return &ast.DoWhileStmt{Loc: loc, Body: body, Cond: cond}
}

func (p *Parser) parseFor(loc diag.Location) ast.Stmt {
	p.advance()
	p.expect(lexer.LParen)
	var init ast.ForInit
	if p.startsDeclaration() {
		dloc := p.cur().Loc
		typ, storage := p.specifiers()
		name := p.expect(lexer.Ident).Literal
		init.Decl = p.parseVariableRest(dloc, name, typ, storage)
	} else if p.cur().Kind != lexer.Semicolon {
		init.Expr = p.parseExpr()
		p.expect(lexer.Semicolon)
	} else {
		p.expect(lexer.Semicolon)
	}
	var cond ast.Expr
	if p.cur().Kind != lexer.Semicolon {
		cond = p.parseExpr()
	}
	p.expect(lexer.Semicolon)
	var post ast.Expr
	if p.cur().Kind != lexer.RParen {
		post = p.parseExpr()
	}
	p.expect(lexer.RParen)
	body := p.parseStatement()
	return &ast.ForStmt{Loc: loc, Init: init, Cond: cond, Post: post, Body: body}
}

// -----------------------------------------------------------------------------
// Expressions (precedence climbing)

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseConditional()
	if p.cur().Kind == lexer.Assign {
		loc := p.cur().Loc
		p.advance()
		right := p.parseAssignment()
		return &ast.AssignmentExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseConditional() ast.Expr {
	cond := p.parseLogicalOr()
	if p.cur().Kind == lexer.Question {
		loc := p.cur().Loc
		p.advance()
		then := p.parseExpr()
		p.expect(lexer.Colon)
		els := p.parseConditional()
		return &ast.ConditionalExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Cond: cond, Then: then, Else: els}
	}
	return cond
}

func (p *Parser) parseLogicalOr() ast.Expr {
	left := p.parseLogicalAnd()
	for p.cur().Kind == lexer.OrOr {
		loc := p.cur().Loc
		p.advance()
		right := p.parseLogicalAnd()
		left = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: ast.LogicalOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	left := p.parseEquality()
	for p.cur().Kind == lexer.AndAnd {
		loc := p.cur().Loc
		p.advance()
		right := p.parseEquality()
		left = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: ast.LogicalAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.cur().Kind == lexer.EqEq || p.cur().Kind == lexer.NotEq {
		op := ast.Equal
		if p.cur().Kind == lexer.NotEq {
			op = ast.NotEqual
		}
		loc := p.cur().Loc
		p.advance()
		right := p.parseRelational()
		left = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.Less:
			op = ast.LessThan
		case lexer.LessEq:
			op = ast.LessOrEqual
		case lexer.Greater:
			op = ast.GreaterThan
		case lexer.GreaterEq:
			op = ast.GreaterOrEqual
		default:
			return left
		}
		loc := p.cur().Loc
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur().Kind == lexer.Plus || p.cur().Kind == lexer.Minus {
		op := ast.Add
		if p.cur().Kind == lexer.Minus {
			op = ast.Subtract
		}
		loc := p.cur().Loc
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.Star:
			op = ast.Multiply
		case lexer.Slash:
			op = ast.Divide
		case lexer.Percent:
			op = ast.Remainder
		default:
			return left
		}
		loc := p.cur().Loc
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	loc := p.cur().Loc
	switch p.cur().Kind {
	case lexer.Minus:
		p.advance()
		return &ast.UnaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: ast.Negate, Operand: p.parseUnary()}
	case lexer.Tilde:
		p.advance()
		return &ast.UnaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: ast.Complement, Operand: p.parseUnary()}
	case lexer.Bang:
		p.advance()
		return &ast.UnaryExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Op: ast.Not, Operand: p.parseUnary()}
	case lexer.LParen:
		if isTypeSpecifier(p.peekAt(1).Kind) {
			p.advance()
			target, _ := p.specifiers()
			p.expect(lexer.RParen)
			return &ast.CastExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Target: target, Inner: p.parseUnary()}
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	loc := p.cur().Loc
	switch p.cur().Kind {
	case lexer.IntConstant:
		lit := p.advance().Literal
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			p.fail("malformed integer constant " + lit)
		}
		typ := types.Int32
		if v > int64(int32(1<<31-1)) {
			typ = types.Int64
		}
		return &ast.ConstantExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Value: types.Constant{Type: typ, IntVal: v}}
	case lexer.LongConstant:
		lit := p.advance().Literal
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			p.fail("malformed long constant " + lit)
		}
		return &ast.ConstantExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Value: types.Constant{Type: types.Int64, IntVal: v}}
	case lexer.Ident:
		name := p.advance().Literal
		if p.cur().Kind == lexer.LParen {
			p.advance()
			var args []ast.Expr
			if p.cur().Kind != lexer.RParen {
				for {
					args = append(args, p.parseExpr())
					if p.cur().Kind == lexer.Comma {
						p.advance()
						continue
					}
					break
				}
			}
			p.expect(lexer.RParen)
			return &ast.FunctionCallExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Name: name, Args: args}
		}
		return &ast.VarExpr{ExprInfo: ast.ExprInfo{Loc: loc}, Name: name}
	case lexer.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RParen)
		return e
	default:
		p.fail("expected an expression but found " + p.cur().Kind.String())
	}
	return nil
}
