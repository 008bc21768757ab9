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
package ast

import (
	"fmt"
	"io"
)

// PrintProgram writes a human-readable rendering of the tree to w, annotated
// with each expression's inferred type when showTypes is set. It is the
// --dump-ast debug hook, the syntax-tree analog of the teacher's PrintAst.
func PrintProgram(w io.Writer, p *Program, showTypes bool) {
	for _, decl := range p.Declarations {
		fmt.Fprintln(w, decl)
		if fn, ok := decl.(*FunctionDecl); ok && fn.Body != nil && showTypes {
			printBlockTypes(w, fn.Body, 1)
		}
	}
}

func printBlockTypes(w io.Writer, b *Block, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	for _, item := range b.Items {
		if item.Stmt == nil {
			continue
		}
		if es, ok := item.Stmt.(*ExpressionStmt); ok {
			fmt.Fprintf(w, "%s%s :: %v\n", indent, es.Expr, es.Expr.Type())
		}
	}
}
