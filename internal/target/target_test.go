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

package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperandStringForms(t *testing.T) {
	assert.Equal(t, "$5", Immediate{Value: 5}.String())
	assert.Equal(t, "%tmp.0", PseudoRegister{Name: "tmp.0"}.String())
	assert.Equal(t, "-12(%rbp)", StackAddress{Offset: -12}.String())
	assert.Equal(t, "g(%rip)", DataOperand{Name: "g"}.String())
}

func TestCondCodeCoversSignedAndUnsignedForms(t *testing.T) {
	cases := map[CondCode]string{
		CCE: "e", CCNE: "ne", CCG: "g", CCGE: "ge", CCL: "l", CCLE: "le",
		CCA: "a", CCAE: "ae", CCB: "b", CCBE: "be",
	}
	for cc, want := range cases {
		assert.Equal(t, want, cc.String())
	}
}

func TestOperandsAndInstructionsImplementTheirMarkerInterfaces(t *testing.T) {
	var operands = []Operand{
		Immediate{}, Register{}, PseudoRegister{}, StackAddress{}, DataOperand{},
	}
	for _, o := range operands {
		_ = o // compiles only if each satisfies Operand
	}

	var instructions = []Instruction{
		Mov{}, Movsx{}, MovZeroExtend{}, Unary{}, Binary{}, Cmp{}, Idiv{}, Div{},
		Cdq{}, Jmp{}, JmpCC{}, SetCC{}, Label{}, Push{}, Call{}, Ret{}, AllocateStack{},
	}
	assert.Len(t, instructions, 17)

	var topLevels = []TopLevel{&FunctionDefinition{}, &StaticVariable{}}
	assert.Len(t, topLevels, 2)
}
