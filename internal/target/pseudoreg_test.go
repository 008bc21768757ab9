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
	"github.com/stretchr/testify/require"
)

func TestAssignPseudoRegistersReplacesLocalsWithStackAddresses(t *testing.T) {
	backend := NewBackendTable()
	backend.InsertFunction("f", FunctionEntry{})
	backend.InsertObject("a", ObjectEntry{Width: Long, IsStatic: false})
	backend.InsertObject("b", ObjectEntry{Width: Quad, IsStatic: false})

	prog := &Program{TopLevels: []TopLevel{
		&FunctionDefinition{Name: "f", Body: []Instruction{
			Mov{Width: Long, Src: Immediate{Value: 1}, Dst: PseudoRegister{Name: "a"}},
			Mov{Width: Quad, Src: Immediate{Value: 2}, Dst: PseudoRegister{Name: "b"}},
		}},
	}}

	AssignPseudoRegisters(prog, backend)

	fn := prog.TopLevels[0].(*FunctionDefinition)
	for _, inst := range fn.Body {
		mov := inst.(Mov)
		_, isPseudo := mov.Dst.(PseudoRegister)
		assert.False(t, isPseudo)
		_, isStack := mov.Dst.(StackAddress)
		assert.True(t, isStack)
	}

	aAddr := fn.Body[0].(Mov).Dst.(StackAddress)
	bAddr := fn.Body[1].(Mov).Dst.(StackAddress)
	assert.Equal(t, -4, aAddr.Offset, "4-byte local gets a 4-byte-aligned slot")
	assert.Equal(t, -16, bAddr.Offset, "8-byte local rounds the running offset up to 8")

	entry, ok := backend.Function("f")
	require.True(t, ok)
	assert.Equal(t, 16, entry.StackFrameSize, "frame size rounds up to a multiple of 16")
}

func TestAssignPseudoRegistersReusesOffsetForRepeatedName(t *testing.T) {
	backend := NewBackendTable()
	backend.InsertFunction("f", FunctionEntry{})
	backend.InsertObject("a", ObjectEntry{Width: Long, IsStatic: false})

	prog := &Program{TopLevels: []TopLevel{
		&FunctionDefinition{Name: "f", Body: []Instruction{
			Mov{Width: Long, Src: Immediate{Value: 1}, Dst: PseudoRegister{Name: "a"}},
			Mov{Width: Long, Src: PseudoRegister{Name: "a"}, Dst: Register{Name: AX, Width: Long}},
		}},
	}}

	AssignPseudoRegisters(prog, backend)

	fn := prog.TopLevels[0].(*FunctionDefinition)
	first := fn.Body[0].(Mov).Dst.(StackAddress)
	second := fn.Body[1].(Mov).Src.(StackAddress)
	assert.Equal(t, first.Offset, second.Offset, "the same pseudo-register name always maps to the same slot")
}

func TestAssignPseudoRegistersRoutesStaticsThroughDataOperand(t *testing.T) {
	backend := NewBackendTable()
	backend.InsertFunction("f", FunctionEntry{})
	backend.InsertObject("g", ObjectEntry{Width: Long, IsStatic: true})

	prog := &Program{TopLevels: []TopLevel{
		&FunctionDefinition{Name: "f", Body: []Instruction{
			Mov{Width: Long, Src: Immediate{Value: 1}, Dst: PseudoRegister{Name: "g"}},
		}},
	}}

	AssignPseudoRegisters(prog, backend)

	fn := prog.TopLevels[0].(*FunctionDefinition)
	dst := fn.Body[0].(Mov).Dst
	data, ok := dst.(DataOperand)
	require.True(t, ok)
	assert.Equal(t, "g", data.Name)
}

func TestAssignPseudoRegistersSkipsStaticVariableTopLevels(t *testing.T) {
	backend := NewBackendTable()
	prog := &Program{TopLevels: []TopLevel{
		&StaticVariable{Name: "g", Width: Long},
	}}
	assert.NotPanics(t, func() { AssignPseudoRegisters(prog, backend) })
}
