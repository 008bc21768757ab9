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
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimitiveSizesAndAlignment(t *testing.T) {
	assert.Equal(t, 4, Int32.Size())
	assert.Equal(t, 8, Int64.Size())
	assert.Equal(t, 4, UInt32.Size())
	assert.Equal(t, 8, UInt64.Size())
	assert.Equal(t, 8, Double.Size())

	assert.Equal(t, 4, Int32.Align())
	assert.Equal(t, 8, Int64.Align())
	assert.Equal(t, 4, UInt32.Align())
	assert.Equal(t, 8, UInt64.Align())
	assert.Equal(t, 8, Double.Align())
}

func TestIsSignedIsIntegerIsArithmetic(t *testing.T) {
	assert.True(t, IsSigned(Int32))
	assert.True(t, IsSigned(Int64))
	assert.False(t, IsSigned(UInt32))
	assert.False(t, IsSigned(UInt64))
	assert.False(t, IsSigned(Double))

	assert.True(t, IsInteger(UInt64))
	assert.False(t, IsInteger(Double))

	assert.True(t, IsArithmetic(Double))
	ptr := &Pointer{Pointee: Int32}
	assert.False(t, IsArithmetic(ptr))
}

func TestPointerAndArrayGeometry(t *testing.T) {
	ptr := &Pointer{Pointee: Int32}
	assert.Equal(t, 8, ptr.Size())
	assert.Equal(t, 8, ptr.Align())

	arr := &Array{Elem: Int32, Length: 3}
	assert.Equal(t, 12, arr.Size())
	assert.Equal(t, 4, arr.Align())
}

func TestFunctionEquality(t *testing.T) {
	f1 := &Function{Return: Int32, Params: []Type{Int32, Int64}}
	f2 := &Function{Return: Int32, Params: []Type{Int32, Int64}}
	f3 := &Function{Return: Int32, Params: []Type{Int32}}
	assert.True(t, f1.Equal(f2))
	assert.False(t, f1.Equal(f3))
}

func TestCommonArithmeticType(t *testing.T) {
	assert.Equal(t, Int32, CommonArithmeticType(Int32, Int32))
	assert.Equal(t, Double, CommonArithmeticType(Int32, Double))
	assert.Equal(t, UInt32, CommonArithmeticType(Int32, UInt32), "same width: unsigned wins")
	assert.Equal(t, Int64, CommonArithmeticType(Int32, Int64), "wider wins")
	assert.Equal(t, UInt64, CommonArithmeticType(UInt64, Int32))
}
