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

func TestConstantIsZero(t *testing.T) {
	assert.True(t, Constant{Type: Int32, IntVal: 0}.IsZero())
	assert.False(t, Constant{Type: Int32, IntVal: 1}.IsZero())
	assert.True(t, Constant{Type: Double, FloatVal: 0}.IsZero())
	assert.False(t, Constant{Type: Double, FloatVal: 0.5}.IsZero())
}

func TestConvertConstantTruncatesToNarrowerInt(t *testing.T) {
	c := Constant{Type: Int64, IntVal: 1<<32 + 5}
	var warned bool
	out := ConvertConstant(c, Int32, func(from, to, value string) { warned = true })
	assert.Equal(t, int64(5), out.IntVal)
	assert.True(t, warned, "narrowing must warn")
}

func TestConvertConstantWidensWithoutWarning(t *testing.T) {
	c := Constant{Type: Int32, IntVal: 5}
	var warned bool
	out := ConvertConstant(c, Int64, func(from, to, value string) { warned = true })
	assert.Equal(t, int64(5), out.IntVal)
	assert.False(t, warned, "widening a non-negative value must not warn")
}

func TestConvertConstantSignChangeOnNegativeWarns(t *testing.T) {
	c := Constant{Type: Int32, IntVal: -1}
	var warned bool
	out := ConvertConstant(c, UInt32, func(from, to, value string) { warned = true })
	assert.Equal(t, int64(uint32(0xFFFFFFFF)), out.IntVal)
	assert.True(t, warned)
}

func TestConvertConstantIntToDouble(t *testing.T) {
	c := Constant{Type: Int32, IntVal: 3}
	out := ConvertConstant(c, Double, nil)
	assert.Equal(t, Double, out.Type)
	assert.Equal(t, 3.0, out.FloatVal)
}

func TestConvertConstantDoubleToIntTruncatesAndWarns(t *testing.T) {
	c := Constant{Type: Double, FloatVal: 3.9}
	var warned bool
	out := ConvertConstant(c, Int32, func(from, to, value string) { warned = true })
	assert.Equal(t, int64(3), out.IntVal)
	assert.True(t, warned)
}

func TestIsNullPointerConstant(t *testing.T) {
	assert.True(t, IsNullPointerConstant(Constant{Type: Int32, IntVal: 0}))
	assert.False(t, IsNullPointerConstant(Constant{Type: Int32, IntVal: 1}))
	assert.False(t, IsNullPointerConstant(Constant{Type: Double, FloatVal: 0}))
}
