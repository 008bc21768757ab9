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

import "fmt"

// Constant is a typed literal value, the leaf of the constant-folding
// machinery and the Value representation used by the tacky IR and the
// static-initializer side of the symbol table.
type Constant struct {
	Type Type
	// Exactly one of IntVal / FloatVal is meaningful, selected by Type.
	IntVal   int64
	FloatVal float64
}

func (c Constant) String() string {
	if c.Type == Double {
		return fmt.Sprintf("%v", c.FloatVal)
	}
	return fmt.Sprintf("%d", c.IntVal)
}

// IsZero reports whether the constant is the zero value of its type, used to
// decide .bss vs .data emission.
func (c Constant) IsZero() bool {
	if c.Type == Double {
		return c.FloatVal == 0
	}
	return c.IntVal == 0
}

// ConvertConstant converts a constant to target, following the same
// truncating/sign-extending/float-rounding rules as a C cast. When the
// conversion may observably change the value it calls warn with a
// human-readable description of the source value and both types; warn may be
// nil to skip reporting (e.g. when converting a value already known exact).
func ConvertConstant(c Constant, target Type, warn func(from, to string, value string)) Constant {
	if c.Type.Equal(target) {
		return c
	}
	report := func() {
		if warn != nil {
			warn(c.Type.String(), target.String(), c.String())
		}
	}
	if target == Double {
		var f float64
		var exact bool
		if IsSigned(c.Type) {
			f = float64(c.IntVal)
			exact = f < float64(1<<63) && int64(f) == c.IntVal
		} else {
			u := uint64(c.IntVal)
			f = float64(u)
			exact = f < float64(1<<64) && uint64(f) == u
		}
		if !exact {
			report()
		}
		return Constant{Type: target, FloatVal: f}
	}
	if c.Type == Double {
		var i int64
		if IsSigned(target) {
			i = int64(c.FloatVal)
		} else {
			i = int64(uint64(c.FloatVal))
		}
		report()
		return maskInt(i, target)
	}
	// integer -> integer
	if target.Size() < c.Type.Size() {
		report()
	} else if IsSigned(c.Type) != IsSigned(target) && c.IntVal < 0 {
		report()
	}
	return maskInt(c.IntVal, target)
}

// maskInt truncates/extends v to fit target's width and signedness.
func maskInt(v int64, target Type) Constant {
	switch target {
	case Int32:
		return Constant{Type: target, IntVal: int64(int32(v))}
	case UInt32:
		return Constant{Type: target, IntVal: int64(uint32(v))}
	case Int64:
		return Constant{Type: target, IntVal: v}
	case UInt64:
		return Constant{Type: target, IntVal: v}
	default:
		return Constant{Type: target, IntVal: v}
	}
}

// IsNullPointerConstant reports whether c is the integer literal 0, the only
// form of constant that implicitly converts to any pointer type.
func IsNullPointerConstant(c Constant) bool {
	return IsInteger(c.Type) && c.IntVal == 0
}
