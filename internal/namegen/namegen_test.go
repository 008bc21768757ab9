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
package namegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemporaryDefaultsBaseAndIncrements(t *testing.T) {
	g := New()
	assert.Equal(t, "tmp.0", g.Temporary(""))
	assert.Equal(t, "tmp.1", g.Temporary(""))
	assert.Equal(t, "x.2", g.Temporary("x"))
}

func TestLabelHasItsOwnCounterFromTemporary(t *testing.T) {
	g := New()
	g.Temporary("")
	g.Temporary("")
	assert.Equal(t, "while_start.0", g.Label("while_start"))
	assert.Equal(t, "while_start.1", g.Label("while_start"))
}

func TestNameGeneratorInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Temporary("")
	assert.Equal(t, "tmp.0", b.Temporary(""))
}
