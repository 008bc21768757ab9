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
	"github.com/stretchr/testify/require"
)

func TestTableInsertRejectsDuplicate(t *testing.T) {
	tab := NewTable()
	require.NoError(t, tab.Insert("x", Entry{Type: Int32, Attribute: LocalAttribute{}}))
	err := tab.Insert("x", Entry{Type: Int64, Attribute: LocalAttribute{}})
	assert.Error(t, err)
}

func TestTableLookupAndContains(t *testing.T) {
	tab := NewTable()
	_, ok := tab.Lookup("missing")
	assert.False(t, ok)
	assert.False(t, tab.Contains("missing"))

	require.NoError(t, tab.Insert("x", Entry{Type: Int32, Attribute: LocalAttribute{}}))
	entry, ok := tab.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, Int32, entry.Type)
	assert.True(t, tab.Contains("x"))
}

func TestTableRefineKeepsTypeUpdatesAttribute(t *testing.T) {
	tab := NewTable()
	require.NoError(t, tab.Insert("f", Entry{
		Type:      &Function{Return: Int32},
		Attribute: FunctionAttribute{Defined: false, Global: true},
	}))
	tab.Refine("f", Entry{
		Type:      &Function{Return: Int32},
		Attribute: FunctionAttribute{Defined: true, Global: true},
	})
	entry, ok := tab.Lookup("f")
	require.True(t, ok)
	attr := entry.Attribute.(FunctionAttribute)
	assert.True(t, attr.Defined)
}

func TestTableRefinePanicsOnUndeclared(t *testing.T) {
	tab := NewTable()
	assert.Panics(t, func() {
		tab.Refine("nope", Entry{Type: Int32, Attribute: LocalAttribute{}})
	})
}

func TestTableNamesReturnsEveryEntry(t *testing.T) {
	tab := NewTable()
	require.NoError(t, tab.Insert("a", Entry{Type: Int32, Attribute: LocalAttribute{}}))
	require.NoError(t, tab.Insert("b", Entry{Type: Int32, Attribute: LocalAttribute{}}))
	names := tab.Names()
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}
