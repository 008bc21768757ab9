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

// Package namegen mints unique temporary and label names for one
// compilation. A compilation uses exactly one Generator; concurrent
// compilations use separate instances.
package namegen

import "fmt"

// Generator holds two independent monotonic counters: one for temporaries,
// one for labels. They are kept separate (rather than shared) because a
// temporary name and a label name are never compared against each other, so
// interleaving them would only cost range for no benefit.
type Generator struct {
	tempCounter  int
	labelCounter int
}

// New returns a fresh Generator, both counters at zero.
func New() *Generator {
	return &Generator{}
}

// Temporary mints a new unique temporary name, defaulting the base to "tmp"
// when none is given. The dot separator is safe because '.' is not in the
// lexer's identifier alphabet, so a generated name can never collide with a
// source identifier.
func (g *Generator) Temporary(base string) string {
	if base == "" {
		base = "tmp"
	}
	name := fmt.Sprintf("%s.%d", base, g.tempCounter)
	g.tempCounter++
	return name
}

// Label mints a new unique label name built from the given base (e.g.
// "while_start", "and_false").
func (g *Generator) Label(base string) string {
	name := fmt.Sprintf("%s.%d", base, g.labelCounter)
	g.labelCounter++
	return name
}
