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

import "subc/internal/diag"

// ObjectEntry records what Generate and AssignPseudoRegisters need to know
// about a data symbol: its width (to size Mov/Cmp/etc. against it) and
// whether it lives in static storage (DataOperand) rather than on the
// current frame (StackAddress).
type ObjectEntry struct {
	Width    Width
	IsStatic bool
}

// FunctionEntry records what Generate and Legalize need to know about a
// called or defined function: its eventual stack frame size (settled by
// AssignPseudoRegisters, read by Legalize) and whether it is defined in this
// translation unit (Generate marks a Call to an undefined function for the
// "@PLT" suffix).
type FunctionEntry struct {
	StackFrameSize int
	Defined        bool
}

// symbol is the tagged union backing BackendTable's map, grounded on
// backend_symbol_table.h's variant-typed entry (originally a
// std::variant<ObjectEntry, FunctionEntry>).
type symbol struct {
	object   *ObjectEntry
	function *FunctionEntry
}

// BackendTable is the second, target-specific symbol table C9 builds
// alongside the target tree, separate from internal/types.Table because it
// tracks backend-only facts (storage width, frame size) that have no
// meaning at the tacky level. Grounded on backend_symbol_table.h.
type BackendTable struct {
	symbols map[string]symbol
}

// NewBackendTable returns an empty table.
func NewBackendTable() *BackendTable {
	return &BackendTable{symbols: make(map[string]symbol)}
}

// InsertObject records name as a data symbol. It is an internal compiler
// error to insert the same name twice, mirroring insert_symbol's C++
// behavior of throwing on a duplicate: by construction Generate visits
// every symbol exactly once.
func (b *BackendTable) InsertObject(name string, entry ObjectEntry) {
	if _, exists := b.symbols[name]; exists {
		diag.ICE("backend symbol %q inserted twice", name)
	}
	b.symbols[name] = symbol{object: &entry}
}

// InsertFunction records name as a function symbol.
func (b *BackendTable) InsertFunction(name string, entry FunctionEntry) {
	if _, exists := b.symbols[name]; exists {
		diag.ICE("backend symbol %q inserted twice", name)
	}
	b.symbols[name] = symbol{function: &entry}
}

// Object looks up name as an object entry; ok is false if absent or if name
// names a function instead.
func (b *BackendTable) Object(name string) (ObjectEntry, bool) {
	s, exists := b.symbols[name]
	if !exists || s.object == nil {
		return ObjectEntry{}, false
	}
	return *s.object, true
}

// Function looks up name as a function entry; ok is false if absent or if
// name names an object instead.
func (b *BackendTable) Function(name string) (FunctionEntry, bool) {
	s, exists := b.symbols[name]
	if !exists || s.function == nil {
		return FunctionEntry{}, false
	}
	return *s.function, true
}

// SetStackFrameSize updates a previously inserted function's frame size, the
// mutation AssignPseudoRegisters performs once it finishes walking a
// function's body (mirrors insert_or_assign_symbol).
func (b *BackendTable) SetStackFrameSize(name string, size int) {
	s, exists := b.symbols[name]
	if !exists || s.function == nil {
		diag.ICE("SetStackFrameSize on unknown function %q", name)
	}
	fn := *s.function
	fn.StackFrameSize = size
	b.symbols[name] = symbol{function: &fn}
}
