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

// InitializerKind tags the three states a static variable's initializer can
// be in before link time.
type InitializerKind int

const (
	// Tentative marks a file-scope object declared with no initializer; it
	// becomes a zero initializer if no other translation unit provides one.
	Tentative InitializerKind = iota
	// Initial marks an object with a known compile-time constant value.
	Initial
	// NoInit marks an extern declaration that never defines storage here.
	NoInit
)

// StaticInitializer is the attribute payload for a file- or block-scope
// static object.
type StaticInitializer struct {
	Kind  InitializerKind
	Value Constant // meaningful only when Kind == Initial
}

// Attribute is the closed tagged variant of identifier attributes:
// Function, Static, or Local.
type Attribute interface {
	isAttribute()
}

// FunctionAttribute marks a symbol as a function, tracking whether it has
// been defined (as opposed to merely declared) and whether it has external
// linkage.
type FunctionAttribute struct {
	Defined bool
	Global  bool
}

func (FunctionAttribute) isAttribute() {}

// StaticAttribute marks a symbol as a file-scope or `static` block-scope
// object with static storage duration.
type StaticAttribute struct {
	Init   StaticInitializer
	Global bool
}

func (StaticAttribute) isAttribute() {}

// LocalAttribute marks an ordinary automatic-storage local with no linkage
// information worth tracking.
type LocalAttribute struct{}

func (LocalAttribute) isAttribute() {}

// Entry is one symbol table row: a type plus a storage/linkage attribute.
type Entry struct {
	Type      Type
	Attribute Attribute
}

// Table is a process-wide (but not singleton) mapping from identifier name
// to Entry. Each compilation owns one Table; passing it explicitly through
// every pass keeps compilations from implicitly sharing state and lets
// tests seed contents directly.
type Table struct {
	entries map[string]Entry
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Insert adds a brand new entry, returning an error if name is already
// present. Insert never overwrites an existing entry; use Refine to update
// its attribute.
func (t *Table) Insert(name string, entry Entry) error {
	if _, ok := t.entries[name]; ok {
		return fmt.Errorf("symbol %q already declared", name)
	}
	t.entries[name] = entry
	return nil
}

// Refine replaces an existing entry's attribute (e.g. undefined -> defined)
// while keeping its type; it is a no-op-safe way to upgrade an entry rather
// than re-declare it. Panics if name is not already present, since refining
// a symbol that was never declared is always a caller bug.
func (t *Table) Refine(name string, entry Entry) {
	existing, ok := t.entries[name]
	if !ok {
		panic(fmt.Sprintf("cannot refine undeclared symbol %q", name))
	}
	t.entries[name] = Entry{Type: existing.Type, Attribute: entry.Attribute}
}

// Lookup returns the entry for name and whether it was found.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Contains reports whether name has an entry.
func (t *Table) Contains(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Names returns every declared name, in no particular order; callers that
// need determinism (e.g. assembly emission) must sort it themselves.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	return names
}
