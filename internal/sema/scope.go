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

// Package sema implements the syntax-tree semantic passes: identifier
// resolution, type checking, and loop labeling. Each pass mutates the tree
// in place and is fatal-on-error; none carries state beyond what its own
// pass needs.
package sema

// scopeEntry is one row of the identifier-resolution scope map: a source
// name mapped to its renamed form, whether it was declared in the
// currently-open scope frame, and whether it has linkage (so a later
// `extern` redeclaration of the same name is accepted rather than rejected).
type scopeEntry struct {
	renamed          string
	fromCurrentScope bool
	hasLinkage       bool
}

// scopeMap is a flat, copyable map from source name to scopeEntry. Entering
// a nested scope copies the map with every entry's fromCurrentScope cleared,
// per the book's IdentifierMapGuard: a lookup still reaches every enclosing
// name, but a fresh declaration of an already-visible name is shadowing, not
// a duplicate, unless it was declared in the scope frame now being opened.
type scopeMap map[string]scopeEntry

func (m scopeMap) clone() scopeMap {
	out := make(scopeMap, len(m))
	for k, v := range m {
		v.fromCurrentScope = false
		out[k] = v
	}
	return out
}

// resolver carries the identifier-resolution pass' only state: the current
// scope map (the name generator is passed to each method that mints a
// name rather than stored here). pushScope/the returned closure implement
// the scoped guard spec §4.1 requires: strictly nested acquire/release,
// expressed here as `defer r.pushScope()()`.
type resolver struct {
	current scopeMap
}

func newResolver() *resolver {
	return &resolver{current: scopeMap{}}
}

// pushScope opens a new scope frame and returns a function that restores the
// previous frame; call it with defer immediately after pushScope so the
// frame closes no matter how the enclosing function returns.
func (r *resolver) pushScope() func() {
	old := r.current
	r.current = old.clone()
	return func() { r.current = old }
}
