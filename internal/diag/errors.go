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
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// SemanticKind names one of the fatal SemanticError subtypes.
type SemanticKind string

const (
	DuplicateDeclaration       SemanticKind = "DuplicateDeclaration"
	UndeclaredIdentifier       SemanticKind = "UndeclaredIdentifier"
	InvalidLValue              SemanticKind = "InvalidLValue"
	IncompatibleRedeclaration  SemanticKind = "IncompatibleRedeclaration"
	DefineAtLocalScope         SemanticKind = "DefineAtLocalScope"
	BreakOutsideLoop           SemanticKind = "BreakOutsideLoop"
	ContinueOutsideLoop        SemanticKind = "ContinueOutsideLoop"
	ArgumentCountMismatch      SemanticKind = "ArgumentCountMismatch"
	UseVariableAsFunction      SemanticKind = "UseVariableAsFunction"
	UseFunctionAsVariable      SemanticKind = "UseFunctionAsVariable"
)

// LexError reports that no token matched at a position.
type LexError struct {
	Loc Location
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: lex error: %s", e.Loc, e.Msg)
}

// ParseError reports an unexpected token or unexpected end of input. Context
// is a stack of human descriptions ("in expression ...", "in statement ...")
// accumulated as the parser unwinds, outermost last.
type ParseError struct {
	Loc     Location
	Msg     string
	Context []string
}

func (e *ParseError) Error() string {
	s := fmt.Sprintf("%s: parse error: %s", e.Loc, e.Msg)
	for _, c := range e.Context {
		s += "\n  " + c
	}
	return s
}

// WithContext returns a copy of the error with one more context frame
// appended, innermost-first, matching the order the parser discovers them.
func (e *ParseError) WithContext(frame string) *ParseError {
	ctx := make([]string, 0, len(e.Context)+1)
	ctx = append(ctx, e.Context...)
	ctx = append(ctx, frame)
	return &ParseError{Loc: e.Loc, Msg: e.Msg, Context: ctx}
}

// SemanticError reports a violation caught by identifier resolution, type
// checking, or loop labeling.
type SemanticError struct {
	Kind SemanticKind
	Loc  Location
	Msg  string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Loc, e.Kind, e.Msg)
}

// TypeError reports incompatible operand types, bad assignments, or bad casts.
type TypeError struct {
	Loc Location
	Msg string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: type error: %s", e.Loc, e.Msg)
}

// InternalCompilerError marks a branch that must be unreachable for any
// well-formed input; it is never caused by the user's program.
type InternalCompilerError struct {
	Msg string
}

func (e *InternalCompilerError) Error() string {
	return "internal compiler error: " + e.Msg
}

// ICE raises an InternalCompilerError, panicking with it so that a bug in an
// earlier pass cannot be silently swallowed by a later one.
func ICE(format string, args ...interface{}) {
	panic(&InternalCompilerError{Msg: fmt.Sprintf(format, args...)})
}

// Assert panics with an InternalCompilerError if cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		ICE(format, args...)
	}
}

// Wrap augments err with the current pass context, in the style spec'd for
// error propagation: "in expression ... in statement ... in function foo".
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}

// Wrapf is Wrap with a formatted context string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
