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

// Package driver orchestrates the whole pipeline spec §6 describes as the
// command-line driver's contract: preprocess, run the requested stage(s),
// and for a full compile hand the emitted assembly to the system
// assembler/linker. It is the one component in this repository allowed to
// do process I/O.
package driver

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"subc/internal/ast"
	"subc/internal/diag"
	"subc/internal/lexer"
	"subc/internal/namegen"
	"subc/internal/parser"
	"subc/internal/sema"
	"subc/internal/tacky"
	"subc/internal/target"
	"subc/internal/types"
)

// Stage selects how far through the pipeline Run drives one compilation,
// matching the driver contract's --lex/--parse/--codegen/-S/no-flag shape.
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageCodegen
	StageAssembly // -S: stop after producing INPUT.s
	StageExecutable
)

// Options configures one invocation of Run.
type Options struct {
	Stage Stage

	// Debug dump flags, the driver-side analog of the teacher's
	// DebugPrintAst/DebugDumpSSA consts, rendered with go-spew instead of a
	// bespoke DOT printer for the tacky/target stages.
	DumpAST    bool
	DumpTacky  bool
	DumpTarget bool

	Log *logrus.Logger
}

func (o Options) logger() *logrus.Logger {
	if o.Log != nil {
		return o.Log
	}
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// Preprocess runs the system C preprocessor over a ".c" source file,
// producing its ".i" sibling, per spec §6's "the driver invokes the system
// C preprocessor on INPUT.c -> INPUT.i".
func Preprocess(cPath string) (string, error) {
	iPath := withExt(cPath, ".i")
	cmd := exec.Command("gcc", "-E", "-P", cPath, "-o", iPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", diag.Wrap(err, "preprocessing "+cPath)
	}
	return iPath, nil
}

// Run executes the pipeline against the preprocessed source file at path
// (an "INPUT.i" in driver-contract terms) up to opts.Stage. For
// StageAssembly and StageExecutable it writes path's ".s" sibling; for
// StageExecutable it additionally invokes the system assembler/linker.
func Run(path string, opts Options) error {
	log := opts.logger()

	src, err := os.Open(path)
	if err != nil {
		return diag.Wrap(err, "opening input file")
	}
	defer src.Close()

	tokens, err := lexer.Lex(path, src)
	if err != nil {
		return diag.Wrap(err, "in lexing")
	}
	if opts.Stage == StageLex {
		return nil
	}

	prog, err := parser.Parse(tokens)
	if err != nil {
		return diag.Wrap(err, "in parsing")
	}
	if opts.Stage == StageParse {
		return nil
	}

	// One generator for the whole compilation: identifier resolution,
	// loop labeling, and tacky generation all mint names off the same
	// counters, so a user identifier renamed to "foo.0" by resolution can
	// never collide with a compiler temporary minted later (spec §9).
	gen := namegen.New()

	if err := runSemanticPasses(prog, gen); err != nil {
		return err
	}
	if opts.DumpAST {
		ast.PrintProgram(os.Stdout, prog, true)
	}

	warnings, targetProg, err := lowerToTarget(prog, gen, opts)
	if err != nil {
		return err
	}
	for _, w := range warnings.Warnings() {
		log.Warn(w)
	}
	if opts.Stage == StageCodegen {
		return nil
	}

	asmPath := withExt(path, ".s")
	if err := writeAssembly(asmPath, targetProg); err != nil {
		return diag.Wrap(err, "writing assembly output")
	}
	if opts.Stage == StageAssembly {
		return nil
	}
	return assembleAndLink(asmPath)
}

func runSemanticPasses(prog *ast.Program, gen *namegen.Generator) error {
	if err := sema.ResolveIdentifiers(prog, gen); err != nil {
		return diag.Wrap(err, "in identifier resolution")
	}
	if err := sema.LabelLoops(prog, gen); err != nil {
		return diag.Wrap(err, "in loop labeling")
	}
	return nil
}

func lowerToTarget(prog *ast.Program, gen *namegen.Generator, opts Options) (*diag.WarningManager, *target.Program, error) {
	symtab := types.NewTable()
	warnings := diag.NewWarningManager()
	if err := sema.TypeCheck(prog, symtab, warnings); err != nil {
		return nil, nil, diag.Wrap(err, "in type checking")
	}

	tackyProg := tacky.Generate(prog, symtab, gen)
	if opts.DumpTacky {
		fmt.Fprintln(os.Stdout, "== tacky ==")
		spew.Fdump(os.Stdout, tackyProg)
	}

	targetProg, backend := target.Generate(tackyProg, symtab)
	target.AssignPseudoRegisters(targetProg, backend)
	target.Legalize(targetProg, backend)
	if opts.DumpTarget {
		fmt.Fprintln(os.Stdout, "== target ==")
		spew.Fdump(os.Stdout, targetProg)
	}

	return warnings, targetProg, nil
}

func writeAssembly(path string, prog *target.Program) error {
	var buf bytes.Buffer
	target.Emit(&buf, prog)
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// assembleAndLink shells out to the system assembler/linker, the way the
// teacher's compile.go runs gcc over its own emitted .s file. Decided in
// DESIGN.md: the teacher's assemble_and_link stub was scaffolding, not a
// preserved fallback, so this always drives the real toolchain.
func assembleAndLink(asmPath string) error {
	out := strings.TrimSuffix(asmPath, filepath.Ext(asmPath))
	cmd := exec.Command("gcc", asmPath, "-o", out)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return diag.Wrap(err, "assembling and linking "+asmPath)
	}
	return nil
}

func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
