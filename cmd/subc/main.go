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

// Command subc is the command-line driver: preprocess a .c file, run it
// through as much of the pipeline as the selected flag requests, and for a
// full compile hand the result to the system assembler/linker.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"subc/internal/driver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		lexOnly    bool
		parseOnly  bool
		codegen    bool
		stopAsm    bool
		dumpAST    bool
		dumpTacky  bool
		dumpTarget bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "subc INPUT.c",
		Short: "subc compiles a subset of C to x86-64 assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage := driver.StageExecutable
			switch {
			case lexOnly:
				stage = driver.StageLex
			case parseOnly:
				stage = driver.StageParse
			case codegen:
				stage = driver.StageCodegen
			case stopAsm:
				stage = driver.StageAssembly
			}

			log := logrus.New()
			log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			cPath := args[0]
			iPath, err := driver.Preprocess(cPath)
			if err != nil {
				return err
			}
			defer os.Remove(iPath)

			return driver.Run(iPath, driver.Options{
				Stage:      stage,
				DumpAST:    dumpAST,
				DumpTacky:  dumpTacky,
				DumpTarget: dumpTarget,
				Log:        log,
			})
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.BoolVar(&lexOnly, "lex", false, "run the lexer only, then stop")
	flags.BoolVar(&parseOnly, "parse", false, "run the lexer and parser only, then stop")
	flags.BoolVar(&codegen, "codegen", false, "run through target code generation, then stop before emitting assembly")
	flags.BoolVarP(&stopAsm, "assembly", "S", false, "emit INPUT.s and stop before assembling/linking")
	flags.BoolVar(&dumpAST, "dump-ast", false, "print the syntax tree after semantic analysis")
	flags.BoolVar(&dumpTacky, "dump-tacky", false, "print the three-address IR")
	flags.BoolVar(&dumpTarget, "dump-target", false, "print the target assembly IR before emission")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		fmt.Fprintln(c.OutOrStdout(), c.Short)
		fmt.Fprintln(c.OutOrStdout())
		fmt.Fprintln(c.OutOrStdout(), "Usage:")
		fmt.Fprintf(c.OutOrStdout(), "  %s\n\n", c.Use)
		fmt.Fprintln(c.OutOrStdout(), "Flags:")
		c.Flags().VisitAll(func(f *pflag.Flag) {
			fmt.Fprintf(c.OutOrStdout(), "  --%-12s %s\n", f.Name, f.Usage)
		})
	})

	return cmd
}
