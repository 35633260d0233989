// Copyright (c) 2026 The cc64 Contributors
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

// Package cli is the driver: a Cobra command tree wiring compile.Compile,
// diag's error printers, and toolchain's assembler/linker invocation
// together, split into subcommands instead of one fixed action.
package cli

import (
	"cc64/compile"
	"cc64/compile/cfgbuild"
	"cc64/diag"
	"cc64/toolchain"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Execute builds and runs the root command, returning the process exit
// code. main.go's only job is to call this and os.Exit with the result.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode is set to 1 by a subcommand that reports a compile or
// toolchain failure; Execute returns it when the command itself returned
// no error.
var exitCode int

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cc64",
		Short:         "cc64 compiles a restricted C subset to x86-64 assembly",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCmd(), newTACCmd(), newBlocksCmd())
	return root
}

func libName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// compileFile runs the front end and core pipeline over one source file,
// printing diagnostics to stderr the way diag's printers are meant to be
// used. A nil *compile.Result means a CompileError or internal error was
// already reported.
func compileFile(path string) *compile.Result {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc64: %s: %v\n", path, err)
		exitCode = 1
		return nil
	}
	defer f.Close()

	result, compileErr, internalErr := compile.Compile(path, f)
	if compileErr != nil {
		diag.PrintCompileError(os.Stderr, compileErr)
		exitCode = 1
		return nil
	}
	if internalErr != nil {
		diag.PrintInternalError(os.Stderr, "compile", internalErr)
		exitCode = 1
		return nil
	}
	return result
}

func newBuildCmd() *cobra.Command {
	var (
		output   string
		emitTAC  bool
		emitASM  bool
		stopAsm  bool
	)
	cmd := &cobra.Command{
		Use:   "build <file.c> [files...]",
		Short: "compile one or more source files to a single executable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}

			var asmPaths []string
			for _, src := range args {
				result := compileFile(src)
				if result == nil {
					return fmt.Errorf("build failed")
				}

				name := libName(src)
				if emitTAC {
					fmt.Print(result.TAC)
				}
				if emitASM {
					fmt.Print(result.Assembly)
				}

				asmPath, err := toolchain.WriteAsm(wd, name, result.Assembly)
				if err != nil {
					return err
				}
				asmPaths = append(asmPaths, asmPath)
			}

			if stopAsm {
				return nil
			}

			target := output
			if target == "" {
				target = filepath.Join(wd, libName(args[0]))
			}
			if err := toolchain.Link(wd, target, asmPaths); err != nil {
				diag.PrintToolchainError(os.Stderr, err)
				exitCode = 1
				return fmt.Errorf("link failed")
			}
			fmt.Printf("cc64: wrote %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output executable path")
	cmd.Flags().BoolVar(&emitTAC, "emit-tac", false, "print the TAC listing to stdout")
	cmd.Flags().BoolVar(&emitASM, "emit-asm", false, "print the generated assembly to stdout")
	cmd.Flags().BoolVarP(&stopAsm, "S", "S", false, "stop after emitting assembly, skip assembling/linking")
	return cmd
}

func newTACCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tac <file.c>",
		Short: "print the three-address-code listing for a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := compileFile(args[0])
			if result == nil {
				return fmt.Errorf("compile failed")
			}
			fmt.Print(result.TAC)
			return nil
		},
	}
}

func newBlocksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blocks <file.c>",
		Short: "print the basic-block dump for a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := compileFile(args[0])
			if result == nil {
				return fmt.Errorf("compile failed")
			}
			for _, fn := range result.Program.Funcs {
				graph, ok := result.Graphs[fn.Name]
				if !ok {
					continue
				}
				fmt.Print(formatBlocks(graph))
			}
			return nil
		},
	}
}

// formatBlocks renders one line per block: id, instruction range,
// successor ids, optional label, and the four liveness set annotations.
func formatBlocks(g *cfgbuild.ControlFlowGraph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", g.Function)
	for _, blk := range g.Blocks {
		label := blk.Label
		if label == "" {
			label = "-"
		}
		succ := lo.Map(blk.Edges, func(id int, _ int) string { return strconv.Itoa(id) })
		fmt.Fprintf(&b, "B%d [%d,%d] label=%s succ=[%s]\n", blk.Id, blk.First, blk.Last, label, strings.Join(succ, ","))
		fmt.Fprintf(&b, "    def=%v use=%v in=%v out=%v\n",
			blk.DefSet.Items(), blk.UseSet.Items(), blk.LiveIn.Items(), blk.LiveOut.Items())
	}
	return b.String()
}
