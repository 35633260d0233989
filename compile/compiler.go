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

// Package compile chains the five core passes (IRGen, CFGBuild, Liveness,
// Allocator, InstSel) into the single entry point the driver calls; each
// pass runs over every function before the next pass starts. Front-end
// diagnostics and CFGBuild failures are returned as values; syntax errors
// and failed internal assertions panic, and main.go recovers them. No
// pass exits the process or does file I/O: that is reserved for the
// driver.
package compile

import (
	"cc64/ast"
	"cc64/compile/cfgbuild"
	"cc64/compile/codegen"
	"cc64/compile/irgen"
	"cc64/compile/liveness"
	"cc64/compile/regalloc"
	"cc64/ir"
	"fmt"
	"io"
)

// Result holds every intermediate and final artifact the driver may want
// to inspect or write out.
type Result struct {
	Program    *ast.Program
	Frames     map[string]*ir.Frame
	Instrs     []ir.Instruction
	Graphs     map[string]*cfgbuild.ControlFlowGraph
	Liveness   map[string]*liveness.Result
	Allocation map[string]*regalloc.Result
	TAC        string
	Assembly   string
}

// Compile runs the front end then the full back-end pipeline over src.
// A non-nil *ir.CompileError means front-end errors were found and the
// back end did not run; a non-nil plain error is an internal back-end
// failure such as a malformed CFG.
func Compile(fileName string, src io.Reader) (*Result, *ir.CompileError, error) {
	prog := ast.ParseProgram(fileName, src)

	frames, errs := ast.Analyze(prog)
	if errs.HasErrors() {
		return nil, errs, nil
	}

	instrs := irgen.Generate(prog, frames)

	graphs, err := cfgbuild.BuildAll(instrs, frames)
	if err != nil {
		return nil, nil, fmt.Errorf("cfgbuild: %w", err)
	}

	liveResults := liveness.AnalyzeAll(instrs, graphs)
	allocResults := regalloc.AllocateAll(liveResults, frames)

	asm := codegen.GenerateProgram(instrs, frames, allocResults)

	return &Result{
		Program:    prog,
		Frames:     frames,
		Instrs:     instrs,
		Graphs:     graphs,
		Liveness:   liveResults,
		Allocation: allocResults,
		TAC:        ir.PrintTAC(instrs),
		Assembly:   asm,
	}, nil, nil
}
